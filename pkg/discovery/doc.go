// Package discovery advertises and finds servolink signal feeds over
// mDNS/DNS-SD.
//
// A bridge that accepts samples on its feed listener registers one
// instance of the _servolink._tcp service. Front ends (pose trackers,
// window trackers, sliders) browse for it instead of being configured
// with a host and port.
//
// # TXT records
//
//   - ver: feed protocol version, "major.minor"; a different major is rejected
//   - profile: name of the active profile (e.g. "servo-smooth")
//   - channels: comma separated channel names in wire order
//   - baud: serial baud rate of the device link
//
// Unknown keys are ignored when decoding so the format can grow.
package discovery
