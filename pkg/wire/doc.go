// Package wire defines the text line protocol spoken to the device.
//
// Each line carries one value per channel as a base-10 integer. Values are
// joined by a single comma and terminated by a single newline:
//
//	10,255\n
//	90,45\n
//
// There is no framing, checksum, length prefix, escaping or whitespace. The
// device reads until '\n' and splits on ','. The link is host to device only;
// Decode exists for the device simulator and the log tools.
//
// # Domains
//
// Deployments use one of two value domains: DomainLED (0-255, PWM
// brightness) or DomainServo (0-180, degrees). The encoder itself is total
// and does not enforce a domain.
package wire
