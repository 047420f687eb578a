// Package feed receives signal samples from external front ends.
//
// Front ends (pose detectors, window trackers, UIs) connect over TCP and
// send Messages as length-prefixed CBOR frames:
//
//	+----------------+---------------------------+
//	| length (4, BE) | CBOR-encoded Message      |
//	+----------------+---------------------------+
//
// The server hands each decoded message to a Sink, normally the control
// loop's command queue.
package feed
