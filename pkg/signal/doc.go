// Package signal provides the input sources polled by the control loop.
//
// A Source is polled once per tick and either yields a Sample or reports
// that it has nothing usable right now. Sources never block.
package signal
