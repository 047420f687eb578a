// Package link owns the serial connection to the device.
//
// A Link moves through three states:
//
//	CLOSED --Open--> OPENING --success--> OPEN
//	   ^                |                   |
//	   +----failure-----+                   |
//	   +------------Close / write error-----+
//
// Ports are resolved through an AuthorizedStore (ports the user granted
// before) and a Picker (the platform's port chooser). Writes are queued to a
// single writer goroutine so callers never block on transmission; a write
// error is treated as the device vanishing and closes the link.
package link
