// Package api exposes the session over HTTP for browser front ends.
//
// Every response uses the same envelope:
//
//	{"status": "success", "message": "...", "data": {...}}
//	{"status": "error", "error": "..."}
//
// POST endpoints translate into session commands and return as soon as the
// command is queued; its effect shows up in the next GET /api/status.
package api
