// Package debug serves a live view of the renderer over HTTP.
//
// Endpoints:
//
//	GET /health     {"status":"ok"}
//	GET /view-tree  registered views as a tree, with lifecycle state
//	GET /lifecycle  recent lifecycle notifications (?limit=N, ?view=ID)
//	GET /events     websocket stream of lifecycle notifications as JSON
//
// A Server observes a renderer through Observe. Handlers that read views take
// the server's lock, which callers mutating views from another goroutine must
// also hold.
package debug
