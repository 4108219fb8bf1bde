// Package ws implements the WebSocket hub that streams the standings table.
//
// New(store, interval) creates a Hub. Hub.Run(ctx) broadcasts on every tick
// and after each Notify call, and closes all connections when ctx is
// cancelled. Hub.ServeHTTP upgrades the request, sends the current table
// immediately and then streams updates.
//
// Message format sent to clients:
//
//	{
//	  "event": "standings",
//	  "data":  {"standings": [ /* same rows as GET /standings */ ], "generated_at": "..."}
//	}
//
// The server mounts the hub at /ws/standings.
package ws
