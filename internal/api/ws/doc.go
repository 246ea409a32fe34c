// Package ws streams library load state over WebSocket.
//
// Each connection gets a welcome message carrying a connection ID and a
// snapshot of every tracked library, followed by a "state" message for
// each coordinator transition. Clients treat the welcome snapshot as a
// reset.
//
// Message Types (Client → Server):
//   - load: ensure a library is loaded ({"type":"load","library":"react"})
//   - snapshot: request the current state table
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - welcome, snapshot: state table
//   - state: one transition (library, from, to, error)
//   - loaded: reply to a successful load
//   - pong
//   - error
//
// Example Usage:
//
//	handler := ws.NewHandler(coordinator, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
