// Package api exposes the wire protocol of the emulated music server.
//
// One HTTP listener carries both inbound channels: plain GET requests
// whose path is the wire command, and a WebSocket upgrade at the server
// root over which every inbound text frame is a wire command answered on
// the same socket. The WebSocket hub doubles as the broadcast fan-out
// for asynchronous state events.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
