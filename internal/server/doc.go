// Package server implements the MCP (Model Context Protocol) server for the GIMP bridge.
//
// This package provides a JSON-RPC 2.0 server that exposes a running GIMP
// instance through the MCP protocol. It's designed to work with Claude and
// other MCP-compatible clients: tool calls are forwarded over the bridge
// socket to the MCP plugin inside the editor, and results come back as MCP
// content.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - call_api: Run code fragments or named procedures in the editor's
//     persistent console namespace
//   - get_image_bitmap: Export the current canvas as PNG, with optional
//     region crop and center-inside scaling
//   - get_image_metadata: Structural description of the current image
//     without pixel data
//   - get_gimp_info: Version, paths, session, and environment facts
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC error responses. Two codes matter
// to callers:
//   - -32001: the bridge listener is unreachable (editor or plugin not
//     running); retrying later may succeed
//   - -32000: the listener answered but the request failed inside the
//     editor; the error data carries the message and any traceback
//
// This package holds no business logic: it validates arguments, calls the
// bridge client, and shapes responses. Replacing it with a different outer
// protocol layer requires no changes elsewhere.
package server
