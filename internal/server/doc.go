// Package server implements the MCP (Model Context Protocol) server that
// exposes the morphology output writers to an upstream analysis pipeline.
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
// Run state:
//   - morph_settings: Report the active settings and table size
//   - morph_begin_sample: Switch the active sample ID
//
// Measurements:
//   - morph_append_measurement: Append one object's row to the run table
//   - morph_write_measurements: Persist the run table as CSV and, when a
//     store is configured, to SQLite
//
// Per-object output:
//   - morph_save_coordinates: Write an object's (x, y) outline as CSV
//   - morph_save_bounding_box: Render contour and minimum bounding box (PDF + JPEG)
//
// Per-image output:
//   - morph_save_intermediate: Save one filter stage's image
//   - morph_save_final_overlay: Save the edge overlay, copied into
//     intermediates when enabled
//
// # Run State
//
// The server owns the accumulating measurement table for the lifetime of the
// process. Each successful append replaces it with the returned table; a failed
// append leaves it untouched. Requests are handled one at a time in arrival
// order.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(cfg, nil)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
