// Package server implements the MCP (Model Context Protocol) server for label
// template extraction.
//
// This package provides a JSON-RPC 2.0 server that exposes the template
// extractor, the circle lattice synthesizer and the coordinate conversions
// through the MCP protocol, so MCP-compatible clients can measure label
// sheets without a separate CLI step.
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
// Template Extraction:
//   - template_extract: Extract a template from one page
//   - template_extract_batch: Extract templates from several sources concurrently
//   - template_export: Extract and write JSON or CSV to disk
//   - template_load: Read a previously exported template
//
// Template Synthesis:
//   - template_synthesize_circles: Generate a circle lattice template
//
// Coordinate Conversion:
//   - template_convert: Convert a point between coordinate spaces
//
// Visual Verification:
//   - template_overlay: Draw the extracted template over the page
//   - template_crop_label: Crop one label cell from the page
//   - image_edge_map: Show the edge mask used by the raster detector
//   - template_page_info: Page count and page size of a source
//
// Request arguments left out fall back to the loaded configuration
// (extraction mode, DPI, output coordinate space, batch concurrency).
//
// # Image Caching
//
// Image sources are decoded once and cached by path for the lifetime of the
// server process, so overlay and crop calls after an extraction do not read
// the file again.
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
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
