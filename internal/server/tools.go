package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the source: a raster image (png, jpg, gif, bmp, tiff) or a page description (yaml, json)",
	}
}

func pageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Zero-based page index. Default 0",
		"default":     0,
	}
}

func dpiProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Rasterisation resolution for page descriptions, or the scan resolution of an image. Default 200",
		"default":     200,
	}
}

func modeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"auto", "vector", "raster"},
		"description": "Detector selection. auto tries vector drawings first and falls back to raster edges. Default auto",
		"default":     "auto",
	}
}

func coordSpaceProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"percent_width", "points", "inches", "mm"},
		"description": "Coordinate space of the returned centers. Default percent_width",
		"default":     "percent_width",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Template Extraction
		{
			Name:        "template_extract",
			Description: "Extract the label grid template from a sheet: page size, grid dimensions, label size, anchors and the center of every label.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"page":        pageProperty(),
					"mode":        modeProperty(),
					"dpi":         dpiProperty(),
					"coord_space": coordSpaceProperty(),
					"dedupe_tolerance_pt": map[string]interface{}{
						"type":        "number",
						"description": "Merge vector drawings whose edges agree within this many points. 0 disables. Default 0.5",
						"default":     0.5,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "template_extract_batch",
			Description: "Extract templates from several sheets concurrently. Each source reports its own template or error.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the sources",
					},
					"page":        pageProperty(),
					"mode":        modeProperty(),
					"dpi":         dpiProperty(),
					"coord_space": coordSpaceProperty(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "template_export",
			Description: "Extract a template and write it to disk as JSON (full template) or CSV (centers only).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"page":        pageProperty(),
					"mode":        modeProperty(),
					"dpi":         dpiProperty(),
					"coord_space": coordSpaceProperty(),
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the file to write",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"json", "csv"},
						"description": "Output format. Default json",
						"default":     "json",
					},
				},
				"required": []string{"path", "output"},
			},
		},
		{
			Name:        "template_load",
			Description: "Load a previously exported template JSON file and return it with centers in the requested coordinate space.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the template JSON file",
					},
					"coord_space": coordSpaceProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Template Synthesis
		{
			Name:        "template_synthesize_circles",
			Description: "Generate a template of circular labels on a square (simple) or hexagonal close-packed (close) lattice.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"layout": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"simple", "close"},
						"description": "Lattice arrangement",
					},
					"page_width":  map[string]interface{}{"type": "number", "description": "Page width in points. Default 612 (US Letter)", "default": 612},
					"page_height": map[string]interface{}{"type": "number", "description": "Page height in points. Default 792 (US Letter)", "default": 792},
					"diameter":    map[string]interface{}{"type": "number", "description": "Circle diameter in points"},
					"gap":         map[string]interface{}{"type": "number", "description": "Minimum edge-to-edge gap between circles in points. Default 0", "default": 0},
					"margin": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number"},
						"description": "Page margins in points as [top, right, bottom, left], or a single value for all sides. Default 0",
					},
					"max_cols":    map[string]interface{}{"type": "integer", "description": "Maximum circles per row. 0 means unlimited"},
					"max_rows":    map[string]interface{}{"type": "integer", "description": "Maximum rows. 0 means unlimited"},
					"coord_space": coordSpaceProperty(),
				},
				"required": []string{"layout", "diameter"},
			},
		},

		// Coordinate Conversion
		{
			Name:        "template_convert",
			Description: "Convert a point between coordinate spaces (percent_width, points, inches, mm).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x":    map[string]interface{}{"type": "number", "description": "X coordinate"},
					"y":    map[string]interface{}{"type": "number", "description": "Y coordinate"},
					"from": coordSpaceProperty(),
					"to":   coordSpaceProperty(),
					"page_width": map[string]interface{}{
						"type":        "number",
						"description": "Page width in points, required when either space is percent_width",
					},
				},
				"required": []string{"x", "y", "from", "to"},
			},
		},

		// Visual Verification
		{
			Name:        "template_overlay",
			Description: "Extract a template and draw every label outline and center over the rendered page. Returns a base64 PNG for visual verification.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"mode": modeProperty(),
					"dpi":  dpiProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline colour as #RRGGBB or #RRGGBBAA. Default #FF000080",
						"default":     "#FF000080",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "template_crop_label",
			Description: "Extract a template and crop the cell of one label from the rendered page as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":  pathProperty(),
					"index": map[string]interface{}{"type": "integer", "description": "Row-major label index, starting at 0"},
					"page":  pageProperty(),
					"mode":  modeProperty(),
					"dpi":   dpiProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "index"},
			},
		},
		{
			Name:        "image_edge_map",
			Description: "Render a page and return the binary edge mask the raster detector works from, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"dpi":  dpiProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "template_page_info",
			Description: "Report the page count and the size of a page in points. For images, also the pixel size and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"dpi":  dpiProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
