package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pointSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x": map[string]interface{}{"type": "number"},
			"y": map[string]interface{}{"type": "number"},
		},
		"required": []string{"x", "y"},
	}
}

func pointsSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       pointSchema(),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Run State
		{
			Name:        "morph_settings",
			Description: "Report the output directory, active sample ID, intermediate saving flag and the number of rows accumulated so far.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "morph_begin_sample",
			Description: "Switch the active sample ID. Subsequent file names and measurement rows use it unless a call overrides it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sample_id": map[string]interface{}{
						"type":        "string",
						"description": "Sample identifier used in file names and the SampleID column",
					},
				},
				"required": []string{"sample_id"},
			},
		},

		// Measurements
		{
			Name:        "morph_append_measurement",
			Description: "Append one object's shape measurements and bounding box dimensions to the run table. Fails without modifying the table if any required measurement is missing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sample_id": map[string]interface{}{
						"type":        "string",
						"description": "Sample identifier (default: active sample)",
					},
					"object_id": map[string]interface{}{
						"type":        "integer",
						"description": "Object identifier within the sample",
					},
					"measures": map[string]interface{}{
						"type":        "object",
						"description": "Mapping with Area, Eccentricity, Perimeter, MajorAxisLength, MinorAxisLength and Rugosity",
						"additionalProperties": map[string]interface{}{
							"type": "number",
						},
					},
					"height": map[string]interface{}{
						"type":        "number",
						"description": "Bounding box height",
					},
					"width": map[string]interface{}{
						"type":        "number",
						"description": "Bounding box width",
					},
					"aspect_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Bounding box aspect ratio",
					},
				},
				"required": []string{"object_id", "measures", "height", "width", "aspect_ratio"},
			},
		},
		{
			Name:        "morph_write_measurements",
			Description: "Write the run table as CSV and, when a measurement store is configured, save it under the current run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "CSV destination (default: <out_directory>/measurements.csv)",
					},
				},
			},
		},

		// Per-object Output
		{
			Name:        "morph_save_coordinates",
			Description: "Write an object's outline points to coordinates/<object_name>_coordinates_<tag>.csv with SampleID, ObjectID, x and y columns.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"coordinates": pointsSchema("Outline points in order"),
					"sample_id": map[string]interface{}{
						"type":        "string",
						"description": "Sample identifier (default: active sample)",
					},
					"object_id": map[string]interface{}{
						"type":        "integer",
						"description": "Object identifier within the sample",
					},
					"object_name": map[string]interface{}{
						"type":        "string",
						"description": "Object name used in the file name",
					},
					"tag": map[string]interface{}{
						"type":        "string",
						"description": "Suffix distinguishing coordinate sets of the same object",
					},
				},
				"required": []string{"coordinates", "object_id", "object_name", "tag"},
			},
		},
		{
			Name:        "morph_save_bounding_box",
			Description: "Plot an object's contour and minimum bounding box with its aspect ratio, saved as aspect_ratio/<object_name>_aspect_ratio.pdf and .jpg.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mbb": pointsSchema("The four corners of the minimum bounding box"),
					"contour": map[string]interface{}{
						"type":        "array",
						"description": "Contour runs, concatenated in order",
						"items":       pointsSchema("One run of contour points"),
					},
					"aspect_ratio": map[string]interface{}{
						"type":        "number",
						"description": "Aspect ratio shown in the figure label",
					},
					"object_name": map[string]interface{}{
						"type":        "string",
						"description": "Object name used in the file names",
					},
				},
				"required": []string{"mbb", "contour", "aspect_ratio", "object_name"},
			},
		},

		// Per-image Output
		{
			Name:        "morph_save_intermediate",
			Description: "Save an intermediate filter stage to intermediates/<sample>_<image_name>_<tag>. The tag carries the extension that selects the format; a tag without a recognised image extension is rejected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the stage image",
					},
					"image_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the source image",
					},
					"tag": map[string]interface{}{
						"type":        "string",
						"description": "Stage tag including the image extension (e.g. blur.png)",
					},
				},
				"required": []string{"path", "image_name", "tag"},
			},
		},
		{
			Name:        "morph_save_final_overlay",
			Description: "Convert the original image to grayscale, set every pixel where the edge image is 255 to white, and save outlines/<sample>_<image_name>_final.tif. Also copied into intermediates when intermediate saving is enabled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the original color image",
					},
					"edge_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the single-channel edge image",
					},
					"image_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the source image",
					},
				},
				"required": []string{"image_path", "edge_path", "image_name"},
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
