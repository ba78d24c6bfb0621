package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "call_api",
			Description: "Call GIMP API procedures through the bridge. " +
				"Use api_path=\"exec\" with args[0] naming the console mode " +
				"(\"console-exec\" to run statements and capture output, " +
				"\"console-eval\" to evaluate expressions and return their values) " +
				"and args[1] holding the list of code fragments. " +
				"Fragments execute in a persistent namespace: imports and variables " +
				"from earlier calls remain visible to later ones.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"api_path": map[string]interface{}{
						"type":        "string",
						"description": "Procedure to call; \"exec\" routes to the command executor",
					},
					"args": map[string]interface{}{
						"type":        "array",
						"description": "Positional arguments; for exec: [mode, [fragment, ...]]",
					},
					"kwargs": map[string]interface{}{
						"type":        "object",
						"description": "Keyword arguments (rarely used)",
					},
				},
				"required": []string{"api_path"},
			},
		},
		{
			Name: "get_image_bitmap",
			Description: "Export the current GIMP image as a PNG. Optionally crop a region " +
				"(origin_x, origin_y, width, height must be given together; regions partly " +
				"outside the canvas are clipped) and scale the result with aspect-preserving " +
				"center-inside semantics. Without a region, max_width/max_height bound the " +
				"whole image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_width": map[string]interface{}{
						"type":        "integer",
						"description": "Bound for full-image scaling (1-8192); requires max_height",
					},
					"max_height": map[string]interface{}{
						"type":        "integer",
						"description": "Bound for full-image scaling (1-8192); requires max_width",
					},
					"origin_x": map[string]interface{}{
						"type":        "integer",
						"description": "Region left edge in source pixels",
					},
					"origin_y": map[string]interface{}{
						"type":        "integer",
						"description": "Region top edge in source pixels",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Region width in source pixels (1-8192)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Region height in source pixels (1-8192)",
					},
					"scaled_to_width": map[string]interface{}{
						"type":        "integer",
						"description": "Scale target for the cropped region; requires scaled_to_height",
					},
					"scaled_to_height": map[string]interface{}{
						"type":        "integer",
						"description": "Scale target for the cropped region; requires scaled_to_width",
					},
				},
			},
		},
		{
			Name: "get_image_metadata",
			Description: "Get metadata about the current GIMP image without pixel data: " +
				"dimensions, color mode, precision, resolution, dirty flag, layer/channel/path " +
				"structure, and the backing file if saved. Much faster than get_image_bitmap.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name: "get_gimp_info",
			Description: "Get information about the GIMP installation and environment: " +
				"version, directories, open-session summary, available bridge procedures, " +
				"current drawing-context values, and platform facts.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}
