package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// descriptorProperties are the optional image parameters shared by the tools
// that build a Descriptor.
func descriptorProperties() map[string]interface{} {
	return map[string]interface{}{
		"color": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"mono", "rgb", "cmyk", "yuv"},
			"description": "Colour model of the stored samples",
		},
		"components": map[string]interface{}{
			"type":        "integer",
			"description": "Samples per pixel. Defaults to 1 for mono, 3 for rgb and yuv, 4 for cmyk",
		},
		"depth": map[string]interface{}{
			"type":        "integer",
			"description": "Bits per sample, 1-16",
		},
		"plane": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"packed", "planar"},
			"description": "packed interleaves components per pixel; planar stores one plane per component",
		},
		"subsampling": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"444", "422", "420", "411", "410"},
			"description": "Chroma subsampling for yuv images",
		},
	}
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	writeProps := descriptorProperties()
	writeProps["sources"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Absolute paths of the source images (PNG, JPEG, GIF, BMP, WebP, TIFF). More than one source writes a multi-page file",
	}
	writeProps["output"] = stringProperty("Absolute path of the TIFF file to create")
	writeProps["software"] = stringProperty("Optional Software tag value")

	planProps := descriptorProperties()
	planProps["width"] = map[string]interface{}{
		"type":        "integer",
		"description": "Image width in pixels",
	}
	planProps["height"] = map[string]interface{}{
		"type":        "integer",
		"description": "Image height in pixels",
	}
	planProps["rows_per_strip"] = map[string]interface{}{
		"type":        "integer",
		"description": "Rows per strip. Default: 16 for yuv 420, 32 for yuv 410, otherwise the whole image in one strip",
	}
	planProps["component"] = map[string]interface{}{
		"type":        "integer",
		"description": "Component whose strips are listed for planar images. Default 0",
	}

	return []Tool{
		{
			Name:        "tiff_source_info",
			Description: "Load a source image and return its size, format and the TIFF layout that stores it without loss.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tiff_write",
			Description: "Convert source images to an uncompressed strip TIFF. Parameters not given follow the source image. Returns the strip layout and a BLAKE3 digest of the samples of every page.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": writeProps,
				"required":   []string{"sources", "output"},
			},
		},
		{
			Name:        "tiff_info",
			Description: "Read every page of a strip TIFF and report its parameters, chroma geometry, strip layout and sample digest.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProperty("Absolute path to the TIFF file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tiff_strip_plan",
			Description: "Compute the padded geometry and the strip sequence of an image without touching a file.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": planProps,
				"required":   []string{"width", "height", "color"},
			},
		},
		{
			Name:        "tiff_export",
			Description: "Decode one page of a strip TIFF and return it (or a region of it) as base64-encoded PNG, optionally saving the rendering to a file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProperty("Absolute path to the TIFF file"),
					"page": map[string]interface{}{
						"type":        "integer",
						"description": "Page number, 0-based. Default 0",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"full", "top-left", "top-right", "bottom-left", "bottom-right", "top-half", "bottom-half", "center"},
						"description": "Named region to export. Default full",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 0.5 to halve size). Default 1.0",
						"default":     1.0,
					},
					"output": stringProperty("Optional path to save the rendering; the format follows the extension"),
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
