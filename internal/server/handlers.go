package server

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ironsheep/tiffstrip/internal/imaging"
	"github.com/ironsheep/tiffstrip/internal/pipeline"
	"github.com/ironsheep/tiffstrip/internal/stripio"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tiff_write", "tiff_info").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	if s.debug {
		log.Printf("tools/call %s %s (%d cached sources)", params.Name, params.Arguments, s.cache.Len())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("tools/call %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "tiff_source_info":
		return s.handleSourceInfo(args)
	case "tiff_write":
		return s.handleWrite(args)
	case "tiff_info":
		return s.handleInfo(args)
	case "tiff_strip_plan":
		return s.handleStripPlan(args)
	case "tiff_export":
		return s.handleExport(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// descriptorArgs are the optional Descriptor fields a tool call may set.
// The enum fields decode from their text names.
type descriptorArgs struct {
	Color       *stripio.ColorModel  `json:"color"`
	Components  *uint16              `json:"components"`
	Depth       *uint16              `json:"depth"`
	Plane       *stripio.PlaneLayout `json:"plane"`
	Subsampling *stripio.Subsampling `json:"subsampling"`
}

// apply overrides d with the fields that were given. Changing the colour
// model without naming a component count picks the model's default count.
func (a descriptorArgs) apply(d stripio.Descriptor) stripio.Descriptor {
	if a.Color != nil && *a.Color != d.Color {
		d.Color = *a.Color
		d.Components = imaging.Components(d.Color)
		if d.Color == stripio.YUV && d.Subsampling == stripio.SubsamplingError {
			d.Subsampling = stripio.YUV444
		}
	}
	if a.Components != nil {
		d.Components = *a.Components
	}
	if a.Depth != nil {
		d.Depth = *a.Depth
	}
	if a.Plane != nil {
		d.Plane = *a.Plane
	}
	if a.Subsampling != nil {
		d.Subsampling = *a.Subsampling
	}
	return d
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSourceInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.Describe(s.cache, a.Path)
}

type writeArgs struct {
	descriptorArgs
	Sources  []string `json:"sources"`
	Output   string   `json:"output"`
	Software string   `json:"software"`
}

func (s *Server) handleWrite(args json.RawMessage) (interface{}, error) {
	var a writeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output path is required")
	}

	pages := make([]pipeline.Page, 0, len(a.Sources))
	for _, src := range a.Sources {
		img, err := s.cache.Load(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src, err)
		}
		pages = append(pages, pipeline.Page{
			Image:      img,
			Descriptor: a.apply(imaging.SuggestDescriptor(img)),
		})
	}

	res, err := pipeline.Write(a.Output, pages, pipeline.Options{Software: a.Software})
	if err != nil {
		return nil, err
	}
	// A written TIFF may be used as a source later.
	s.cache.Evict(a.Output)
	return res, nil
}

func (s *Server) handleInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return pipeline.Inspect(a.Path)
}

type stripPlanArgs struct {
	descriptorArgs
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
	RowsPerStrip int    `json:"rows_per_strip"`
	Component    int    `json:"component"`
}

// StripPlanResult is the layout of an image that has not been written.
type StripPlanResult struct {
	Descriptor   stripio.Descriptor `json:"descriptor"`
	Geometry     stripio.Geometry   `json:"geometry"`
	RowsPerStrip int                `json:"rows_per_strip"`
	Component    int                `json:"component"`
	Strips       []stripio.Strip    `json:"strips"`
	TotalSamples int                `json:"total_samples"`
	TotalBytes   int                `json:"total_bytes"`
}

func (s *Server) handleStripPlan(args json.RawMessage) (interface{}, error) {
	var a stripPlanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	d := stripio.NewDescriptor()
	d.Width, d.Height, d.Depth = a.Width, a.Height, 8
	d = a.apply(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	g := d.Geometry()

	rows := a.RowsPerStrip
	if rows == 0 {
		if policy, ok := stripio.RowsPerStripPolicy(d.Color, d.Subsampling); ok {
			rows = policy
		} else if d.Plane == stripio.Planar {
			rows = int(d.Height)
		} else {
			rows = g.PaddedHeight
		}
	}

	height := g.PaddedHeight
	if d.Plane == stripio.Planar {
		height = int(d.Height)
	}
	numberOfStrips := 0
	if rows > 0 {
		numberOfStrips = (height-1)/rows + 1
		if d.Plane == stripio.Planar {
			numberOfStrips *= int(d.Components)
		}
	}

	strips, err := stripio.Plan(d, rows, numberOfStrips, a.Component)
	if err != nil {
		return nil, err
	}

	samples := stripio.PlanSamples(strips)
	bytesPerSample := 1
	if d.Depth > 8 {
		bytesPerSample = 2
	}
	return &StripPlanResult{
		Descriptor:   d,
		Geometry:     g,
		RowsPerStrip: rows,
		Component:    a.Component,
		Strips:       strips,
		TotalSamples: samples,
		TotalBytes:   samples * bytesPerSample,
	}, nil
}

type exportArgs struct {
	Path   string  `json:"path"`
	Page   int     `json:"page"`
	Region string  `json:"region"`
	Scale  float64 `json:"scale"`
	Output string  `json:"output"`
}

// ExportResult is a rendered page plus the summary of the page it came from.
type ExportResult struct {
	Page    *pipeline.PageSummary  `json:"page"`
	Preview *imaging.PreviewResult `json:"preview"`
	Saved   string                 `json:"saved,omitempty"`
}

func (s *Server) handleExport(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	img, sum, err := pipeline.Read(a.Path, a.Page)
	if err != nil {
		return nil, err
	}
	region, err := imaging.NamedRegion(img.Bounds(), a.Region)
	if err != nil {
		return nil, err
	}
	preview, err := imaging.Preview(img, &region, a.Scale)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{Page: sum, Preview: preview}
	if a.Output != "" {
		out, err := imaging.Crop(img, &region, a.Scale)
		if err != nil {
			return nil, err
		}
		if err := imaging.Save(out, a.Output); err != nil {
			return nil, err
		}
		s.cache.Evict(a.Output)
		res.Saved = a.Output
	}
	return res, nil
}
