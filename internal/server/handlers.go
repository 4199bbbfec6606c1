package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/label-templator/internal/detection"
	"github.com/ironsheep/label-templator/internal/export"
	"github.com/ironsheep/label-templator/internal/extract"
	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/lattice"
	"github.com/ironsheep/label-templator/internal/render"
	"github.com/ironsheep/label-templator/internal/template"
)

// US Letter, used when a synthesis request omits the page size.
const (
	defaultPageWidthPt  = 612
	defaultPageHeightPt = 792
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "template_extract").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Template Extraction
	case "template_extract":
		return s.handleTemplateExtract(ctx, args)
	case "template_extract_batch":
		return s.handleTemplateExtractBatch(ctx, args)
	case "template_export":
		return s.handleTemplateExport(ctx, args)
	case "template_load":
		return s.handleTemplateLoad(args)

	// Template Synthesis
	case "template_synthesize_circles":
		return s.handleTemplateSynthesizeCircles(args)

	// Coordinate Conversion
	case "template_convert":
		return s.handleTemplateConvert(args)

	// Visual Verification
	case "template_overlay":
		return s.handleTemplateOverlay(ctx, args)
	case "template_crop_label":
		return s.handleTemplateCropLabel(ctx, args)
	case "image_edge_map":
		return s.handleImageEdgeMap(args)
	case "template_page_info":
		return s.handlePageInfo(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// sourceArgs are the arguments shared by every tool that reads a source.
type sourceArgs struct {
	Path string  `json:"path"`
	Page int     `json:"page"`
	Mode string  `json:"mode"`
	DPI  float64 `json:"dpi"`
}

// options merges the request over the configured extraction defaults.
func (s *Server) options(a sourceArgs) (extract.Options, error) {
	opts, err := extract.OptionsFromConfig(s.cfg)
	if err != nil {
		return extract.Options{}, err
	}
	if a.Mode != "" {
		if opts.Mode, err = extract.ParseMode(a.Mode); err != nil {
			return extract.Options{}, err
		}
	}
	if a.DPI != 0 {
		opts.DPI = a.DPI
	}
	if a.Page < 0 {
		return extract.Options{}, fmt.Errorf("%w: page must be >= 0, got %d", template.ErrInvalidParameter, a.Page)
	}
	opts.Page = a.Page
	return opts, nil
}

// coordSpace resolves the requested coordinate space, defaulting to the
// configured output space.
func (s *Server) coordSpace(name string) (template.CoordSpace, error) {
	if name == "" {
		name = s.cfg.Output.CoordSpace
	}
	return template.ParseCoordSpace(name)
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: path is required", template.ErrInvalidParameter)
	}
	return nil
}

// openSource opens the document named by a and renders the requested page.
func (s *Server) openSource(a sourceArgs, opts extract.Options) (render.Document, error) {
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return render.Open(a.Path, render.Options{DPI: opts.DPI, Cache: s.cache})
}

// renderAndExtract extracts a template from the source and returns it with
// the page raster it refers to.
func (s *Server) renderAndExtract(ctx context.Context, a sourceArgs) (*render.RasterPage, *extract.Result, error) {
	opts, err := s.options(a)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.openSource(a, opts)
	if err != nil {
		return nil, nil, err
	}
	defer doc.Close()

	res, err := s.extractor.Extract(ctx, doc, opts)
	if err != nil {
		return nil, nil, err
	}
	rp, err := doc.Raster(opts.Page, opts.DPI)
	if err != nil {
		return nil, nil, err
	}
	return rp, res, nil
}

// === Template Extraction Handlers ===

type templateExtractArgs struct {
	sourceArgs
	CoordSpace        string   `json:"coord_space"`
	DedupeTolerancePt *float64 `json:"dedupe_tolerance_pt"`
}

type extractResult struct {
	Source   string           `json:"source"`
	Page     int              `json:"page"`
	Detector string           `json:"detector"`
	Template *export.Document `json:"template"`
}

func (s *Server) handleTemplateExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	opts, err := s.options(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	if a.DedupeTolerancePt != nil {
		opts.Vector.DedupeTolerancePt = *a.DedupeTolerancePt
	}
	space, err := s.coordSpace(a.CoordSpace)
	if err != nil {
		return nil, err
	}

	res, err := s.extractor.ExtractFile(ctx, a.Path, opts)
	if err != nil {
		return nil, err
	}
	doc, err := export.NewDocument(res.Template, space)
	if err != nil {
		return nil, err
	}
	return &extractResult{
		Source:   res.Source,
		Page:     res.Page,
		Detector: string(res.Detector),
		Template: doc,
	}, nil
}

type templateExtractBatchArgs struct {
	Paths      []string `json:"paths"`
	Page       int      `json:"page"`
	Mode       string   `json:"mode"`
	DPI        float64  `json:"dpi"`
	CoordSpace string   `json:"coord_space"`
}

type batchItem struct {
	Source   string           `json:"source"`
	Detector string           `json:"detector,omitempty"`
	Template *export.Document `json:"template,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type batchResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []batchItem `json:"results"`
}

func (s *Server) handleTemplateExtractBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateExtractBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("%w: paths must not be empty", template.ErrInvalidParameter)
	}
	opts, err := s.options(sourceArgs{Page: a.Page, Mode: a.Mode, DPI: a.DPI})
	if err != nil {
		return nil, err
	}
	space, err := s.coordSpace(a.CoordSpace)
	if err != nil {
		return nil, err
	}

	results, err := s.extractor.Batch(ctx, a.Paths, opts, s.cfg.Batch.Concurrency)
	if err != nil {
		return nil, err
	}

	out := &batchResult{Results: make([]batchItem, len(results))}
	for i, r := range results {
		item := batchItem{Source: r.Source}
		if r.Err == nil {
			item.Detector = string(r.Result.Detector)
			item.Template, r.Err = export.NewDocument(r.Result.Template, space)
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
			item.Detector = ""
			item.Template = nil
			out.Failed++
		} else {
			out.Succeeded++
		}
		out.Results[i] = item
	}
	return out, nil
}

type templateExportArgs struct {
	sourceArgs
	CoordSpace string `json:"coord_space"`
	Output     string `json:"output"`
	Format     string `json:"format"`
}

type exportResult struct {
	Output   string `json:"output"`
	Format   string `json:"format"`
	Labels   int    `json:"labels"`
	Detector string `json:"detector"`
}

func (s *Server) handleTemplateExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("%w: output is required", template.ErrInvalidParameter)
	}
	format := strings.ToLower(a.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(a.Output)), ".")
		if format != "csv" {
			format = "json"
		}
	}
	if format != "json" && format != "csv" {
		return nil, fmt.Errorf("%w: unsupported export format %q (valid: json, csv)", template.ErrInvalidParameter, a.Format)
	}
	opts, err := s.options(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	space, err := s.coordSpace(a.CoordSpace)
	if err != nil {
		return nil, err
	}

	res, err := s.extractor.ExtractFile(ctx, a.Path, opts)
	if err != nil {
		return nil, err
	}
	if format == "csv" {
		err = export.SaveCSV(a.Output, res.Template, space)
	} else {
		err = export.SaveJSON(a.Output, res.Template, space, s.cfg.Output.Indent)
	}
	if err != nil {
		return nil, err
	}
	return &exportResult{
		Output:   a.Output,
		Format:   format,
		Labels:   res.Template.CenterCount(),
		Detector: string(res.Detector),
	}, nil
}

type templateLoadArgs struct {
	Path       string `json:"path"`
	CoordSpace string `json:"coord_space"`
}

func (s *Server) handleTemplateLoad(args json.RawMessage) (interface{}, error) {
	var a templateLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	space, err := s.coordSpace(a.CoordSpace)
	if err != nil {
		return nil, err
	}
	tpl, err := export.LoadJSON(a.Path)
	if err != nil {
		return nil, err
	}
	return export.NewDocument(tpl, space)
}

// === Template Synthesis Handlers ===

type templateSynthesizeCirclesArgs struct {
	Layout     string    `json:"layout"`
	PageWidth  float64   `json:"page_width"`
	PageHeight float64   `json:"page_height"`
	Diameter   float64   `json:"diameter"`
	Gap        float64   `json:"gap"`
	Margin     []float64 `json:"margin"`
	MaxCols    int       `json:"max_cols"`
	MaxRows    int       `json:"max_rows"`
	CoordSpace string    `json:"coord_space"`
}

// parseMargins accepts no value, one value for every side, or four values
// in top, right, bottom, left order.
func parseMargins(m []float64) (lattice.Margins, error) {
	switch len(m) {
	case 0:
		return lattice.Margins{}, nil
	case 1:
		return lattice.UniformMargins(m[0]), nil
	case 4:
		return lattice.Margins{Top: m[0], Right: m[1], Bottom: m[2], Left: m[3]}, nil
	default:
		return lattice.Margins{}, fmt.Errorf("%w: margin takes 1 or 4 values, got %d", template.ErrInvalidParameter, len(m))
	}
}

func (s *Server) handleTemplateSynthesizeCircles(args json.RawMessage) (interface{}, error) {
	var a templateSynthesizeCirclesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.PageWidth == 0 {
		a.PageWidth = defaultPageWidthPt
	}
	if a.PageHeight == 0 {
		a.PageHeight = defaultPageHeightPt
	}
	layout, err := lattice.ParseLayout(a.Layout)
	if err != nil {
		return nil, err
	}
	margins, err := parseMargins(a.Margin)
	if err != nil {
		return nil, err
	}
	space, err := s.coordSpace(a.CoordSpace)
	if err != nil {
		return nil, err
	}

	tpl, err := lattice.Synthesize(lattice.Params{
		Layout:     layout,
		PageWidth:  a.PageWidth,
		PageHeight: a.PageHeight,
		Diameter:   a.Diameter,
		Gap:        a.Gap,
		Margins:    margins,
		MaxCols:    a.MaxCols,
		MaxRows:    a.MaxRows,
	})
	if err != nil {
		return nil, err
	}
	return export.NewDocument(tpl, space)
}

// === Coordinate Conversion Handlers ===

type templateConvertArgs struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	PageWidth float64 `json:"page_width"`
}

type convertResult struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	CoordSpace string  `json:"coord_space"`
}

func (s *Server) handleTemplateConvert(args json.RawMessage) (interface{}, error) {
	var a templateConvertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	from, err := template.ParseCoordSpace(a.From)
	if err != nil {
		return nil, err
	}
	to, err := template.ParseCoordSpace(a.To)
	if err != nil {
		return nil, err
	}
	p, err := template.Convert(template.Point{X: a.X, Y: a.Y}, from, to, a.PageWidth)
	if err != nil {
		return nil, err
	}
	return &convertResult{X: p.X, Y: p.Y, CoordSpace: string(to)}, nil
}

// === Visual Verification Handlers ===

type templateOverlayArgs struct {
	sourceArgs
	Color string `json:"color"`
}

func (s *Server) handleTemplateOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	rp, res, err := s.renderAndExtract(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(rp.Image, res.Template, rp.DPI, a.Color)
}

type templateCropLabelArgs struct {
	sourceArgs
	Index int     `json:"index"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleTemplateCropLabel(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a templateCropLabelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	rp, res, err := s.renderAndExtract(ctx, a.sourceArgs)
	if err != nil {
		return nil, err
	}
	return imaging.CropLabel(rp.Image, res.Template, a.Index, rp.DPI, a.Scale)
}

func (s *Server) handleImageEdgeMap(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.options(a)
	if err != nil {
		return nil, err
	}
	doc, err := s.openSource(a, opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	rp, err := doc.Raster(opts.Page, opts.DPI)
	if err != nil {
		return nil, err
	}
	mask, _ := detection.EdgeMask(imaging.Grayscale(rp.Image, rp.Luma))
	return imaging.EncodeEdgeMap(mask)
}

type pageInfoResult struct {
	Pages    int                `json:"pages"`
	Page     int                `json:"page"`
	WidthPt  float64            `json:"width_pt"`
	HeightPt float64            `json:"height_pt"`
	Drawings int                `json:"drawings"`
	Image    *imaging.ImageInfo `json:"image,omitempty"`
}

func (s *Server) handlePageInfo(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.options(a)
	if err != nil {
		return nil, err
	}
	doc, err := s.openSource(a, opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	vp, err := doc.Vector(opts.Page)
	if err != nil {
		return nil, err
	}
	info := &pageInfoResult{
		Pages:    doc.PageCount(),
		Page:     opts.Page,
		WidthPt:  vp.Page.WidthPt,
		HeightPt: vp.Page.HeightPt,
		Drawings: len(vp.Drawings),
	}
	if imaging.IsImageExt(strings.ToLower(filepath.Ext(a.Path))) {
		if info.Image, err = imaging.LoadImageInfo(s.cache, a.Path, opts.DPI); err != nil {
			return nil, err
		}
	}
	return info, nil
}
