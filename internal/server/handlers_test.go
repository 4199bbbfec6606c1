package server

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ironsheep/label-templator/internal/export"
	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/render"
)

// sheet is a 3x4 grid of 80x40pt labels on a 500x320pt page. The first
// label center is at (90, 90) points.
func sheet() render.GridSpec {
	return render.GridSpec{
		PageWidth: 500, PageHeight: 320,
		Rows: 3, Columns: 4,
		LabelWidth: 80, LabelHeight: 40,
		StartX: 50, StartY: 70,
		PitchX: 92, PitchY: 58,
		StrokeWidth: 0.5,
	}
}

// createSheetFile writes the sheet as a page description and returns its path.
func createSheetFile(t *testing.T) string {
	t.Helper()

	desc, err := sheet().Description()
	if err != nil {
		t.Fatalf("failed to build description: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	if err := render.SaveDescription(path, desc); err != nil {
		t.Fatalf("failed to save description: %v", err)
	}
	return path
}

// createSheetImage rasterises the sheet at dpi and saves it as a PNG.
func createSheetImage(t *testing.T, dpi float64) string {
	t.Helper()

	desc, err := sheet().Description()
	if err != nil {
		t.Fatalf("failed to build description: %v", err)
	}
	doc, err := render.NewDescriptionDocument(desc)
	if err != nil {
		t.Fatalf("failed to open description: %v", err)
	}
	rp, err := doc.Raster(0, dpi)
	if err != nil {
		t.Fatalf("failed to rasterise: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sheet.png")
	if err := imaging.SavePNG(path, rp.Image); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}
	return path
}

func newTestServer(t *testing.T) *Server {
	return New(nil, zaptest.NewLogger(t))
}

// callTool runs a tools/call request and returns the text payload, or the
// error response when the call failed.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) (string, *MCPError) {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("Result should hold one content item, got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	return content[0]["text"].(string), nil
}

// mustCall is callTool for calls expected to succeed; the payload is
// decoded into out.
func mustCall(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) {
	t.Helper()

	text, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %s: %v", name, mcpErr.Message, mcpErr.Data)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode %s result: %v", name, err)
	}
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{"name":`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	_, mcpErr := callTool(t, newTestServer(t), "image_ocr_full", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("expected error for unknown tool")
	}
	if mcpErr.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
	}
	if !strings.Contains(mcpErr.Data.(string), "unknown tool") {
		t.Errorf("Error data: got %v", mcpErr.Data)
	}
}

func TestTemplateExtract_Vector(t *testing.T) {
	s := newTestServer(t)
	path := createSheetFile(t)

	var res extractResult
	mustCall(t, s, "template_extract", map[string]interface{}{
		"path":        path,
		"coord_space": "points",
	}, &res)

	if res.Detector != "vector" {
		t.Errorf("detector: got %s, want vector", res.Detector)
	}
	if res.Source != path {
		t.Errorf("source: got %s, want %s", res.Source, path)
	}
	doc := res.Template
	if doc == nil {
		t.Fatal("template missing")
	}
	if len(doc.Centers) != 12 {
		t.Fatalf("centers: got %d, want 12", len(doc.Centers))
	}
	if doc.CentersCoordSpace != "points" {
		t.Errorf("coord space: got %s", doc.CentersCoordSpace)
	}
	if first := doc.Centers[0]; !near(first[0], 90, 1e-6) || !near(first[1], 90, 1e-6) {
		t.Errorf("first center: got %v, want [90 90]", first)
	}
	if doc.Grid.Rows != 3 || doc.Grid.Columns != 4 {
		t.Errorf("grid: got %dx%d, want 3x4", doc.Grid.Rows, doc.Grid.Columns)
	}
}

func TestTemplateExtract_DefaultCoordSpace(t *testing.T) {
	var res extractResult
	mustCall(t, newTestServer(t), "template_extract", map[string]interface{}{
		"path": createSheetFile(t),
	}, &res)

	if res.Template.CentersCoordSpace != "percent_width" {
		t.Errorf("coord space: got %s, want percent_width", res.Template.CentersCoordSpace)
	}
	// 90pt on a 500pt page is 18% of the width.
	if first := res.Template.Centers[0]; !near(first[0], 18, 1e-6) {
		t.Errorf("first center x: got %v, want 18", first[0])
	}
}

func TestTemplateExtract_RasterImage(t *testing.T) {
	var res extractResult
	mustCall(t, newTestServer(t), "template_extract", map[string]interface{}{
		"path":        createSheetImage(t, 200),
		"coord_space": "points",
	}, &res)

	if res.Detector != "raster" {
		t.Errorf("detector: got %s, want raster", res.Detector)
	}
	if len(res.Template.Centers) != 12 {
		t.Fatalf("centers: got %d, want 12", len(res.Template.Centers))
	}
	if first := res.Template.Centers[0]; !near(first[0], 90, 1) || !near(first[1], 90, 1) {
		t.Errorf("first center: got %v, want about [90 90]", first)
	}
}

func TestTemplateExtract_Errors(t *testing.T) {
	s := newTestServer(t)
	path := createSheetFile(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing path", map[string]interface{}{}, "path is required"},
		{"nonexistent file", map[string]interface{}{"path": "/nonexistent/sheet.yaml"}, "does not exist"},
		{"bad mode", map[string]interface{}{"path": path, "mode": "ocr"}, "unknown extraction mode"},
		{"bad coord space", map[string]interface{}{"path": path, "coord_space": "furlongs"}, "furlongs"},
		{"negative page", map[string]interface{}{"path": path, "page": -1}, "page must be >= 0"},
		{"page out of range", map[string]interface{}{"path": path, "page": 4}, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mcpErr := callTool(t, s, "template_extract", tt.args)
			if mcpErr == nil {
				t.Fatal("expected an error")
			}
			if mcpErr.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", mcpErr.Code)
			}
			if data, _ := mcpErr.Data.(string); !strings.Contains(data, tt.want) {
				t.Errorf("Error data: got %q, want it to contain %q", data, tt.want)
			}
		})
	}
}

func TestTemplateExtractBatch(t *testing.T) {
	var res batchResult
	mustCall(t, newTestServer(t), "template_extract_batch", map[string]interface{}{
		"paths": []string{createSheetFile(t), "/nonexistent/sheet.yaml"},
	}, &res)

	if res.Succeeded != 1 || res.Failed != 1 {
		t.Fatalf("succeeded/failed: got %d/%d, want 1/1", res.Succeeded, res.Failed)
	}
	if len(res.Results) != 2 {
		t.Fatalf("results: got %d, want 2", len(res.Results))
	}
	if res.Results[0].Template == nil || res.Results[0].Detector != "vector" {
		t.Errorf("first result: got %+v", res.Results[0])
	}
	if res.Results[1].Error == "" || res.Results[1].Template != nil {
		t.Errorf("second result should carry only an error: %+v", res.Results[1])
	}
}

func TestTemplateExtractBatch_Empty(t *testing.T) {
	_, mcpErr := callTool(t, newTestServer(t), "template_extract_batch", map[string]interface{}{})
	if mcpErr == nil {
		t.Fatal("expected an error for empty paths")
	}
}

func TestTemplateExportAndLoad(t *testing.T) {
	s := newTestServer(t)
	path := createSheetFile(t)
	dir := t.TempDir()

	jsonOut := filepath.Join(dir, "out", "sheet.json")
	var exported exportResult
	mustCall(t, s, "template_export", map[string]interface{}{
		"path":   path,
		"output": jsonOut,
	}, &exported)
	if exported.Format != "json" || exported.Labels != 12 {
		t.Errorf("export result: got %+v", exported)
	}

	var loaded export.Document
	mustCall(t, s, "template_load", map[string]interface{}{
		"path":        jsonOut,
		"coord_space": "points",
	}, &loaded)
	if len(loaded.Centers) != 12 {
		t.Fatalf("loaded centers: got %d, want 12", len(loaded.Centers))
	}
	if first := loaded.Centers[0]; !near(first[0], 90, 1e-6) || !near(first[1], 90, 1e-6) {
		t.Errorf("loaded first center: got %v, want [90 90]", first)
	}

	csvOut := filepath.Join(dir, "sheet.csv")
	mustCall(t, s, "template_export", map[string]interface{}{
		"path":   path,
		"output": csvOut,
	}, &exported)
	if exported.Format != "csv" {
		t.Errorf("format inferred from extension: got %s, want csv", exported.Format)
	}
	data, err := os.ReadFile(csvOut)
	if err != nil {
		t.Fatalf("failed to read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 13 || lines[0] != "x,y,coord_space" {
		t.Errorf("csv: got %d lines, header %q", len(lines), lines[0])
	}
}

func TestTemplateExport_BadFormat(t *testing.T) {
	_, mcpErr := callTool(t, newTestServer(t), "template_export", map[string]interface{}{
		"path":   createSheetFile(t),
		"output": filepath.Join(t.TempDir(), "sheet.xml"),
		"format": "xml",
	})
	if mcpErr == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestTemplateSynthesizeCircles(t *testing.T) {
	var doc export.Document
	mustCall(t, newTestServer(t), "template_synthesize_circles", map[string]interface{}{
		"layout":      "simple",
		"diameter":    36,
		"gap":         12,
		"margin":      []float64{36},
		"coord_space": "points",
	}, &doc)

	if len(doc.Centers) != 165 {
		t.Errorf("centers: got %d, want 165", len(doc.Centers))
	}
	if doc.Grid.Rows != 15 {
		t.Errorf("rows: got %d, want 15", doc.Grid.Rows)
	}
	if doc.Page.WidthPt != 612 || doc.Page.HeightPt != 792 {
		t.Errorf("page: got %+v, want US Letter", doc.Page)
	}
	if doc.Label.Shape != "circle" {
		t.Errorf("shape: got %s, want circle", doc.Label.Shape)
	}
	// First center sits one margin plus one radius in from the corner.
	if first := doc.Centers[0]; !near(first[0], 54, 1e-6) || !near(first[1], 54, 1e-6) {
		t.Errorf("first center: got %v, want [54 54]", first)
	}
}

func TestTemplateSynthesizeCircles_Errors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"bad layout", map[string]interface{}{"layout": "hex", "diameter": 36}},
		{"zero diameter", map[string]interface{}{"layout": "simple"}},
		{"two margins", map[string]interface{}{"layout": "simple", "diameter": 36, "margin": []float64{1, 2}}},
		{"too large", map[string]interface{}{"layout": "close", "diameter": 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, mcpErr := callTool(t, s, "template_synthesize_circles", tt.args); mcpErr == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseMargins(t *testing.T) {
	m, err := parseMargins([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("parseMargins: %v", err)
	}
	if m.Top != 1 || m.Right != 2 || m.Bottom != 3 || m.Left != 4 {
		t.Errorf("margins: got %+v", m)
	}
	if m, _ := parseMargins(nil); m.Top != 0 || m.Left != 0 {
		t.Errorf("empty margins: got %+v", m)
	}
}

func TestTemplateConvert(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name         string
		args         map[string]interface{}
		wantX, wantY float64
	}{
		{"points to inches", map[string]interface{}{"x": 72, "y": 144, "from": "points", "to": "inches"}, 1, 2},
		{"inches to mm", map[string]interface{}{"x": 1, "y": 0.5, "from": "inches", "to": "mm"}, 25.4, 12.7},
		{"points to percent", map[string]interface{}{"x": 50, "y": 100, "from": "points", "to": "percent_width", "page_width": 500}, 10, 20},
		{"percent to points", map[string]interface{}{"x": 10, "y": 20, "from": "percent_width", "to": "points", "page_width": 500}, 50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res convertResult
			mustCall(t, s, "template_convert", tt.args, &res)
			if !near(res.X, tt.wantX, 1e-9) || !near(res.Y, tt.wantY, 1e-9) {
				t.Errorf("got (%v, %v), want (%v, %v)", res.X, res.Y, tt.wantX, tt.wantY)
			}
			if res.CoordSpace != tt.args["to"] {
				t.Errorf("coord space: got %s, want %v", res.CoordSpace, tt.args["to"])
			}
		})
	}

	if _, mcpErr := callTool(t, s, "template_convert", map[string]interface{}{
		"x": 1, "y": 1, "from": "points", "to": "percent_width",
	}); mcpErr == nil {
		t.Error("percent_width without page_width should fail")
	}
}

func TestTemplateOverlay(t *testing.T) {
	var res imaging.OverlayResult
	mustCall(t, newTestServer(t), "template_overlay", map[string]interface{}{
		"path": createSheetFile(t),
		"dpi":  72,
	}, &res)

	if res.Labels != 12 {
		t.Errorf("labels: got %d, want 12", res.Labels)
	}
	if res.Width != 500 || res.Height != 320 {
		t.Errorf("size: got %dx%d, want 500x320", res.Width, res.Height)
	}
	if res.MimeType != "image/png" || res.ImageBase64 == "" {
		t.Errorf("image payload missing: %+v", res.MimeType)
	}
}

func TestTemplateCropLabel(t *testing.T) {
	s := newTestServer(t)
	path := createSheetFile(t)

	var res imaging.CropResult
	mustCall(t, s, "template_crop_label", map[string]interface{}{
		"path":  path,
		"index": 5,
		"dpi":   72,
	}, &res)
	if res.Index != 5 {
		t.Errorf("index: got %d, want 5", res.Index)
	}
	if res.Width != 80 || res.Height != 40 {
		t.Errorf("crop size: got %dx%d, want 80x40", res.Width, res.Height)
	}

	if _, mcpErr := callTool(t, s, "template_crop_label", map[string]interface{}{
		"path":  path,
		"index": 12,
	}); mcpErr == nil {
		t.Error("expected an error for an index past the last label")
	}
}

func TestImageEdgeMap(t *testing.T) {
	var res imaging.EdgeMapResult
	mustCall(t, newTestServer(t), "image_edge_map", map[string]interface{}{
		"path": createSheetFile(t),
		"dpi":  144,
	}, &res)

	if res.Width != 1000 || res.Height != 640 {
		t.Errorf("size: got %dx%d, want 1000x640", res.Width, res.Height)
	}
	if res.EdgePixels == 0 {
		t.Error("expected edge pixels along the label outlines")
	}
}

func TestTemplatePageInfo(t *testing.T) {
	s := newTestServer(t)

	var info pageInfoResult
	mustCall(t, s, "template_page_info", map[string]interface{}{"path": createSheetFile(t)}, &info)
	if info.Pages != 1 || info.Drawings != 12 {
		t.Errorf("description info: got %+v", info)
	}
	if info.WidthPt != 500 || info.HeightPt != 320 {
		t.Errorf("page size: got %vx%v, want 500x320", info.WidthPt, info.HeightPt)
	}
	if info.Image != nil {
		t.Error("page descriptions carry no image info")
	}

	info = pageInfoResult{}
	mustCall(t, s, "template_page_info", map[string]interface{}{
		"path": createSheetImage(t, 144),
		"dpi":  144,
	}, &info)
	if info.Image == nil {
		t.Fatal("image info missing")
	}
	if info.Image.Width != 1000 || info.Image.Height != 640 || info.Image.Format != "png" {
		t.Errorf("image info: got %+v", info.Image)
	}
	if !near(info.WidthPt, 500, 1e-9) || info.Drawings != 0 {
		t.Errorf("image page info: got %+v", info)
	}
}
