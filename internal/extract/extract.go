// Package extract chooses and runs the template detectors for a source
// document.
//
// In auto mode the vector detector runs first and the raster detector is
// tried when it fails or finds nothing. Image sources carry no vector
// drawings, so auto mode always ends up on the raster path for them.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/label-templator/internal/config"
	"github.com/ironsheep/label-templator/internal/detection"
	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/logging"
	"github.com/ironsheep/label-templator/internal/render"
	"github.com/ironsheep/label-templator/internal/template"
)

// Mode selects the detectors to run.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeVector Mode = "vector"
	ModeRaster Mode = "raster"
)

// ParseMode validates a mode name. An empty name is auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeVector:
		return ModeVector, nil
	case ModeRaster:
		return ModeRaster, nil
	}
	return "", fmt.Errorf("%w: unknown extraction mode %q (valid: auto, vector, raster)", template.ErrInvalidParameter, s)
}

// Options configures a single extraction.
type Options struct {
	Mode Mode
	Page int

	// DPI is used both to rasterise vector pages and to size image pages.
	// Zero means render.DefaultDPI.
	DPI float64

	Vector detection.VectorOptions

	// DebugDir, when set, receives the edge mask and a template overlay of
	// every raster attempt as PNG files named <source>_page<N>_edges.png and
	// <source>_page<N>_overlay.png, where <source> is the file name of the
	// source without its extension.
	DebugDir string

	// debugName is the source stem used to prefix debug files.
	debugName string
}

// DefaultOptions returns auto mode on page 0 at the default resolution.
func DefaultOptions() Options {
	return Options{
		Mode:   ModeAuto,
		DPI:    render.DefaultDPI,
		Vector: detection.DefaultVectorOptions,
	}
}

// OptionsFromConfig builds extraction options from the extract section of a
// configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return DefaultOptions(), nil
	}
	mode, err := ParseMode(cfg.Extract.Mode)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Mode:   mode,
		Page:   cfg.Extract.Page,
		DPI:    cfg.Extract.DPI,
		Vector: detection.VectorOptions{DedupeTolerancePt: cfg.Extract.DedupeTolerancePt},
	}, nil
}

// Result is a successful extraction.
type Result struct {
	Template *template.Template
	// Detector is the detector that produced the template (vector or raster).
	Detector Mode
	Source   string
	Page     int
}

// Extractor opens sources and runs the detectors.
type Extractor struct {
	logger *zap.Logger
	cache  *imaging.ImageCache
}

// New returns an Extractor. A nil logger discards log output; a nil cache
// disables image caching across calls.
func New(logger *zap.Logger, cache *imaging.ImageCache) *Extractor {
	return &Extractor{logger: logging.OrNop(logger), cache: cache}
}

// ExtractFile opens the source at path and extracts a template from the
// requested page.
func (e *Extractor) ExtractFile(ctx context.Context, path string, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	opts.debugName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := render.Open(path, render.Options{DPI: opts.DPI, Cache: e.cache})
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	res, err := e.Extract(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Source = path
	return res, nil
}

// Extract runs the detectors selected by opts.Mode on an open document.
//
// A negative result from every attempted detector returns an error wrapping
// template.ErrNoTemplate. When both detectors ran, the error carries both
// outcomes.
func (e *Extractor) Extract(ctx context.Context, doc render.Document, opts Options) (*Result, error) {
	opts = withDefaults(opts)
	if opts.DPI <= 0 {
		return nil, fmt.Errorf("%w: dpi must be positive, got %g", template.ErrInvalidParameter, opts.DPI)
	}

	var vectorErr error
	if opts.Mode == ModeAuto || opts.Mode == ModeVector {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tpl, err := e.tryVector(doc, opts)
		if err == nil {
			return &Result{Template: tpl, Detector: ModeVector, Page: opts.Page}, nil
		}
		vectorErr = err
		if opts.Mode == ModeVector {
			return nil, vectorErr
		}
		e.logger.Info("vector extraction did not produce a template, falling back to raster",
			zap.Int("page", opts.Page),
			zap.Error(err))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, rasterErr := e.tryRaster(doc, opts)
	if rasterErr == nil {
		return &Result{Template: tpl, Detector: ModeRaster, Page: opts.Page}, nil
	}
	if vectorErr == nil {
		return nil, rasterErr
	}
	return nil, fmt.Errorf("no template could be extracted from the provided source: %w; %w", vectorErr, rasterErr)
}

func (e *Extractor) tryVector(doc render.Document, opts Options) (*template.Template, error) {
	vp, err := doc.Vector(opts.Page)
	if err != nil {
		return nil, fmt.Errorf("vector extraction failed: %w", err)
	}
	tpl, err := detection.DetectVector(vp, opts.Vector)
	if err != nil {
		return nil, describe("vector", err)
	}
	e.logger.Debug("vector template extracted",
		zap.Int("drawings", len(vp.Drawings)),
		zap.Int("centers", tpl.CenterCount()))
	return tpl, nil
}

func (e *Extractor) tryRaster(doc render.Document, opts Options) (*template.Template, error) {
	rp, err := doc.Raster(opts.Page, opts.DPI)
	if err != nil {
		return nil, fmt.Errorf("raster extraction failed: %w", err)
	}
	tpl, err := detection.DetectRaster(rp)
	if opts.DebugDir != "" {
		if derr := e.writeDebug(opts, rp, tpl); derr != nil {
			e.logger.Warn("failed to write debug images", zap.Error(derr))
		}
	}
	if err != nil {
		return nil, describe("raster", err)
	}
	e.logger.Debug("raster template extracted",
		zap.Float64("dpi", rp.DPI),
		zap.Int("centers", tpl.CenterCount()))
	return tpl, nil
}

// describe labels a detector error as a negative result or a failure.
func describe(detector string, err error) error {
	if errors.Is(err, template.ErrNoTemplate) {
		return fmt.Errorf("%s extraction yielded no template: %w", detector, err)
	}
	return fmt.Errorf("%s extraction failed: %w", detector, err)
}

// writeDebug saves the edge mask and, when a template was found, an
// overlay of it on the page raster.
func (e *Extractor) writeDebug(opts Options, rp *render.RasterPage, tpl *template.Template) error {
	if err := os.MkdirAll(opts.DebugDir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("page%d", opts.Page)
	if opts.debugName != "" {
		name = opts.debugName + "_" + name
	}
	prefix := filepath.Join(opts.DebugDir, name)

	mask, _ := detection.EdgeMask(imaging.Grayscale(rp.Image, rp.Luma))
	if err := imaging.SavePNG(prefix+"_edges.png", imaging.MaskImage(mask)); err != nil {
		return err
	}
	if tpl == nil {
		return nil
	}
	overlay, err := imaging.DrawOverlay(rp.Image, tpl, rp.DPI, imaging.DefaultOverlayColor)
	if err != nil {
		return err
	}
	return imaging.SavePNG(prefix+"_overlay.png", overlay)
}

func withDefaults(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.DPI == 0 {
		opts.DPI = render.DefaultDPI
	}
	return opts
}
