package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/render"
)

var (
	gridSpecPath string
	gridSpec     = defaultGridSpec()
	gridOutput   string
	gridPNG      string
	gridDPI      float64
)

// defaultGridSpec is a US Letter sheet of 3 x 10 address labels.
func defaultGridSpec() render.GridSpec {
	return render.GridSpec{
		PageWidth:   612,
		PageHeight:  792,
		Rows:        10,
		Columns:     3,
		LabelWidth:  189,
		LabelHeight: 72,
		StartX:      13.5,
		StartY:      36,
		PitchX:      198,
		PitchY:      75,
		StrokeWidth: 0.5,
	}
}

var genGridCmd = &cobra.Command{
	Use:   "gen-grid",
	Short: "Generate a rectangular label grid page description",
	Long: `Generate a page description with one outlined rectangle per label.

The description (YAML, or JSON for a .json output) can be fed back to
extract, and --png also rasterises it for the raster detector. Grid
parameters come from flags or from a YAML file given with --spec.`,
	Args: cobra.NoArgs,
	RunE: runGenGrid,
}

func init() {
	f := genGridCmd.Flags()
	f.StringVar(&gridSpecPath, "spec", "", "YAML file with the grid parameters (flags set explicitly override it)")
	f.Float64Var(&gridSpec.PageWidth, "page-width", gridSpec.PageWidth, "Page width in points")
	f.Float64Var(&gridSpec.PageHeight, "page-height", gridSpec.PageHeight, "Page height in points")
	f.IntVar(&gridSpec.Rows, "rows", gridSpec.Rows, "Number of label rows")
	f.IntVar(&gridSpec.Columns, "cols", gridSpec.Columns, "Number of label columns")
	f.Float64Var(&gridSpec.LabelWidth, "label-width", gridSpec.LabelWidth, "Label width in points")
	f.Float64Var(&gridSpec.LabelHeight, "label-height", gridSpec.LabelHeight, "Label height in points")
	f.Float64Var(&gridSpec.StartX, "start-x", gridSpec.StartX, "Left edge of the first label in points")
	f.Float64Var(&gridSpec.StartY, "start-y", gridSpec.StartY, "Top edge of the first label in points")
	f.Float64Var(&gridSpec.PitchX, "pitch-x", gridSpec.PitchX, "Horizontal label pitch in points")
	f.Float64Var(&gridSpec.PitchY, "pitch-y", gridSpec.PitchY, "Vertical label pitch in points")
	f.Float64Var(&gridSpec.CornerRadius, "corner-radius", 0, "Label corner radius in points")
	f.Float64Var(&gridSpec.StrokeWidth, "stroke-width", gridSpec.StrokeWidth, "Outline stroke width in points")
	f.StringVarP(&gridOutput, "output", "o", "", "Page description output path (.yaml, .yml or .json)")
	f.StringVar(&gridPNG, "png", "", "Also rasterise the page to this PNG path")
	f.Float64Var(&gridDPI, "dpi", render.DefaultDPI, "Resolution of the PNG")

	_ = genGridCmd.MarkFlagRequired("output")
}

// loadGridSpec reads grid parameters from YAML and re-applies every flag the
// user set explicitly.
func loadGridSpec(cmd *cobra.Command) (render.GridSpec, error) {
	if gridSpecPath == "" {
		return gridSpec, nil
	}

	data, err := os.ReadFile(gridSpecPath)
	if err != nil {
		return render.GridSpec{}, fmt.Errorf("failed to read grid spec: %w", err)
	}
	spec := defaultGridSpec()
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return render.GridSpec{}, fmt.Errorf("failed to parse grid spec: %w", err)
	}

	overrides := map[string]func(){
		"page-width":    func() { spec.PageWidth = gridSpec.PageWidth },
		"page-height":   func() { spec.PageHeight = gridSpec.PageHeight },
		"rows":          func() { spec.Rows = gridSpec.Rows },
		"cols":          func() { spec.Columns = gridSpec.Columns },
		"label-width":   func() { spec.LabelWidth = gridSpec.LabelWidth },
		"label-height":  func() { spec.LabelHeight = gridSpec.LabelHeight },
		"start-x":       func() { spec.StartX = gridSpec.StartX },
		"start-y":       func() { spec.StartY = gridSpec.StartY },
		"pitch-x":       func() { spec.PitchX = gridSpec.PitchX },
		"pitch-y":       func() { spec.PitchY = gridSpec.PitchY },
		"corner-radius": func() { spec.CornerRadius = gridSpec.CornerRadius },
		"stroke-width":  func() { spec.StrokeWidth = gridSpec.StrokeWidth },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return spec, nil
}

func runGenGrid(cmd *cobra.Command, args []string) error {
	if gridOutput == "" {
		return fmt.Errorf("--output is required")
	}
	spec, err := loadGridSpec(cmd)
	if err != nil {
		return err
	}

	desc, err := spec.Description()
	if err != nil {
		return err
	}
	if err := render.SaveDescription(gridOutput, desc); err != nil {
		return err
	}
	wrote(cmd, "page description", gridOutput)

	if gridPNG == "" {
		return nil
	}
	doc, err := render.NewDescriptionDocument(desc)
	if err != nil {
		return err
	}
	rp, err := doc.Raster(0, gridDPI)
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(gridPNG, rp.Image); err != nil {
		return err
	}
	if logger != nil {
		logger.Debug("grid rasterised",
			zap.Float64("dpi", gridDPI),
			zap.Int("width", rp.Image.Bounds().Dx()),
			zap.Int("height", rp.Image.Bounds().Dy()))
	}
	wrote(cmd, "PNG", gridPNG)
	return nil
}
