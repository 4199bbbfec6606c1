package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/label-templator/internal/lattice"
)

var (
	synthPageWidth  float64
	synthPageHeight float64
	synthDiameter   float64
	synthGap        float64
	synthMargin     []float64
	synthMaxCols    int
	synthMaxRows    int
	synthOutput     outputFlags
)

var synthCmd = &cobra.Command{
	Use:   "synthesize-circles <simple|close>",
	Short: "Generate a circular layout on a square or close-packed lattice",
	Long: `Generate the centers of circular labels of one diameter.

simple places circles on a square grid. close uses hexagonal close packing:
rows are sqrt(3)/2 pitch apart and every other row is shifted by half a pitch,
which fits more circles on the page.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(lattice.Simple), string(lattice.Close)},
	RunE:      runSynthesize,
}

func init() {
	synthCmd.Flags().Float64Var(&synthPageWidth, "page-width", 0, "Page width in points")
	synthCmd.Flags().Float64Var(&synthPageHeight, "page-height", 0, "Page height in points")
	synthCmd.Flags().Float64Var(&synthDiameter, "diameter", 0, "Circle diameter in points")
	synthCmd.Flags().Float64Var(&synthGap, "gap", 0, "Gap between circles in points")
	synthCmd.Flags().Float64SliceVar(&synthMargin, "margin", []float64{0, 0, 0, 0}, "Page margins in points: TOP,RIGHT,BOTTOM,LEFT or a single value")
	synthCmd.Flags().IntVar(&synthMaxCols, "max-cols", 0, "Maximum number of columns (0 for no limit)")
	synthCmd.Flags().IntVar(&synthMaxRows, "max-rows", 0, "Maximum number of rows (0 for no limit)")
	synthOutput.register(synthCmd)

	_ = synthCmd.MarkFlagRequired("page-width")
	_ = synthCmd.MarkFlagRequired("page-height")
	_ = synthCmd.MarkFlagRequired("diameter")
}

func marginsFrom(values []float64) (lattice.Margins, error) {
	switch len(values) {
	case 1:
		return lattice.UniformMargins(values[0]), nil
	case 4:
		return lattice.Margins{Top: values[0], Right: values[1], Bottom: values[2], Left: values[3]}, nil
	default:
		return lattice.Margins{}, fmt.Errorf("--margin takes 1 or 4 values, got %d", len(values))
	}
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	layout, err := lattice.ParseLayout(args[0])
	if err != nil {
		return err
	}
	margins, err := marginsFrom(synthMargin)
	if err != nil {
		return err
	}

	tpl, err := lattice.Synthesize(lattice.Params{
		Layout:     layout,
		PageWidth:  synthPageWidth,
		PageHeight: synthPageHeight,
		Diameter:   synthDiameter,
		Gap:        synthGap,
		Margins:    margins,
		MaxCols:    synthMaxCols,
		MaxRows:    synthMaxRows,
	})
	if err != nil {
		return err
	}

	defaultJSON := filepath.Join(".", fmt.Sprintf("templator-circles-%s.json", layout))
	return synthOutput.export(cmd, tpl, defaultJSON)
}
