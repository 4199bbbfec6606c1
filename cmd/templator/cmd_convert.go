package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ironsheep/label-templator/internal/template"
)

var (
	convertFrom      string
	convertTo        string
	convertPageWidth float64
)

var convertCmd = &cobra.Command{
	Use:   "convert <x> <y>",
	Short: "Convert a point between coordinate spaces",
	Long: `Convert a point between percent_width, points, inches and mm.

percent_width expresses both axes as a percentage of the page width, so
--page-width is required whenever it is the source or target space.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertFrom, "from", string(template.SpacePoints), "Source coordinate space")
	convertCmd.Flags().StringVar(&convertTo, "to", string(template.SpacePercentWidth), "Target coordinate space")
	convertCmd.Flags().Float64Var(&convertPageWidth, "page-width", 0, "Page width in points (for percent_width)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid x %q: %w", args[0], err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid y %q: %w", args[1], err)
	}

	from, err := template.ParseCoordSpace(convertFrom)
	if err != nil {
		return err
	}
	to, err := template.ParseCoordSpace(convertTo)
	if err != nil {
		return err
	}

	p, err := template.Convert(template.Point{X: x, Y: y}, from, to, convertPageWidth)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%.6f %.6f %s\n", p.X, p.Y, to)
	return nil
}
