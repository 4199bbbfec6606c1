package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/label-templator/internal/export"
	"github.com/ironsheep/label-templator/internal/template"
)

// outputFlags are the export flags shared by extract and synthesize-circles.
type outputFlags struct {
	json       string
	csv        string
	coordSpace string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.json, "json", "", "Path to write JSON output")
	cmd.Flags().StringVar(&o.csv, "csv", "", "Path to write CSV output")
	cmd.Flags().StringVar(&o.coordSpace, "coord-space", "",
		"Coordinate space for outputs: percent_width, points, inches or mm (default from config)")
}

// space resolves the coordinate space flag against the configuration.
func (o *outputFlags) space() (template.CoordSpace, error) {
	name := o.coordSpace
	if name == "" {
		name = currentConfig().Output.CoordSpace
	}
	return template.ParseCoordSpace(name)
}

// export writes the requested outputs. With neither --json nor --csv set the
// template is written as JSON to defaultJSON.
func (o *outputFlags) export(cmd *cobra.Command, tpl *template.Template, defaultJSON string) error {
	space, err := o.space()
	if err != nil {
		return err
	}
	indent := currentConfig().Output.Indent

	jsonPath := o.json
	if jsonPath == "" && o.csv == "" {
		jsonPath = defaultJSON
	}

	if jsonPath != "" {
		if err := export.SaveJSON(jsonPath, tpl, space, indent); err != nil {
			return err
		}
		wrote(cmd, "JSON", jsonPath)
	}
	if o.csv != "" {
		if err := export.SaveCSV(o.csv, tpl, space); err != nil {
			return err
		}
		wrote(cmd, "CSV", o.csv)
	}
	return nil
}

func wrote(cmd *cobra.Command, kind, path string) {
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s output to %s\n", kind, path)
	if logger != nil {
		logger.Debug("output written", zap.String("kind", kind), zap.String("path", path))
	}
}

// defaultJSONPath places the template next to its source with a .json
// extension. A source that is itself a .json file gets .template.json so it
// is never overwritten.
func defaultJSONPath(source string) string {
	ext := filepath.Ext(source)
	stem := strings.TrimSuffix(source, ext)
	if strings.EqualFold(ext, ".json") {
		return stem + ".template.json"
	}
	return stem + ".json"
}
