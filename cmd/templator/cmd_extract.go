package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/label-templator/internal/export"
	"github.com/ironsheep/label-templator/internal/extract"
	"github.com/ironsheep/label-templator/internal/imaging"
)

var (
	extractMode     string
	extractPage     int
	extractDPI      float64
	extractDebugDir string
	extractStdout   bool
	extractOutput   outputFlags
)

var extractCmd = &cobra.Command{
	Use:   "extract <source> [source...]",
	Short: "Extract a template from an image or page description",
	Long: `Extract the label template from one page of a source.

In auto mode the vector drawings of the page are analysed first and the
rendered page is analysed for edges when that yields nothing. With several
sources the extractions run concurrently and each template is written next
to its source.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", "", "Extraction strategy: auto, vector or raster (default from config)")
	extractCmd.Flags().IntVar(&extractPage, "page", 0, "Zero-based page index to analyse")
	extractCmd.Flags().Float64Var(&extractDPI, "dpi", 0, "DPI used for raster extraction (default from config)")
	extractCmd.Flags().StringVar(&extractDebugDir, "debug-dir", "", "Write edge masks and template overlays of raster attempts to this directory")
	extractCmd.Flags().BoolVar(&extractStdout, "stdout", false, "Print the template JSON to stdout instead of writing files")
	extractOutput.register(extractCmd)
}

// extractOptions merges the extract flags over the configuration.
func extractOptions(cmd *cobra.Command) (extract.Options, error) {
	opts, err := extract.OptionsFromConfig(currentConfig())
	if err != nil {
		return extract.Options{}, err
	}
	if extractMode != "" {
		if opts.Mode, err = extract.ParseMode(extractMode); err != nil {
			return extract.Options{}, err
		}
	}
	if extractDPI != 0 {
		opts.DPI = extractDPI
	}
	if cmd.Flags().Changed("page") || extractPage != 0 {
		opts.Page = extractPage
	}
	opts.DebugDir = extractDebugDir
	return opts, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts, err := extractOptions(cmd)
	if err != nil {
		return err
	}
	if len(args) > 1 && (extractOutput.json != "" || extractOutput.csv != "" || extractStdout) {
		return errors.New("--json, --csv and --stdout take a single source")
	}

	ctx := commandContext(cmd)
	extractor := extract.New(logger, imaging.NewImageCache())

	if len(args) == 1 {
		res, err := extractor.ExtractFile(ctx, args[0], opts)
		if err != nil {
			return err
		}
		return writeExtraction(cmd, res)
	}

	results, err := extractor.Batch(ctx, args, opts, currentConfig().Batch.Concurrency)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err == nil {
			r.Err = writeExtraction(cmd, r.Result)
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "[FAILED] %s: %v\n", r.Source, r.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[OK] %s (%s, %d labels)\n",
			r.Source, r.Result.Detector, r.Result.Template.CenterCount())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed %d source(s): %d succeeded, %d failed.\n",
		len(results), len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d source(s) failed", failed, len(results))
	}
	return nil
}

func writeExtraction(cmd *cobra.Command, res *extract.Result) error {
	if logger != nil {
		logger.Info("template extracted",
			zap.String("source", res.Source),
			zap.String("detector", string(res.Detector)),
			zap.Int("labels", res.Template.CenterCount()))
	}

	if extractStdout {
		space, err := extractOutput.space()
		if err != nil {
			return err
		}
		return export.WriteJSON(cmd.OutOrStdout(), res.Template, space, currentConfig().Output.Indent)
	}
	return extractOutput.export(cmd, res.Template, defaultJSONPath(res.Source))
}
