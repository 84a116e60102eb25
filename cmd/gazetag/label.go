package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/gazetag/internal/dataset"
	"github.com/verte-zerg/gazetag/internal/interest"
	"github.com/verte-zerg/gazetag/internal/logger"
)

var (
	labelOutput  string
	labelOffset  float64
	labelPPC     float64
	labelRegions []string
)

func newLabelCmd() *cobra.Command {
	layout := interest.DefaultLayout()
	cols := interest.DefaultColumns()
	cmd := &cobra.Command{
		Use:   "label <fixations.tsv>",
		Short: "Label fixations with word interest areas",
		Args:  cobra.ExactArgs(1),
		RunE:  runLabelCmd,
	}
	cmd.Flags().StringVarP(&labelOutput, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().Float64Var(&labelOffset, "offset", layout.Offset, "x position of the first character in pixels")
	cmd.Flags().Float64Var(&labelPPC, "ppc", layout.PixelsPerChar, "pixels per character")
	cmd.Flags().StringSliceVar(&labelRegions, "regions", cols.Regions, "sentence region columns in reading order")
	return cmd
}

func runLabelCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyFloatConfig(cmd, "offset", &labelOffset, fileCfg.Layout.Offset)
	applyFloatConfig(cmd, "ppc", &labelPPC, fileCfg.Layout.PixelsPerChar)
	if labelPPC <= 0 {
		return fmt.Errorf("--ppc must be > 0")
	}

	log, err := logger.New(logFormat, verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	inPath := args[0]
	outPath := labelOutput
	if outPath == "" {
		outPath = inPath
	}
	table, err := dataset.LoadTable(inPath)
	if err != nil {
		return fmt.Errorf("failed to load fixations: %w", err)
	}
	cols := interest.DefaultColumns()
	cols.Regions = labelRegions
	n, err := interest.LabelTable(table, cols, interest.Layout{Offset: labelOffset, PixelsPerChar: labelPPC})
	if err != nil {
		return fmt.Errorf("failed to label fixations: %w", err)
	}
	if err := dataset.SaveTable(outPath, table); err != nil {
		return fmt.Errorf("failed to save fixations: %w", err)
	}
	log.Info("fixations labelled", zap.Int("rows", n), zap.String("output", outPath))
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Labelled %d fixations\n", n); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
