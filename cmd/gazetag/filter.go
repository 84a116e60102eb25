package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/gazetag/internal/config"
	"github.com/verte-zerg/gazetag/internal/dataset"
	"github.com/verte-zerg/gazetag/internal/filter"
	"github.com/verte-zerg/gazetag/internal/logger"
	"github.com/verte-zerg/gazetag/internal/model"
	"github.com/verte-zerg/gazetag/internal/predicate"
	"github.com/verte-zerg/gazetag/internal/prompt"
	"github.com/verte-zerg/gazetag/internal/regions"
	"github.com/verte-zerg/gazetag/internal/report"
	"github.com/verte-zerg/gazetag/internal/session"
	"github.com/verte-zerg/gazetag/internal/store"
)

var (
	filterRegions    []string
	filterPass       []string
	filterPrev       []string
	filterNext       []string
	filterFixType    []string
	filterInSacc     []string
	filterOutSacc    []string
	filterConditions []int
	filterItems      []int

	filterRegionsFile    string
	filterOutput         string
	filterConflicts      string
	filterFixationPrefix string
	filterSaccadePrefix  string
	filterNoiseThreshold float64
)

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter <events.tsv>",
		Short: "Run a filter pass and stamp category codes on matching events",
		Args:  cobra.ExactArgs(1),
		RunE:  runFilterCmd,
	}
	cmd.Flags().StringSliceVar(&filterRegions, "region", nil, "time-locked region(s) (required)")
	cmd.Flags().StringSliceVar(&filterPass, "pass", nil, "pass options: any, first, second, third")
	cmd.Flags().StringSliceVar(&filterPrev, "prev", nil, "previous region(s)")
	cmd.Flags().StringSliceVar(&filterNext, "next", nil, "next distinct region(s)")
	cmd.Flags().StringSliceVar(&filterFixType, "fix-type", nil, "fixation types: any, first, single, second, subsequent, last")
	cmd.Flags().StringSliceVar(&filterInSacc, "in-sacc", nil, "incoming saccade direction: any, forward, backward")
	cmd.Flags().StringSliceVar(&filterOutSacc, "out-sacc", nil, "outgoing saccade direction: any, forward, backward")
	cmd.Flags().IntSliceVar(&filterConditions, "conditions", nil, "only events of these conditions")
	cmd.Flags().IntSliceVar(&filterItems, "items", nil, "only events of these items")
	cmd.Flags().StringVar(&filterRegionsFile, "regions-file", "", "region order, one name per line")
	cmd.Flags().StringVarP(&filterOutput, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().StringVar(&filterConflicts, "conflicts", defaultConflicts, "conflict handling: ask, new or existing")
	cmd.Flags().StringVar(&filterFixationPrefix, "fixation-prefix", defaultFixationPrefix, "event label prefix of fixations")
	cmd.Flags().StringVar(&filterSaccadePrefix, "saccade-prefix", defaultSaccadePrefix, "event label prefix of saccades")
	cmd.Flags().Float64Var(&filterNoiseThreshold, "noise-threshold", predicate.DefaultNoiseThreshold, "horizontal saccade movement ignored as noise")
	return cmd
}

func runFilterCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "fixation-prefix", &filterFixationPrefix, fileCfg.Filter.FixationPrefix)
	applyStringConfig(cmd, "saccade-prefix", &filterSaccadePrefix, fileCfg.Filter.SaccadePrefix)
	applyFloatConfig(cmd, "noise-threshold", &filterNoiseThreshold, fileCfg.Filter.NoiseThreshold)
	applyStringConfig(cmd, "conflicts", &filterConflicts, fileCfg.Filter.Conflicts)
	applyStringConfig(cmd, "regions-file", &filterRegionsFile, fileCfg.Filter.RegionsFile)

	log, err := logger.New(logFormat, verbose)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	spec, err := buildSpec()
	if err != nil {
		return err
	}
	resolver, err := conflictResolver(filterConflicts)
	if err != nil {
		return err
	}

	var declared []string
	if filterRegionsFile != "" {
		declared, err = regions.LoadOrder(filterRegionsFile)
		if err != nil {
			return filterError(err)
		}
	}

	inPath := args[0]
	outPath := filterOutput
	if outPath == "" {
		outPath = inPath
	}
	ds, err := dataset.Load(inPath, columnsFromConfig(fileCfg.Columns))
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}
	log.Debug("events loaded", zap.String("path", inPath), zap.Int("events", len(ds.Events)))

	st, err := store.Open(resolveDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Error("failed to close db", zap.Error(cerr))
		}
	}()

	ctx := context.Background()
	inKey, err := datasetKey(inPath)
	if err != nil {
		return err
	}
	outKey, err := datasetKey(outPath)
	if err != nil {
		return err
	}
	nextPass, history, err := loadSession(ctx, st, inKey, outKey)
	if err != nil {
		return err
	}

	engine := filter.New(
		model.Classifier{FixationPrefix: filterFixationPrefix, SaccadePrefix: filterSaccadePrefix},
		filter.WithLogger(log),
		filter.WithNoiseThreshold(filterNoiseThreshold),
	)
	sess := session.New(engine, ds.Events, nextPass, history)
	sess.DeclaredRegions = declared
	sess.Gate = buildGate()

	record, res, err := sess.Apply(spec, resolver)
	if err != nil {
		return filterError(err)
	}

	// Record before saving: a pass number is never reused after a failed save.
	if err := st.RecordPass(ctx, outKey, record); err != nil {
		return fmt.Errorf("failed to record pass: %w", err)
	}
	if err := dataset.Save(outPath, ds); err != nil {
		if derr := st.DeletePass(ctx, record.ID); derr != nil {
			log.Error("failed to drop unsaved pass", zap.String("id", record.ID), zap.Error(derr))
		}
		return fmt.Errorf("failed to save events: %w", err)
	}
	log.Info("filter pass recorded",
		zap.Int("pass", record.Number),
		zap.Int("matches", record.Matches),
		zap.Int("conflicts", record.Conflicts),
		zap.String("output", outPath),
	)

	out := cmd.OutOrStdout()
	if err := report.Summary(out, res, ds.Events); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := report.Conflicts(out, res.Conflicts, defaultConflictRows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// loadSession reads the pass state of the output dataset, which owns the
// codes and the pass log. The counter also continues past any pass already
// recorded for the input.
func loadSession(ctx context.Context, st *store.Store, inKey, outKey string) (int, []model.PassRecord, error) {
	next, history, err := st.LoadSession(ctx, outKey)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load session: %w", err)
	}
	if inKey == outKey {
		return next, history, nil
	}
	inNext, _, err := st.LoadSession(ctx, inKey)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load session: %w", err)
	}
	return max(next, inNext), history, nil
}

func buildSpec() (model.Spec, error) {
	if len(filterRegions) == 0 {
		return model.Spec{}, filterError(filter.ErrNoTargetRegion)
	}
	pass, err := model.ParsePassOptions(filterPass)
	if err != nil {
		return model.Spec{}, fmt.Errorf("invalid --pass: %w", err)
	}
	fixType, err := model.ParseFixTypeOptions(filterFixType)
	if err != nil {
		return model.Spec{}, fmt.Errorf("invalid --fix-type: %w", err)
	}
	incoming, err := model.ParseDirectionOptions(filterInSacc)
	if err != nil {
		return model.Spec{}, fmt.Errorf("invalid --in-sacc: %w", err)
	}
	outgoing, err := model.ParseDirectionOptions(filterOutSacc)
	if err != nil {
		return model.Spec{}, fmt.Errorf("invalid --out-sacc: %w", err)
	}
	return model.Spec{
		TimeLocked: model.NewSet(filterRegions...),
		Pass:       pass,
		Previous:   model.NewSet(filterPrev...),
		Next:       model.NewSet(filterNext...),
		FixType:    fixType,
		Incoming:   incoming,
		Outgoing:   outgoing,
	}, nil
}

func buildGate() model.Gate {
	var gate model.Gate
	if len(filterConditions) > 0 {
		gate.Conditions = model.NewSet(filterConditions...)
	}
	if len(filterItems) > 0 {
		gate.Items = model.NewSet(filterItems...)
	}
	return gate
}

// conflictResolver maps the --conflicts mode to a resolver. Without a
// terminal the prompt cannot run and new codes are kept.
func conflictResolver(mode string) (filter.Resolver, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "ask" {
		if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
			return prompt.Resolver{}, nil
		}
		logErrf("no terminal for the conflict prompt; keeping new codes\n")
		return filter.KeepNew, nil
	}
	choice, err := filter.ParseResolution(mode)
	if err != nil {
		return nil, fmt.Errorf("invalid --conflicts: %w", err)
	}
	return choice, nil
}

// filterError adds an advisory to the fatal filter errors.
func filterError(err error) error {
	switch {
	case errors.Is(err, filter.ErrNoTargetRegion):
		return fmt.Errorf("%w\nSelect at least one time-locked region with --region", err)
	case errors.Is(err, regions.ErrInvalidRegionList):
		return fmt.Errorf("%w\nThe region list must name between 1 and %d regions", err, regions.MaxRegions)
	default:
		return err
	}
}

func columnsFromConfig(cfg config.ColumnsConfig) dataset.Columns {
	cols := dataset.DefaultColumns()
	overrideString(&cols.Label, cfg.Type)
	overrideString(&cols.Region, cfg.Region)
	overrideString(&cols.PreviousRegion, cfg.PreviousRegion)
	overrideString(&cols.FirstPass, cfg.FirstPass)
	overrideString(&cols.RegionPass, cfg.RegionPass)
	overrideString(&cols.FixCountRegion, cfg.FixCountRegion)
	overrideString(&cols.FixCountWord, cfg.FixCountWord)
	overrideString(&cols.Condition, cfg.Condition)
	overrideString(&cols.Item, cfg.Item)
	overrideString(&cols.SaccStartX, cfg.SaccStartX)
	overrideString(&cols.SaccEndX, cfg.SaccEndX)
	overrideString(&cols.Category, cfg.Category)
	return cols
}

func datasetKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <events.tsv>",
		Short: "List the filter passes recorded for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryCmd,
	}
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	key, err := datasetKey(args[0])
	if err != nil {
		return err
	}
	st, err := store.Open(resolveDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	records, err := st.ListPasses(context.Background(), key)
	if err != nil {
		return fmt.Errorf("failed to list passes: %w", err)
	}
	if err := report.History(cmd.OutOrStdout(), records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
