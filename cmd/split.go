// Package cmd — split command.
// Normalizes a directory of BioC documents (or one bulk fulltexts file)
// into numbered shard files: list → sample → batch → transform → write.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/extract"
	"github.com/gaurav-prasanna/biocpipe/core/normalize"
	"github.com/gaurav-prasanna/biocpipe/core/output"
	"github.com/gaurav-prasanna/biocpipe/core/segment"
	"github.com/gaurav-prasanna/biocpipe/core/shard"
)

var (
	flagName        string
	flagBatchSize   int
	flagSplitWorker int
	flagRandom      int
	flagSeed        uint64
	flagMode        string
	flagAllow       []string
	flagIgnore      []string
	flagRecursive   bool
	flagStripMarkup bool
	flagBulk        bool
)

var splitCmd = &cobra.Command{
	Use:   "split <input> <output-dir>",
	Short: "Normalize BioC documents into sharded sentence records",
	Long: `Split reads every BioC JSON file in <input>, keeps the text of the allowed
sections, splits it into sentences (or paragraphs) and writes batches of
records to <output-dir>/<stem>-NNN<suffix>, where NNN is the batch number.

With --bulk, <input> is a single {"fulltexts": [...]} file written by fetch.

Examples:
  biocpipe split corpus/raw shards
  biocpipe split corpus/raw shards --batch-size 500 --mode paragraphs
  biocpipe split corpus/fulltexts.json shards --bulk --name pmc.json
  biocpipe split corpus/raw shards --random 1000 --seed 7 --allow INTRO,RESULTS`,
	Args: cobra.ExactArgs(2),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&flagName, "name", "output.json", "Shard file name; shards are <stem>-NNN<suffix>")
	splitCmd.Flags().IntVar(&flagBatchSize, "batch-size", 1000, "Documents per shard (0 = one shard)")
	splitCmd.Flags().IntVar(&flagSplitWorker, "workers", 4, "Concurrent batches (capped by CPU count)")
	splitCmd.Flags().IntVar(&flagRandom, "random", 0, "Process only this many randomly chosen files")
	splitCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "Seed for --random (0 = random)")
	splitCmd.Flags().StringVar(&flagMode, "mode", "sentences", "Record unit: sentences or paragraphs")
	splitCmd.Flags().StringSliceVar(&flagAllow, "allow", nil, "Only keep these section labels")
	splitCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "Drop these section labels (default from config)")
	splitCmd.Flags().BoolVar(&flagRecursive, "recursive", false, "Include files in subdirectories")
	splitCmd.Flags().BoolVar(&flagStripMarkup, "strip-markup", false, "Remove inline HTML/XML tags from passage text")
	splitCmd.Flags().BoolVar(&flagBulk, "bulk", false, "Input is a single fulltexts file")
}

func runSplit(cmd *cobra.Command, args []string) error {
	input, outDir := args[0], args[1]

	sc := cfg.Split
	flags := cmd.Flags()
	if flags.Changed("name") {
		sc.OutputName = flagName
	}
	if flags.Changed("batch-size") {
		sc.BatchSize = flagBatchSize
	}
	if flags.Changed("workers") {
		sc.Workers = flagSplitWorker
	}
	if flags.Changed("random") {
		sc.RandomSample = flagRandom
	}
	if flags.Changed("seed") {
		sc.Seed = flagSeed
	}
	if flags.Changed("mode") {
		sc.Mode = flagMode
	}
	if flags.Changed("allow") {
		sc.Allow = flagAllow
	}
	if flags.Changed("ignore") {
		sc.Ignore = flagIgnore
	}
	if flags.Changed("recursive") {
		sc.Recursive = flagRecursive
	}
	if flags.Changed("strip-markup") {
		sc.StripMarkup = flagStripMarkup
	}

	mode, err := core.ParseMode(sc.Mode)
	if err != nil {
		return err
	}
	if sc.BatchSize < 0 || sc.RandomSample < 0 {
		return fmt.Errorf("%w: --batch-size and --random must be >= 0", core.ErrInvalidConfig)
	}

	stem, suffix := output.SplitName(sc.OutputName)
	transformer := normalize.New(
		segment.New(),
		extract.Filter{Allow: sc.Allow, Ignore: sc.Ignore, StripMarkup: sc.StripMarkup},
		mode,
		logger,
	)
	pipeline := &shard.Pipeline{
		Options: shard.Options{
			BatchSize:    sc.BatchSize,
			Workers:      sc.Workers,
			OutputDir:    outDir,
			Stem:         stem,
			Suffix:       suffix,
			RandomSample: sc.RandomSample,
			Seed:         sc.Seed,
		},
		Transformer: transformer,
		Progress:    reporter(),
		Logger:      logger,
	}

	var report *shard.Report
	if flagBulk {
		report, err = pipeline.RunBulk(cmd.Context(), input)
	} else {
		var files []string
		files, err = shard.ListFiles(input, sc.Recursive)
		if err != nil {
			return err
		}
		ui.Info("Splitting %d files with %d workers", len(files), shard.Concurrency(sc.Workers))
		report, err = pipeline.Run(cmd.Context(), files)
	}
	if err != nil {
		if report != nil {
			ui.Error("Stopped after %d shards", len(report.Shards))
		}
		return err
	}

	for _, s := range report.Shards {
		ui.Success("Written: %s (%d records)", s.Path, s.Records)
	}
	ui.Info("%d documents: %d records, %d without section text, %d unreadable",
		report.Files, report.Records, report.Dropped, report.Failed)
	return nil
}
