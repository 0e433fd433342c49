// Package cmd — fetch command.
// Reads an identifier file and downloads every document through the
// bounded bulk fetcher into one fulltexts file or one file per document.
package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/bulk"
	"github.com/gaurav-prasanna/biocpipe/core/fetch"
	"github.com/gaurav-prasanna/biocpipe/core/output"
	"github.com/gaurav-prasanna/biocpipe/crawl"
)

var (
	flagFetchWorkers   int
	flagWriteMode      string
	flagURLTemplate    string
	flagMaxJitter      time.Duration
	flagRequestsPerSec float64
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <ids-file> <output>",
	Short: "Fetch BioC documents for a list of identifiers",
	Long: `Fetch downloads one BioC JSON document per identifier (one per line in
<ids-file>) using a bounded pool of workers. Failed identifiers are logged and
skipped.

With --write-mode file (default) <output> is a single {"fulltexts": [...]} file.
With --write-mode dir <output> is a directory receiving <identifier>.json files.

Examples:
  biocpipe fetch pmcids.txt corpus/fulltexts.json
  biocpipe fetch pmcids.txt corpus/docs --write-mode dir --workers 8
  biocpipe fetch pmcids.txt out.json --rps 3 --max-jitter 500ms`,
	Args: cobra.ExactArgs(2),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVar(&flagFetchWorkers, "workers", 4, "Concurrent fetches")
	fetchCmd.Flags().StringVar(&flagWriteMode, "write-mode", "file", "Output layout: file or dir")
	fetchCmd.Flags().StringVar(&flagURLTemplate, "url-template", "", "Document URL with an {id} placeholder")
	fetchCmd.Flags().DurationVar(&flagMaxJitter, "max-jitter", time.Second, "Upper bound of the random delay before each fetch")
	fetchCmd.Flags().Float64Var(&flagRequestsPerSec, "rps", 0, "Request rate limit across workers (0 = unlimited)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	idsPath, outPath := args[0], args[1]

	fc := cfg.Fetch
	if cmd.Flags().Changed("workers") {
		fc.Workers = flagFetchWorkers
	}
	if cmd.Flags().Changed("write-mode") {
		fc.WriteMode = flagWriteMode
	}
	if cmd.Flags().Changed("max-jitter") {
		fc.MaxJitter = flagMaxJitter
	}
	if cmd.Flags().Changed("rps") {
		fc.RequestsPerSecond = flagRequestsPerSec
	}
	template := cfg.Remote.ArticleURL
	if cmd.Flags().Changed("url-template") {
		template = flagURLTemplate
	}

	if fc.Workers < 1 {
		return fmt.Errorf("%w: --workers must be >= 1", core.ErrInvalidConfig)
	}
	mode, err := core.ParseWriteMode(fc.WriteMode)
	if err != nil {
		return err
	}

	ids, err := crawl.ReadIdentifiers(idsPath)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ui.Warning("No identifiers in %s", idsPath)
		return nil
	}

	client, err := fetch.New(fetch.Options{
		URLTemplate: template,
		UserAgent:   cfg.Remote.UserAgent,
		Timeout:     cfg.Remote.Timeout,
	})
	if err != nil {
		return err
	}

	sink, err := output.NewSink(mode, outPath)
	if err != nil {
		return fmt.Errorf("initializing output: %w", err)
	}

	var limiter *rate.Limiter
	if fc.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(fc.RequestsPerSecond), 1)
	}

	bar := reporter().Count(int64(len(ids)), "fetching", "docs")
	fetcher := &bulk.Fetcher{
		Client:    client,
		Workers:   fc.Workers,
		MaxJitter: fc.MaxJitter,
		Limiter:   limiter,
		Logger:    logger,
		OnResult:  func(core.FetchResult) { bar.Add(1) },
	}

	ui.Info("Fetching %d documents with %d workers", len(ids), fc.Workers)
	stats, err := fetcher.Run(cmd.Context(), ids, sink)
	bar.Finish()

	if err != nil && !errors.Is(err, cmd.Context().Err()) {
		return fmt.Errorf("finalizing output: %w", err)
	}
	ui.Success("Written: %s (%d delivered, %d failed)", outPath, stats.Delivered, stats.Failed)
	if stats.Cancelled > 0 || err != nil {
		ui.Warning("Interrupted: %d of %d identifiers not fetched", len(ids)-stats.Delivered-stats.Failed, len(ids))
		return err
	}
	return nil
}
