// Package cmd — archive and list-archives commands.
package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/biocpipe/core/archive"
	"github.com/gaurav-prasanna/biocpipe/crawl"
)

var (
	flagBaseURL   string
	flagNoExtract bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive <filename> <save-dir> <extract-dir>",
	Short: "Download a bulk BioC archive and extract it",
	Long: `Archive downloads {base-url}/<filename> into <save-dir> and extracts it into
<extract-dir>. An archive that is not a valid tar.gz is reported and left
unextracted.

Examples:
  biocpipe list-archives
  biocpipe archive BioCXML.0.tar.gz downloads corpus/raw
  biocpipe archive BioCXML.0.tar.gz downloads corpus/raw --no-extract`,
	Args: cobra.ExactArgs(3),
	RunE: runArchive,
}

var listArchivesCmd = &cobra.Command{
	Use:   "list-archives",
	Short: "List the bulk archives available on the archive server",
	Args:  cobra.NoArgs,
	RunE:  runListArchives,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(listArchivesCmd)

	for _, c := range []*cobra.Command{archiveCmd, listArchivesCmd} {
		c.Flags().StringVar(&flagBaseURL, "base-url", "", "Archive server directory URL")
	}
	archiveCmd.Flags().BoolVar(&flagNoExtract, "no-extract", false, "Download only")
}

func baseURL(cmd *cobra.Command) string {
	if cmd.Flags().Changed("base-url") {
		return flagBaseURL
	}
	return cfg.Remote.ArchiveBaseURL
}

func runArchive(cmd *cobra.Command, args []string) error {
	filename, saveDir, extractDir := args[0], args[1], args[2]
	ctx := cmd.Context()

	url := archive.ArchiveURL(baseURL(cmd), filename)
	dest := filepath.Join(saveDir, filepath.Base(filename))

	// No client timeout: archives are many gigabytes. Cancellation comes
	// from the command context.
	fetcher := &archive.Fetcher{
		Client:    &http.Client{},
		UserAgent: cfg.Remote.UserAgent,
		Progress:  reporter(),
		Logger:    logger,
	}
	n, err := fetcher.Fetch(ctx, url, dest)
	if err != nil {
		ui.Error("Download failed: %s", url)
		return err
	}
	ui.Success("Downloaded: %s (%d bytes)", dest, n)

	if flagNoExtract {
		return nil
	}

	extractor := &archive.Extractor{Progress: reporter(), Logger: logger}
	res, err := extractor.Extract(ctx, dest, extractDir)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", dest, err)
	}
	if res.Skipped {
		ui.Error("Not a valid tar.gz archive, extraction skipped: %s", dest)
		return nil
	}
	ui.Success("Extracted: %d files into %s", res.Files, extractDir)
	if res.Ignored > 0 {
		ui.Warning("%d archive members skipped", res.Ignored)
	}
	return nil
}

func runListArchives(cmd *cobra.Command, _ []string) error {
	index := baseURL(cmd)
	links, err := crawl.ListArchives(cmd.Context(), &http.Client{Timeout: cfg.Remote.Timeout}, index)
	if err != nil {
		return fmt.Errorf("listing archives: %w", err)
	}
	for _, link := range links {
		ui.Plain("%s\n", crawl.ArchiveName(link))
	}
	logger.Debug().Int("archives", len(links)).Str("index", index).Msg("archive index read")
	return nil
}
