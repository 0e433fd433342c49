// Package cmd — shards and show commands.
// Inspect split output: list shards in consumption order and preview one
// shard as Markdown.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/biocpipe/core/output"
	"github.com/gaurav-prasanna/biocpipe/core/render"
)

var (
	flagShardName string
	flagShowLimit int
)

var shardsCmd = &cobra.Command{
	Use:   "shards <dir>",
	Short: "List shard files in ascending index order",
	Args:  cobra.ExactArgs(1),
	RunE:  runShards,
}

var showCmd = &cobra.Command{
	Use:   "show <shard-file>",
	Short: "Print a Markdown preview of a shard",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(shardsCmd)
	rootCmd.AddCommand(showCmd)

	shardsCmd.Flags().StringVar(&flagShardName, "name", "output.json", "Shard file name used by split")
	showCmd.Flags().IntVar(&flagShowLimit, "limit", 5, "Sentences shown per record (0 = all)")
}

func runShards(cmd *cobra.Command, args []string) error {
	name := cfg.Split.OutputName
	if cmd.Flags().Changed("name") {
		name = flagShardName
	}
	stem, suffix := output.SplitName(name)

	paths, err := output.ListShards(args[0], stem, suffix)
	if err != nil {
		return err
	}
	for _, p := range paths {
		ui.Plain("%s\n", p)
	}
	return nil
}

func runShow(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading shard: %w", err)
	}
	records, err := render.DecodeShard(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", args[0], err)
	}
	md, err := render.NewMarkdownRenderer(flagShowLimit).Render(records)
	if err != nil {
		return err
	}
	ui.Plain("%s", md)
	return nil
}
