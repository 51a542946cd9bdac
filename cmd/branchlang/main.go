// Package main provides the CLI entry point for branchlang.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/ukaji3/branchlang-go/pkg/branchlang"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/cache"
	mylog "github.com/ukaji3/branchlang-go/pkg/branchlang/log"
)

var (
	configPath string
	jsonOutput bool
)

func main() {
	mylog.InitLogger()

	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "branchlang",
		Short: "Add county and LEP language columns to an office address workbook",
		Long: `branchlang resolves the county of every office address through a
radius-search geocoding service, joins the primary and secondary LEP
languages reported for that county, and writes a new workbook.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+branchlang.DefaultConfigFile+" if present)")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "List cached postal code to county entries",
		Args:  cobra.NoArgs,
		RunE:  listCache,
	}
	cacheCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	rootCmd.AddCommand(cacheCmd)

	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := branchlang.LoadOptions(configPath)
	if err != nil {
		return err
	}

	report, err := branchlang.Run(cmd.Context(), opts, branchlang.Deps{})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s rows to %s\n", humanize.Comma(int64(len(report.Rows))), report.Output)
	return nil
}

func listCache(cmd *cobra.Command, args []string) error {
	opts, err := branchlang.LoadOptions(configPath)
	if err != nil {
		return err
	}

	store, err := branchlang.OpenStore(cmd.Context(), opts.Cache)
	if err != nil {
		return err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	c, err := cache.Open(cmd.Context(), store)
	if err != nil {
		return err
	}

	entries := c.Entries()
	out := cmd.OutOrStdout()

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for _, e := range entries {
		fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Value)
	}
	fmt.Fprintf(out, "%s entries\n", humanize.Comma(int64(len(entries))))
	return nil
}
