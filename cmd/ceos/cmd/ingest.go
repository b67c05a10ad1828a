/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/api"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/storage"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <location>...",
	Short: "Store leader files in the archive",
	Long: `Read each leader file and store its records in the archive under the
data directory. Every file becomes one scan; a file that fails to decode is
not stored.

Examples:
  ceos ingest RS1_leader.dat
  ceos ingest s3://archive/2024/RS1_leader.dat --lenient`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := validateFormat(format); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		opener, err := getOpener()
		if err != nil {
			return err
		}

		scans := []*storage.Scan{}
		for _, location := range args {
			obj, err := opener.Open(ctx, location)
			if err != nil {
				return err
			}
			scan, err := archive.Ingest(ctx, location, leaderfile.NewStreamReader(obj, readerConfig()))
			obj.Close()
			if err != nil {
				return err
			}
			scans = append(scans, scan)
		}

		return writeOutput(cmd.OutOrStdout(), format, scans, func(tw *tabwriter.Writer) {
			writeScanTable(tw, scans)
		})
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("output", "o", formatTable, "Output format (table, json, yaml)")
}

// openArchive opens the archive under the configured data directory
func openArchive() (api.ArchiveService, error) {
	c, err := getContainer()
	if err != nil {
		return nil, err
	}
	return c.GetArchiveFactory().OpenArchive(storage.ArchiveConfig{
		Path:    cfg.ArchivePath(),
		Catalog: catalog,
		Mode:    cfg.Mode(),
		Logger:  logger,
	})
}

func writeScanTable(tw *tabwriter.Writer, scans []*storage.Scan) {
	fmt.Fprintln(tw, "ID\tSOURCE\tRECORDS\tBYTES\tWARNINGS\tCREATED\tTYPES")
	for _, s := range scans {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			s.ID, s.Source, s.Records, s.Bytes, s.Warnings, s.CreatedAt.Format(time.RFC3339), formatCounts(s.Counts))
	}
}

// formatCounts renders type counts as "A=1 B=2", sorted by type
func formatCounts(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", name, counts[name])
	}
	return out
}
