/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/storage"
)

// scansCmd represents the scans command
var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Browse the archive",
	Long: `List archived scans, show a scan or one of its records, and delete
scans.

Examples:
  ceos scans list
  ceos scans show 2aK1HxNq9TeQ6PdGa5nIvLhCqSL
  ceos scans record 2aK1HxNq9TeQ6PdGa5nIvLhCqSL 2 -o yaml
  ceos scans rm 2aK1HxNq9TeQ6PdGa5nIvLhCqSL`,
}

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived scans, oldest first",
	Args:  cobra.NoArgs,
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

		list, err := archive.ListScans(ctx)
		if err != nil {
			return err
		}
		scans := make([]*storage.Scan, len(list))
		for i := range list {
			scans[i] = &list[i]
		}
		return writeOutput(cmd.OutOrStdout(), format, scans, func(tw *tabwriter.Writer) {
			if len(scans) == 0 {
				fmt.Fprintln(tw, "No scans found")
				return
			}
			writeScanTable(tw, scans)
		})
	},
}

var scansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := validateFormat(format); err != nil {
			return err
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		scan, err := archive.GetScan(args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, scan, func(tw *tabwriter.Writer) {
			writeScanTable(tw, []*storage.Scan{scan})
		})
	},
}

var scansRecordCmd = &cobra.Command{
	Use:   "record <id> <index>",
	Short: "Decode one archived record (0-based index in file order)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := validateFormat(format); err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil || index < 0 {
			return fmt.Errorf("record index must be a non-negative integer, got %q", args[1])
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		rec, err := archive.GetRecord(args[0], index)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, rec, func(tw *tabwriter.Writer) {
			writeRecordTable(tw, []*leader.Record{rec})
		})
	},
}

var scansRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete scans and their records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		for _, id := range args {
			if err := archive.DeleteScan(id); err != nil {
				return err
			}
			cmd.Printf("Deleted scan %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scansCmd)
	scansCmd.AddCommand(scansListCmd, scansShowCmd, scansRecordCmd, scansRmCmd)

	for _, c := range []*cobra.Command{scansListCmd, scansShowCmd, scansRecordCmd} {
		c.Flags().StringP("output", "o", formatTable, "Output format (table, json, yaml)")
	}
}
