/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/leader"
)

// layoutInfo describes one catalog layout
type layoutInfo struct {
	Name   string             `json:"name"`
	Key    string             `json:"key,omitempty"`
	Size   int                `json:"size"`
	Fields []leader.FieldInfo `json:"fields,omitempty"`
}

// layoutsCmd represents the layouts command
var layoutsCmd = &cobra.Command{
	Use:   "layouts [name]",
	Short: "List record layouts or show the fields of one",
	Long: `Without arguments, list every layout in the catalog with its record type
key and body size. With a name, print the layout's fields with their offsets,
widths, counts and padding.

Examples:
  ceos layouts
  ceos layouts ProcessingParameters
  ceos layouts BeamInformationRecord -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		if err := validateFormat(format); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			infos := []layoutInfo{}
			for _, name := range catalog.Layouts() {
				l, _ := catalog.FindLayout(name)
				info := layoutInfo{Name: name, Size: l.Size()}
				if e, ok := catalog.ByName(name); ok {
					info.Key = e.Key.String()
				}
				infos = append(infos, info)
			}
			return writeOutput(out, format, infos, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "NAME\tKEY\tSIZE")
				for _, info := range infos {
					key := info.Key
					if key == "" {
						key = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, key, info.Size)
				}
			})
		}

		l, ok := catalog.FindLayout(args[0])
		if !ok {
			return fmt.Errorf("unknown layout %q", args[0])
		}
		info := layoutInfo{Name: l.Name(), Size: l.Size(), Fields: leader.Describe(l)}
		if e, ok := catalog.ByName(l.Name()); ok {
			info.Key = e.Key.String()
		}
		return writeOutput(out, format, info, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "%s (%d bytes)\n\n", info.Name, info.Size)
			writeFieldTable(tw, info.Fields)
		})
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)

	layoutsCmd.Flags().StringP("output", "o", formatTable, "Output format (table, json, yaml)")
}
