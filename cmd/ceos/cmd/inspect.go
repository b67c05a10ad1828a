/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
)

// fieldValue is one --field lookup result
type fieldValue struct {
	Sequence uint32      `json:"sequence"`
	Type     string      `json:"type"`
	Field    string      `json:"field"`
	Value    interface{} `json:"value"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <location>",
	Short: "Decode a leader file and print its records",
	Long: `Decode every record of a leader file and print it.

Table output lists one line per record. json and yaml output include the
decoded fields in layout order. Use --field with a path such as
beam_info[0].prf to print single values.

Examples:
  ceos inspect RS1_leader.dat
  ceos inspect RS1_leader.dat --type DataSetSummary -o yaml
  ceos inspect s3://archive/RS1_leader.dat --field mission_id --field pro_lat`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		typeName, _ := cmd.Flags().GetString("type")
		fields, _ := cmd.Flags().GetStringArray("field")

		if err := validateFormat(format); err != nil {
			return err
		}
		if typeName != "" && typeName != "Unknown" {
			if _, ok := catalog.ByName(typeName); !ok {
				return fmt.Errorf("unknown record type %q", typeName)
			}
		}

		recs, err := readLocation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if typeName != "" {
			recs = filterRecords(recs, typeName)
		}

		out := cmd.OutOrStdout()
		if len(fields) > 0 {
			values, err := lookupFields(recs, fields)
			if err != nil {
				return err
			}
			return writeOutput(out, format, values, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "SEQ\tTYPE\tFIELD\tVALUE")
				for _, v := range values {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Sequence, v.Type, v.Field, formatValue(v.Value))
				}
			})
		}
		return writeOutput(out, format, recs, func(tw *tabwriter.Writer) {
			writeRecordTable(tw, recs)
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("output", "o", formatTable, "Output format (table, json, yaml)")
	inspectCmd.Flags().StringP("type", "t", "", "Only show records of this type")
	inspectCmd.Flags().StringArrayP("field", "f", nil, "Print a field path instead of whole records (repeatable)")
}

// readLocation decodes every record at location. It stops at the first
// record that fails to decode.
func readLocation(ctx context.Context, location string) ([]*leader.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opener, err := getOpener()
	if err != nil {
		return nil, err
	}
	obj, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	return readRecords(obj, location)
}

func readRecords(src io.Reader, location string) ([]*leader.Record, error) {
	reader := leaderfile.NewStreamReader(src, readerConfig())
	recs := []*leader.Record{}
	for {
		rec, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", location, err)
		}
		recs = append(recs, rec)
	}
	if n := len(reader.Warnings()); n > 0 {
		logger.WithField("warnings", n).Warnf("%s decoded with legacy number conversion", location)
	}
	return recs, nil
}

func filterRecords(recs []*leader.Record, typeName string) []*leader.Record {
	out := []*leader.Record{}
	for _, rec := range recs {
		if rec.Name() == typeName {
			out = append(out, rec)
		}
	}
	return out
}

// lookupFields resolves each path on every decoded record. Records whose
// layout lacks a path are skipped; a path no record has is an error.
func lookupFields(recs []*leader.Record, paths []string) ([]fieldValue, error) {
	values := []fieldValue{}
	for _, path := range paths {
		found := false
		for _, rec := range recs {
			if !rec.Known() {
				continue
			}
			v, err := rec.Body.Lookup(path)
			if err != nil {
				continue
			}
			found = true
			values = append(values, fieldValue{
				Sequence: rec.Header.Sequence,
				Type:     rec.Name(),
				Field:    path,
				Value:    v,
			})
		}
		if !found {
			return nil, fmt.Errorf("no record has field %q", path)
		}
	}
	return values, nil
}
