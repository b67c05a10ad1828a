/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
)

// verifyResult is the round trip outcome of one record
type verifyResult struct {
	Sequence  uint32 `json:"sequence"`
	Type      string `json:"type"`
	Offset    int64  `json:"offset"`
	Values    bool   `json:"values"`     // re-encoded record decodes to the same values
	ByteExact bool   `json:"byte_exact"` // re-encoded bytes equal the original
	Error     string `json:"error,omitempty"`
}

// verifySummary totals a verify run
type verifySummary struct {
	Location   string         `json:"location"`
	Records    int            `json:"records"`
	Mismatches int            `json:"mismatches"`
	Inexact    int            `json:"inexact"`
	Results    []verifyResult `json:"results"`
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <location>",
	Short: "Check that every record survives a decode and re-encode",
	Long: `Decode every record, encode it again and decode the result.

A record passes when the second decode yields the same values. Records whose
re-encoding differs byte for byte from the file (for example a float written
as "1.0000000") are reported as inexact; --exact makes those fail too.

Examples:
  ceos verify RS1_leader.dat
  ceos verify RS1_leader.dat --exact -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		exact, _ := cmd.Flags().GetBool("exact")
		if err := validateFormat(format); err != nil {
			return err
		}

		recs, err := readLocation(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		summary := verifySummary{Location: args[0], Records: len(recs), Results: []verifyResult{}}
		for _, rec := range recs {
			res := verifyRecord(rec, cfg.Mode())
			if !res.Values {
				summary.Mismatches++
			}
			if !res.ByteExact {
				summary.Inexact++
			}
			summary.Results = append(summary.Results, res)
		}

		err = writeOutput(cmd.OutOrStdout(), format, summary, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "SEQ\tTYPE\tOFFSET\tVALUES\tBYTES\tERROR")
			for _, r := range summary.Results {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
					r.Sequence, r.Type, r.Offset, passFail(r.Values), exactness(r.ByteExact), r.Error)
			}
			fmt.Fprintf(tw, "\n%d records, %d value mismatches, %d inexact\n",
				summary.Records, summary.Mismatches, summary.Inexact)
		})
		if err != nil {
			return err
		}

		if summary.Mismatches > 0 {
			return fmt.Errorf("%d of %d records failed the round trip", summary.Mismatches, summary.Records)
		}
		if exact && summary.Inexact > 0 {
			return fmt.Errorf("%d of %d records did not re-encode byte for byte", summary.Inexact, summary.Records)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringP("output", "o", formatTable, "Output format (table, json, yaml)")
	verifyCmd.Flags().Bool("exact", false, "Fail when a record does not re-encode byte for byte")
}

// verifyRecord re-encodes rec and decodes the result again
func verifyRecord(rec *leader.Record, mode codec.Mode) verifyResult {
	res := verifyResult{Sequence: rec.Header.Sequence, Type: rec.Name(), Offset: rec.Offset}

	original, err := originalBytes(rec)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	encoded, err := rec.MarshalBinary()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.ByteExact = bytes.Equal(original, encoded)

	h, err := leader.DecodeHeader(codec.NewBytesCursor(encoded))
	if err != nil {
		res.Error = err.Error()
		return res
	}
	again, _, err := leaderfile.Decode(catalog, mode, h, rec.Offset, encoded[leader.HeaderSize:])
	if err != nil {
		res.Error = err.Error()
		return res
	}

	switch {
	case rec.Known() != again.Known():
		res.Error = "record type changed"
	case rec.Known():
		res.Values = rec.Body.Equal(again.Body) && bytes.Equal(rec.Trailer, again.Trailer)
	default:
		res.Values = bytes.Equal(rec.Raw, again.Raw)
	}
	return res
}

// originalBytes returns the record as it was read
func originalBytes(rec *leader.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := rec.Header.Encode(codec.NewWriter(&buf)); err != nil {
		return nil, err
	}
	buf.Write(rec.Raw)
	return buf.Bytes(), nil
}

func passFail(ok bool) string {
	if ok {
		return "ok"
	}
	return "FAIL"
}

func exactness(ok bool) string {
	if ok {
		return "exact"
	}
	return "differs"
}
