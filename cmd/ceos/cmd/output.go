package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/ceoskit/pkg/leader"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// writeOutput renders v as json or yaml, or calls table for table output
func writeOutput(w io.Writer, format string, v interface{}, table func(w *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return writeYAML(w, v)
	default:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

// writeYAML goes through JSON so record fields keep their layout order and
// the MarshalJSON methods of records apply.
func writeYAML(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle clears the flow and quoting styles JSON input leaves behind.
// The encoder still quotes strings that would not read back as strings.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func writeRecordTable(tw *tabwriter.Writer, recs []*leader.Record) {
	fmt.Fprintln(tw, "SEQ\tTYPE\tKEY\tOFFSET\tLENGTH")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n",
			rec.Header.Sequence, rec.Name(), rec.Header.Key, rec.Offset, rec.Header.Length)
	}
}

func writeFieldTable(tw *tabwriter.Writer, fields []leader.FieldInfo) {
	fmt.Fprintln(tw, "NAME\tKIND\tOFFSET\tWIDTH\tCOUNT\tPADDING")
	for _, f := range fields {
		detail := f.Padding
		if f.Layout != "" {
			detail = f.Layout
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", f.Name, f.Kind, f.Offset, f.Width, f.Count, detail)
	}
}

// formatValue renders a field value for table output
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}
