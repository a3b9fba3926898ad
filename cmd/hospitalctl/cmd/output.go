package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// view is one command result: the raw value for json/yaml and its table rendition.
type view struct {
	Value   any
	Headers []string
	Rows    [][]string
}

func validateOutput(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want table, json or yaml)", format)
	}
}

// fieldView renders a single record as a two-column table.
func fieldView(value any, pairs ...string) view {
	rows := make([][]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		rows = append(rows, []string{pairs[i], pairs[i+1]})
	}

	return view{Value: value, Headers: []string{"FIELD", "VALUE"}, Rows: rows}
}

func printView(w io.Writer, format string, v view) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v.Value)
	case formatYAML:
		// Round-trip through JSON so yaml keys match the wire names.
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return err
		}

		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}

		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}

		_, err = w.Write(out)

		return err
	default:
		if len(v.Rows) == 0 {
			_, err := fmt.Fprintln(w, "No results.")
			return err
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(v.Headers...).
			Rows(v.Rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}

				return cellStyle
			})

		_, err := fmt.Fprintln(w, t.Render())

		return err
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}
