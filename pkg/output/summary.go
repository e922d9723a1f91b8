package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/optimization"
)

// WriteSummary renders a gross-for-net search result in the named format.
func WriteSummary(w io.Writer, format string, summary optimization.Summary) error {
	switch format {
	case constants.OutputFormatPretty:
		return prettySummary(w, summary)
	case constants.OutputFormatCSV:
		return csvSummary(w, summary)
	case constants.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func prettySummary(w io.Writer, summary optimization.Summary) error {
	target := summary.TargetDisplay
	if target == "" {
		target = strconv.FormatFloat(summary.TargetNet, 'f', 2, 64)
	}
	gross := summary.GrossDisplay
	if gross == "" {
		gross = strconv.FormatFloat(summary.Gross, 'f', 2, 64)
	}

	if !summary.Converged {
		_, err := fmt.Fprintf(w, "No gross income found for a net income of %s: %s\n", target, strings.Join(summary.Notes, "; "))
		return err
	}
	_, err := fmt.Fprintf(w, "Net income of %s requires a gross income of %s (%d iterations)\n", target, gross, summary.Iterations)
	return err
}

func csvSummary(w io.Writer, summary optimization.Summary) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"targetNet", "gross", "net", "headroom", "iterations", "converged"},
		{
			strconv.FormatFloat(summary.TargetNet, 'f', 2, 64),
			strconv.FormatFloat(summary.Gross, 'f', 2, 64),
			strconv.FormatFloat(summary.Net, 'f', 2, 64),
			strconv.FormatFloat(summary.Headroom, 'f', 2, 64),
			strconv.Itoa(summary.Iterations),
			strconv.FormatBool(summary.Converged),
		},
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
