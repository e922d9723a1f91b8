// Package output provides utilities for formatting and displaying tax reports.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/pfa-tax-calculator/internal/report"
	"github.com/iwvelando/pfa-tax-calculator/pkg/constants"
	"github.com/iwvelando/pfa-tax-calculator/pkg/datetime"
)

// Write renders rep in the named format.
func Write(w io.Writer, format string, rep report.Report) error {
	switch format {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, rep)
	case constants.OutputFormatCSV:
		return CsvFormat(w, rep)
	case constants.OutputFormatJSON:
		return JSONFormat(w, rep)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, rep report.Report) error {
	width := 0
	for _, line := range rep.Lines {
		if n := len([]rune(line.Label)); n > width {
			width = n
		}
	}

	if _, err := fmt.Fprintf(w, "--- Venit %s în %s ---\n", rep.Period.Label(), rep.Currency); err != nil {
		return err
	}
	for _, line := range rep.Lines {
		pad := width - len([]rune(line.Label))
		if _, err := fmt.Fprintf(w, "%s%*s | %s\n", line.Label, pad, "", line.Text); err != nil {
			return err
		}
	}

	vat := "nu"
	if rep.VATLiable {
		vat = "da"
	}
	if _, err := fmt.Fprintf(w, "Înregistrare în scopuri de TVA: %s\n", vat); err != nil {
		return err
	}
	if rep.ExchangeRate != nil {
		date := ""
		if rep.RateDate != nil {
			date = " (" + datetime.FormatDate(*rep.RateDate) + ")"
		}
		if _, err := fmt.Fprintf(w, "1 %s = %s %s%s\n", rep.Currency, rep.RateText, rep.BaseCurrency, date); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, rep report.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"key", "label", "amount", "currency", "period"}); err != nil {
		return err
	}
	for _, line := range rep.Lines {
		record := []string{
			line.Key,
			line.Label,
			strconv.FormatFloat(line.Amount, 'f', 2, 64),
			rep.Currency,
			string(rep.Period),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, rep report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
