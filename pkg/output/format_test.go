package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/pfa-tax-calculator/internal/report"
	"github.com/iwvelando/pfa-tax-calculator/internal/tax"
)

func sampleReport() report.Report {
	rate := 4.9618
	date := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	return report.Report{
		Period:       tax.Monthly,
		BaseCurrency: "RON",
		Currency:     "EUR",
		ExchangeRate: &rate,
		RateText:     "4,9618",
		RateDate:     &date,
		VATLiable:    false,
		Lines: []report.Line{
			{Key: "gross", Label: "Venit brut", Amount: 604.62, Text: "604,62 EUR"},
			{Key: "net", Label: "Venit net", Amount: 353.7, Text: "353,7 EUR"},
			{Key: "incomeTax", Label: "Impozit pe venit", Amount: 39.3, Text: "39,3 EUR"},
		},
	}
}

func TestPrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := PrettyFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"--- Venit lunar în EUR ---",
		"Venit brut       | 604,62 EUR",
		"Impozit pe venit | 39,3 EUR",
		"Înregistrare în scopuri de TVA: nu",
		"1 EUR = 4,9618 RON (2023-06-16)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettyFormat output missing %q:\n%s", want, output)
		}
	}
}

func TestPrettyFormatBaseCurrency(t *testing.T) {
	rep := sampleReport()
	rep.Currency = "RON"
	rep.ExchangeRate = nil
	rep.VATLiable = true

	var buf bytes.Buffer
	if err := PrettyFormat(&buf, rep); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	if strings.Contains(buf.String(), "1 RON =") {
		t.Errorf("PrettyFormat printed an exchange rate for the base currency")
	}
	if !strings.Contains(buf.String(), "Înregistrare în scopuri de TVA: da") {
		t.Errorf("PrettyFormat missing VAT flag")
	}
}

func TestCsvFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("CsvFormat() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output is not parseable: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "key,label,amount,currency,period" {
		t.Errorf("unexpected header %v", records[0])
	}
	if strings.Join(records[2], ",") != "net,Venit net,353.70,EUR,monthly" {
		t.Errorf("unexpected net row %v", records[2])
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONFormat(&buf, sampleReport()); err != nil {
		t.Fatalf("JSONFormat() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output is not valid: %v", err)
	}
	if decoded["currency"] != "EUR" {
		t.Errorf("currency = %v, expected EUR", decoded["currency"])
	}
	if decoded["exchangeRateText"] != "4,9618" {
		t.Errorf("exchangeRateText = %v, expected 4,9618", decoded["exchangeRateText"])
	}
}

func TestWrite(t *testing.T) {
	for _, format := range []string{"pretty", "csv", "json"} {
		var buf bytes.Buffer
		if err := Write(&buf, format, sampleReport()); err != nil {
			t.Errorf("Write(%s) error = %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", format)
		}
	}

	if err := Write(&bytes.Buffer{}, "xml", sampleReport()); err == nil {
		t.Errorf("Write(xml) expected error but got none")
	}
}
