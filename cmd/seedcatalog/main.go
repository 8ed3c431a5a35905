// Command seedcatalog converts the accounting team's catalog workbook into a
// SQL seed file for the matching catalogs. Reads the Categories, TaxCodes and
// Currencies sheets.
// Usage: go run ./cmd/seedcatalog [workbook.xlsx]
// Output: db/seeds/catalogs.sql
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

type category struct {
	externalID int
	name       string
}

type taxCode struct {
	name    string
	rate    string // empty = NULL
	country string
}

type currency struct {
	name   string
	symbol string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	xlsxPath := "catalogs.xlsx"
	if len(os.Args) > 1 {
		xlsxPath = os.Args[1]
	}
	outPath := "db/seeds/catalogs.sql"

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	categories, err := parseCategories(f)
	if err != nil {
		return fmt.Errorf("parse Categories sheet: %w", err)
	}
	log.Printf("Categories sheet: %d entries", len(categories))

	taxCodes, err := parseTaxCodes(f)
	if err != nil {
		return fmt.Errorf("parse TaxCodes sheet: %w", err)
	}
	log.Printf("TaxCodes sheet: %d entries", len(taxCodes))

	currencies, err := parseCurrencies(f)
	if err != nil {
		return fmt.Errorf("parse Currencies sheet: %w", err)
	}
	log.Printf("Currencies sheet: %d entries", len(currencies))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	var b strings.Builder
	b.WriteString("-- Matching catalog seed data generated from the catalog workbook.\n")
	fmt.Fprintf(&b, "-- %d categories, %d tax codes, %d currencies.\n", len(categories), len(taxCodes), len(currencies))
	b.WriteString("BEGIN;\n\n")

	writeCategories(&b, categories)
	writeTaxCodes(&b, taxCodes)
	writeCurrencies(&b, currencies)

	b.WriteString("\nCOMMIT;\n")

	if _, err := out.WriteString(b.String()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	log.Printf("Generated seed file %s", outPath)
	return nil
}

// parseCategories reads the Categories sheet. Columns: A=external id, B=name.
// Data starts at row index 1 (header row skipped).
func parseCategories(f *excelize.File) ([]category, error) {
	rows, err := f.GetRows("Categories")
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var categories []category
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		idStr := strings.TrimSpace(cellVal(row, 0))
		name := strings.TrimSpace(cellVal(row, 1))
		if idStr == "" || name == "" {
			continue
		}
		externalID, err := strconv.Atoi(idStr)
		if err != nil || seen[externalID] {
			continue
		}
		seen[externalID] = true
		categories = append(categories, category{externalID: externalID, name: name})
	}
	return categories, nil
}

// parseTaxCodes reads the TaxCodes sheet. Columns: A=name, B=rate (optional,
// may carry a % suffix), C=country. Data starts at row index 1.
func parseTaxCodes(f *excelize.File) ([]taxCode, error) {
	rows, err := f.GetRows("TaxCodes")
	if err != nil {
		return nil, err
	}

	var codes []taxCode
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.TrimSpace(cellVal(row, 0))
		country := strings.TrimSpace(cellVal(row, 2))
		if name == "" || country == "" {
			continue
		}

		rate := ""
		rateStr := strings.TrimSuffix(strings.TrimSpace(cellVal(row, 1)), "%")
		if rateStr != "" {
			if parsed, err := strconv.ParseFloat(rateStr, 64); err == nil {
				rate = strconv.FormatFloat(parsed, 'f', 2, 64)
			}
		}
		codes = append(codes, taxCode{name: name, rate: rate, country: strings.ToUpper(country)})
	}
	return codes, nil
}

// parseCurrencies reads the Currencies sheet. Columns: A=name (ISO code),
// B=symbol. Data starts at row index 1.
func parseCurrencies(f *excelize.File) ([]currency, error) {
	rows, err := f.GetRows("Currencies")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var currencies []currency
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := strings.ToUpper(strings.TrimSpace(cellVal(row, 0)))
		symbol := strings.TrimSpace(cellVal(row, 1))
		if name == "" || symbol == "" || seen[name] {
			continue
		}
		seen[name] = true
		currencies = append(currencies, currency{name: name, symbol: symbol})
	}
	return currencies, nil
}

func writeCategories(b *strings.Builder, categories []category) {
	if len(categories) == 0 {
		return
	}
	b.WriteString("INSERT INTO expense_categories (id, external_id, name) VALUES\n")
	for i := range categories {
		c := &categories[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(b, "  (gen_random_uuid(), %d, '%s')", c.externalID, escapeSQL(c.name))
	}
	b.WriteString("\nON CONFLICT (external_id) DO NOTHING;\n\n")
}

func writeTaxCodes(b *strings.Builder, codes []taxCode) {
	if len(codes) == 0 {
		return
	}
	b.WriteString("INSERT INTO tax_codes (id, name, rate, country) VALUES\n")
	for i := range codes {
		c := &codes[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		rateVal := "NULL"
		if c.rate != "" {
			rateVal = c.rate
		}
		fmt.Fprintf(b, "  (gen_random_uuid(), '%s', %s, '%s')", escapeSQL(c.name), rateVal, escapeSQL(c.country))
	}
	b.WriteString(";\n\n")
}

func writeCurrencies(b *strings.Builder, currencies []currency) {
	if len(currencies) == 0 {
		return
	}
	b.WriteString("INSERT INTO currencies (id, name, symbol) VALUES\n")
	for i := range currencies {
		c := &currencies[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(b, "  (gen_random_uuid(), '%s', '%s')", escapeSQL(c.name), escapeSQL(c.symbol))
	}
	b.WriteString("\nON CONFLICT (name) DO NOTHING;\n")
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
