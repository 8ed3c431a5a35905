package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"expenso/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (13 columns).
var columns = []string{
	"Seq",
	"Status",
	"Description",
	"Seller Name",
	"Invoice Number",
	"Expense Date",
	"Net Amount",
	"Tax Amount",
	"Tax Rate",
	"Gross Amount",
	"Confidence",
	"Quality Grade",
	"Created At",
}

// Writer wraps csv.Writer for exporting expense lines as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteLines converts expense lines to CSV rows and writes them.
func (w *Writer) WriteLines(lines []domain.ExpenseLine) error {
	for i := range lines {
		row := lineToRow(&lines[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// lineToRow converts a single expense line to a 13-element string slice.
// Draft placeholders get metadata columns only; amount columns stay empty
// until materialization.
func lineToRow(line *domain.ExpenseLine) []string {
	row := make([]string, len(columns))

	row[0] = strconv.Itoa(line.Seq)
	row[1] = string(line.Status)
	row[2] = line.Description
	row[5] = line.ExpenseDate.Format("2006-01-02")
	row[12] = line.CreatedAt.Format(time.RFC3339)

	if line.Status != domain.LineStatusMaterialized {
		return row
	}

	row[3] = line.SellerName
	row[4] = line.InvoiceNumber
	row[6] = formatMoney(line.NetAmount)
	row[7] = formatMoney(line.TaxAmount)
	row[8] = formatRate(line.TaxRate)
	row[9] = formatMoney(line.GrossAmount)
	row[10] = strconv.FormatFloat(line.Confidence, 'f', 2, 64)
	row[11] = line.QualityGrade

	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatRate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a report label for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: {sanitized_label}_{YYYY-MM-DD}.csv
func BuildFilename(label string) string {
	sanitized := SanitizeFilename(label)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
