package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// requiredColumns must be present besides the category column.
var requiredColumns = []string{
	ColTenure,
	ColMonthlyCharges,
	ColTotalCharges,
	ColChurn,
	ColInternetService,
	ColContract,
	ColPaymentMethod,
}

// Options controls how a source is read.
type Options struct {
	// CategoryColumn is the identity category column. Defaults to "gender".
	CategoryColumn string
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv files).
	Delimiter rune
	// Sheet selects the XLSX sheet. Empty means the first sheet.
	Sheet string
}

// DefaultOptions returns the options matching the telecom complaints export.
func DefaultOptions() Options {
	return Options{CategoryColumn: ColGender}
}

// LoadFile reads a CSV, TSV or XLSX source from disk.
func LoadFile(path string, opt Options) (*Table, error) {
	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return loadXLSX(path, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Source: name, Err: fmt.Errorf("open csv: %w", err)}
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return load(name, f, opt)
}

// Load reads a delimited source from r.
func Load(r io.Reader, opt Options) (*Table, error) {
	return load("input", r, opt)
}

func load(name string, src io.Reader, opt Options) (*Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty source")
		}
		return nil, &DataLoadError{Source: name, Err: fmt.Errorf("read header: %w", err)}
	}
	b, err := newBuilder(name, header, opt)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &DataLoadError{Source: name, Err: fmt.Errorf("read row %d: %w", b.rows+1, err)}
		}
		b.add(rec)
	}
	return b.table(), nil
}

func loadXLSX(path string, opt Options) (*Table, error) {
	name := filepath.Base(path)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &DataLoadError{Source: name, Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &DataLoadError{Source: name, Err: errors.New("workbook has no sheets")}
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &DataLoadError{Source: name, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &DataLoadError{Source: name, Err: fmt.Errorf("read header: sheet %q is empty", sheet)}
	}
	b, err := newBuilder(name, rows[0], opt)
	if err != nil {
		return nil, err
	}
	for _, row := range rows[1:] {
		b.add(row)
	}
	return b.table(), nil
}

// builder maps raw rows onto Records, dropping rows that fail coercion.
type builder struct {
	name     string
	header   []string
	category string
	index    map[string]int
	extras   []int
	rows     int
	records  []Record
}

func newBuilder(name string, rawHeader []string, opt Options) (*builder, error) {
	category := strings.TrimSpace(opt.CategoryColumn)
	if category == "" {
		category = ColGender
	}
	header := make([]string, len(rawHeader))
	index := make(map[string]int, len(rawHeader))
	for i, h := range rawHeader {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[header[i]]; !dup {
			index[header[i]] = i
		}
	}
	var missing []string
	for _, col := range append([]string{category}, requiredColumns...) {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &DataLoadError{Source: name, Missing: missing}
	}
	known := map[string]bool{category: true}
	for _, col := range requiredColumns {
		known[col] = true
	}
	var extras []int
	for i, h := range header {
		if !known[h] && index[h] == i {
			extras = append(extras, i)
		}
	}
	return &builder{name: name, header: header, category: category, index: index, extras: extras}, nil
}

func (b *builder) field(rec []string, col string) string {
	i := b.index[col]
	if i >= len(rec) {
		return ""
	}
	return rec[i]
}

func (b *builder) add(rec []string) {
	b.rows++
	total, ok := parseNumber(b.field(rec, ColTotalCharges))
	if !ok || total < 0 {
		return
	}
	monthly, ok := parseNumber(b.field(rec, ColMonthlyCharges))
	if !ok {
		return
	}
	tenure, ok := parseTenure(b.field(rec, ColTenure))
	if !ok {
		return
	}
	r := Record{
		Category:        b.field(rec, b.category),
		Tenure:          tenure,
		MonthlyCharges:  monthly,
		TotalCharges:    total,
		Churn:           b.field(rec, ColChurn),
		InternetService: b.field(rec, ColInternetService),
		Contract:        b.field(rec, ColContract),
		PaymentMethod:   b.field(rec, ColPaymentMethod),
		categoryColumn:  b.category,
	}
	if len(b.extras) > 0 {
		r.Extra = make(map[string]string, len(b.extras))
		for _, i := range b.extras {
			if i < len(rec) {
				r.Extra[b.header[i]] = rec[i]
			} else {
				r.Extra[b.header[i]] = ""
			}
		}
	}
	b.records = append(b.records, r)
}

func (b *builder) table() *Table {
	return &Table{
		name:           b.name,
		header:         b.header,
		categoryColumn: b.category,
		records:        b.records,
		inputRows:      b.rows,
	}
}

// parseNumber coerces a raw cell; blanks and placeholders such as "N/A" fail.
func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseTenure(s string) (int, bool) {
	raw := strings.TrimSpace(s)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true
	}
	f, ok := parseNumber(raw)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
