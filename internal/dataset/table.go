package dataset

// Table is the immutable base table. It is built once by Load and shared
// read-only by every session.
type Table struct {
	name           string
	header         []string
	categoryColumn string
	records        []Record
	inputRows      int
}

// FromRecords builds a table directly from records, bypassing file parsing.
// The records are copied.
func FromRecords(categoryColumn string, recs []Record) *Table {
	if categoryColumn == "" {
		categoryColumn = ColGender
	}
	out := make([]Record, len(recs))
	for i, r := range recs {
		r.categoryColumn = categoryColumn
		out[i] = r
	}
	return &Table{
		name:           "memory",
		header:         append([]string{categoryColumn}, requiredColumns...),
		categoryColumn: categoryColumn,
		records:        out,
		inputRows:      len(out),
	}
}

// Name is the base name of the source the table was loaded from.
func (t *Table) Name() string { return t.name }

// Header returns a copy of the trimmed column identifiers.
func (t *Table) Header() []string { return append([]string(nil), t.header...) }

// CategoryColumn is the column used as the identity category (e.g. gender).
func (t *Table) CategoryColumn() string { return t.categoryColumn }

// Len is the number of rows that survived cleaning.
func (t *Table) Len() int { return len(t.records) }

// At returns the i-th record by value.
func (t *Table) At(i int) Record { return t.records[i] }

// InputRows is the number of data rows read from the source before cleaning.
func (t *Table) InputRows() int { return t.inputRows }

// Dropped is the number of rows excluded during cleaning.
func (t *Table) Dropped() int { return t.inputRows - len(t.records) }

// Each calls fn for every record in order until fn returns false.
func (t *Table) Each(fn func(Record) bool) {
	for _, r := range t.records {
		if !fn(r) {
			return
		}
	}
}

// Categories returns the distinct values of column in first-appearance order.
func (t *Table) Categories(column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.records {
		v := r.Value(column)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether value occurs in column.
func (t *Table) Has(column, value string) bool {
	for _, r := range t.records {
		if r.Value(column) == value {
			return true
		}
	}
	return false
}
