package dataset

import (
	"fmt"
	"strings"
)

// DataLoadError reports an unreadable source or missing required columns.
// It is fatal: no partial table is returned alongside it.
type DataLoadError struct {
	Source  string
	Missing []string
	Err     error
}

func (e *DataLoadError) Error() string {
	if e == nil {
		return "data load failed"
	}
	if len(e.Missing) > 0 {
		return fmt.Sprintf("load %s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }
