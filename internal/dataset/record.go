package dataset

import (
	"strconv"
)

// Canonical column identifiers of the source file.
const (
	ColGender          = "gender"
	ColTenure          = "tenure"
	ColMonthlyCharges  = "MonthlyCharges"
	ColTotalCharges    = "TotalCharges"
	ColChurn           = "Churn"
	ColInternetService = "InternetService"
	ColContract        = "Contract"
	ColPaymentMethod   = "PaymentMethod"
)

// Record is one cleaned row of the base table.
type Record struct {
	Category        string
	Tenure          int
	MonthlyCharges  float64
	TotalCharges    float64
	Churn           string
	InternetService string
	Contract        string
	PaymentMethod   string
	// Extra holds every other column verbatim, keyed by trimmed header.
	Extra map[string]string

	categoryColumn string
}

// Value returns the categorical value of column. Numeric columns are
// formatted back to text so they can be used as group keys.
func (r Record) Value(column string) string {
	switch column {
	case r.categoryColumn:
		return r.Category
	case ColChurn:
		return r.Churn
	case ColInternetService:
		return r.InternetService
	case ColContract:
		return r.Contract
	case ColPaymentMethod:
		return r.PaymentMethod
	case ColTenure:
		return strconv.Itoa(r.Tenure)
	case ColMonthlyCharges:
		return strconv.FormatFloat(r.MonthlyCharges, 'f', -1, 64)
	case ColTotalCharges:
		return strconv.FormatFloat(r.TotalCharges, 'f', -1, 64)
	}
	return r.Extra[column]
}

// Number returns the numeric value of column and whether the column is numeric.
func (r Record) Number(column string) (float64, bool) {
	switch column {
	case ColTenure:
		return float64(r.Tenure), true
	case ColMonthlyCharges:
		return r.MonthlyCharges, true
	case ColTotalCharges:
		return r.TotalCharges, true
	}
	if raw, ok := r.Extra[column]; ok {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
