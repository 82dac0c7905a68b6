package entity

// CategorySummaryEntry represents the aggregated total for one category.
type CategorySummaryEntry struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// SummaryMismatch aponta uma categoria cujo total do servidor diverge do total derivado localmente.
type SummaryMismatch struct {
	Category string  `json:"category"`
	Server   float64 `json:"server"`
	Derived  float64 `json:"derived"`
}
