package entity

import "time"

// SeriesPoint é um ponto rotulado de uma série de gráfico.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TableRow is one line of the summary table. The last row of a table is the synthetic "Total".
type TableRow struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ChartSeries agrupa as quatro visões derivadas do mesmo resumo por categoria.
type ChartSeries struct {
	Bar        []SeriesPoint `json:"bar"`
	Pie        []SeriesPoint `json:"pie"`
	Cumulative []SeriesPoint `json:"cumulative"`
	Table      []TableRow    `json:"table"`
	GrandTotal float64       `json:"grand_total"`
}

// DashboardReport é o conteúdo exportado para CSV, JSON ou PDF.
type DashboardReport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Username    string              `json:"username,omitempty"`
	Filter      *FilterState        `json:"filter,omitempty"`
	Series      ChartSeries         `json:"series"`
	History     []TransactionRecord `json:"history,omitempty"`
}
