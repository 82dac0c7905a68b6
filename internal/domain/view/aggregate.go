package view

import (
	"math"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TotalLabel é o rótulo da linha sintética no fim da tabela.
const TotalLabel = "Total"

// Summarize soma os valores por categoria, na ordem da primeira aparição.
// Registros sem categoria entram como entity.Uncategorized, como faz o servidor.
func Summarize(records []entity.TransactionRecord) []entity.CategorySummaryEntry {
	index := make(map[string]int)
	summary := []entity.CategorySummaryEntry{}

	for _, r := range records {
		category := r.Category
		if category == "" {
			category = entity.Uncategorized
		}
		i, ok := index[category]
		if !ok {
			index[category] = len(summary)
			summary = append(summary, entity.CategorySummaryEntry{Category: category})
			i = len(summary) - 1
		}
		summary[i].Total += r.Amount
	}
	return summary
}

// GrandTotal returns the sum of every total in the summary. Zero is a valid result.
func GrandTotal(summary []entity.CategorySummaryEntry) float64 {
	total := 0.0
	for _, e := range summary {
		total += e.Total
	}
	return total
}

// PercentageOf retorna total/grandTotal*100 arredondado para uma casa decimal.
// Quando grandTotal é zero ou não é finito o resultado é 0, nunca NaN.
func PercentageOf(total, grandTotal float64) float64 {
	if grandTotal == 0 || !isFinite(grandTotal) || !isFinite(total) {
		return 0
	}
	pct := decimal.NewFromFloat(total).
		Div(decimal.NewFromFloat(grandTotal)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	return pct.InexactFloat64()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Cumulative returns the running totals of the summary in its given order.
func Cumulative(summary []entity.CategorySummaryEntry) []float64 {
	out := make([]float64, len(summary))
	running := 0.0
	for i, e := range summary {
		running += e.Total
		out[i] = running
	}
	return out
}

// TableRows pareia cada entrada com o seu percentual e acrescenta a linha "Total".
func TableRows(summary []entity.CategorySummaryEntry) []entity.TableRow {
	grand := GrandTotal(summary)
	rows := make([]entity.TableRow, 0, len(summary)+1)
	for _, e := range summary {
		rows = append(rows, entity.TableRow{
			Category:   e.Category,
			Total:      e.Total,
			Percentage: PercentageOf(e.Total, grand),
		})
	}

	totalPct := 100.0
	if grand == 0 {
		totalPct = 0
	}
	rows = append(rows, entity.TableRow{Category: TotalLabel, Total: grand, Percentage: totalPct})
	return rows
}

// BuildSeries deriva as séries de barra, pizza, linha acumulada e tabela a partir do resumo.
func BuildSeries(summary []entity.CategorySummaryEntry) entity.ChartSeries {
	grand := GrandTotal(summary)
	cumulative := Cumulative(summary)

	series := entity.ChartSeries{
		Bar:        make([]entity.SeriesPoint, len(summary)),
		Pie:        make([]entity.SeriesPoint, len(summary)),
		Cumulative: make([]entity.SeriesPoint, len(summary)),
		Table:      TableRows(summary),
		GrandTotal: grand,
	}
	for i, e := range summary {
		series.Bar[i] = entity.SeriesPoint{Label: e.Category, Value: e.Total}
		series.Pie[i] = entity.SeriesPoint{Label: e.Category, Value: PercentageOf(e.Total, grand)}
		series.Cumulative[i] = entity.SeriesPoint{Label: e.Category, Value: cumulative[i]}
	}
	return series
}

// DiffSummaries compares a server summary with one derived locally and reports
// every category whose totals differ by more than tolerance, including categories
// present on only one side. Server order comes first, then derived-only categories.
func DiffSummaries(server, derived []entity.CategorySummaryEntry, tolerance float64) []entity.SummaryMismatch {
	derivedTotals := make(map[string]float64, len(derived))
	for _, e := range derived {
		derivedTotals[e.Category] = e.Total
	}

	mismatches := []entity.SummaryMismatch{}
	seen := make(map[string]struct{}, len(server))
	for _, e := range server {
		seen[e.Category] = struct{}{}
		d, ok := derivedTotals[e.Category]
		if !ok || math.Abs(d-e.Total) > tolerance {
			mismatches = append(mismatches, entity.SummaryMismatch{Category: e.Category, Server: e.Total, Derived: d})
		}
	}
	for _, e := range derived {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		if math.Abs(e.Total) > tolerance {
			mismatches = append(mismatches, entity.SummaryMismatch{Category: e.Category, Derived: e.Total})
		}
	}
	return mismatches
}
