package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// ExportToCSV grava a tabela de categorias e, se houver, o histórico exibido.
func (r *ExportRepositoryImpl) ExportToCSV(report entity.DashboardReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	writer.Write([]string{"Category", "Total", "Percentage", "Cumulative"})
	for i, row := range report.Series.Table {
		cumulative := report.Series.GrandTotal
		if i < len(report.Series.Cumulative) {
			cumulative = report.Series.Cumulative[i].Value
		}
		writer.Write([]string{
			row.Category,
			formatAmount(row.Total),
			fmt.Sprintf("%.1f", row.Percentage),
			formatAmount(cumulative),
		})
	}

	if report.Filter != nil {
		writer.Write(nil)
		writer.Write([]string{"Category filter", report.Filter.Category, "Limit", report.Filter.Limit.String()})
		writer.Write([]string{"ID", "Date", "Description", "Amount", "Category"})
		for _, txn := range report.History {
			writer.Write([]string{
				strconv.FormatInt(txn.ID, 10),
				txn.Date,
				txn.Description,
				formatAmount(txn.Amount),
				txn.Category,
			})
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error writing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToJSON grava o relatório completo como JSON indentado.
func (r *ExportRepositoryImpl) ExportToJSON(report entity.DashboardReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToPDF gera uma página com o resumo por categoria (tabela e barras)
// seguida do histórico, quando o relatório o inclui.
func (r *ExportRepositoryImpl) ExportToPDF(report entity.DashboardReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}
	barColor := [3]int{54, 162, 235}

	generatedAt := report.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("FinTrack Dashboard | %s", generatedAt.Format("2006-01-02 15:04"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	sectionTitle := func(title string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
	}

	pdf.AddPage()

	// Cabeçalho
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  FinTrack Dashboard"), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	subtitle := fmt.Sprintf("  Generated %s", generatedAt.Format("2006-01-02 15:04"))
	if report.Username != "" {
		subtitle += fmt.Sprintf(" for %s", report.Username)
	}
	pdf.CellFormat(0, 8, tr(subtitle), "", 1, "L", true, 0, "")
	pdf.Ln(10)

	// Tabela de categorias
	sectionTitle("Spending by Category")
	colWidths := []float64{70, 40, 35, 45}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Category", "Total", "%", "Cumulative"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(colWidths[i], 7, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for i, row := range report.Series.Table {
		cumulative := report.Series.GrandTotal
		if i < len(report.Series.Cumulative) {
			cumulative = report.Series.Cumulative[i].Value
		}
		if i == len(report.Series.Table)-1 {
			pdf.SetFont("Arial", "B", 10)
		}
		pdf.CellFormat(colWidths[0], 6, tr(row.Category), "", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 6, formatAmount(row.Total), "", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[2], 6, fmt.Sprintf("%.1f%%", row.Percentage), "", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 6, formatAmount(cumulative), "", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	// Barras horizontais proporcionais ao maior total
	if len(report.Series.Bar) > 0 {
		sectionTitle("Category Totals")
		maxValue := 0.0
		for _, p := range report.Series.Bar {
			if p.Value > maxValue {
				maxValue = p.Value
			}
		}
		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(barColor[0], barColor[1], barColor[2])
		for _, p := range report.Series.Bar {
			pdf.CellFormat(50, 6, tr(p.Label), "", 0, "L", false, 0, "")
			width := 0.0
			if maxValue > 0 {
				width = 110 * p.Value / maxValue
			}
			x, y := pdf.GetX(), pdf.GetY()
			if width > 0 {
				pdf.Rect(x, y+1, width, 4, "F")
			}
			pdf.SetX(x + 112)
			pdf.CellFormat(28, 6, formatAmount(p.Value), "", 1, "R", false, 0, "")
		}
		pdf.Ln(8)
	}

	// Histórico
	if report.Filter != nil {
		sectionTitle(fmt.Sprintf("Transaction History (category: %s, limit: %s)", report.Filter.Category, report.Filter.Limit))
		histWidths := []float64{15, 25, 85, 30, 35}
		pdf.SetFont("Arial", "B", 9)
		for i, h := range []string{"ID", "Date", "Description", "Amount", "Category"} {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(histWidths[i], 7, h, "B", 0, align, false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		if len(report.History) == 0 {
			pdf.CellFormat(0, 6, "No transactions found.", "", 1, "L", false, 0, "")
		}
		for _, txn := range report.History {
			description := txn.Description
			if len(description) > 55 {
				description = description[:52] + "..."
			}
			pdf.CellFormat(histWidths[0], 6, strconv.FormatInt(txn.ID, 10), "", 0, "L", false, 0, "")
			pdf.CellFormat(histWidths[1], 6, txn.Date, "", 0, "L", false, 0, "")
			pdf.CellFormat(histWidths[2], 6, tr(description), "", 0, "L", false, 0, "")
			pdf.CellFormat(histWidths[3], 6, formatAmount(txn.Amount), "", 0, "R", false, 0, "")
			pdf.CellFormat(histWidths[4], 6, tr(txn.Category), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que o diretório exista.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
