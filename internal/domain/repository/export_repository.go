package repository

import (
	"context"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
)

type ExportRepository interface {
	ExportToCSV(report entity.DashboardReport, filename string, outputDir string) (string, error)
	ExportToJSON(report entity.DashboardReport, filename string, outputDir string) (string, error)
	ExportToPDF(report entity.DashboardReport, filename string, outputDir string) (string, error)
}

// ReportPublisher envia um relatório já gerado para um armazenamento remoto.
type ReportPublisher interface {
	Publish(ctx context.Context, localPath string) (string, error)
}
