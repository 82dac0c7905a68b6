package repository

import (
	"context"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
)

// FinTrackAPI defines the interface for the FinTrack server API.
// Every authenticated call receives the bearer token explicitly.
type FinTrackAPI interface {
	// Auth
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	Ping(ctx context.Context) (string, error)

	// Read
	GetSummary(ctx context.Context, token string) ([]entity.CategorySummaryEntry, error)
	GetHistory(ctx context.Context, token string, filter entity.FilterState) (entity.HistoryPage, error)

	// Mutations
	DeleteTransaction(ctx context.Context, token string, id int64) (string, error)
	DeleteAllTransactions(ctx context.Context, token string) (string, error)
	UploadCSV(ctx context.Context, token string, filePath string) (entity.UploadResult, error)
}
