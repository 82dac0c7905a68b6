package entity

// Uncategorized é o rótulo usado pelo servidor quando uma transação não tem categoria.
const Uncategorized = "Uncategorized"

// TransactionRecord represents a single categorized transaction as returned by the server.
// Records are never built or changed locally; the client only filters and aggregates them.
type TransactionRecord struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// PageInfo carrega os metadados de paginação devolvidos por /api/history.
type PageInfo struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// HistoryPage é a resposta completa de uma consulta de histórico.
type HistoryPage struct {
	Transactions []TransactionRecord `json:"transactions"`
	PageInfo
}

// UploadResult is the parsed and categorized preview returned after a CSV upload.
type UploadResult struct {
	Transactions []TransactionRecord `json:"transactions"`
	Inserted     int                 `json:"inserted"`
}
