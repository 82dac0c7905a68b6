// Package view derives the presentation state of the dashboard from the
// records and the summary held by the transaction store. Every function here
// is pure and keeps the order of its input.
package view

import (
	"strconv"
	"strings"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

// DeriveHistory aplica o filtro de categoria e depois o limite, preservando a ordem de chegada.
// LimitUnbounded não trunca. Outros limites fora de entity.AllowedLimits são erro de quem chama.
func DeriveHistory(records []entity.TransactionRecord, filter entity.FilterState) []entity.TransactionRecord {
	filtered := make([]entity.TransactionRecord, 0, len(records))
	for _, r := range records {
		if filter.Category == entity.AllCategories || r.Category == filter.Category {
			filtered = append(filtered, r)
		}
	}

	if filter.Limit > 0 && int(filter.Limit) < len(filtered) {
		filtered = filtered[:filter.Limit]
	}
	return filtered
}

// CategoryOptions returns the distinct categories present in records, in order of first appearance.
// "All" is not included; the caller offers it separately.
func CategoryOptions(records []entity.TransactionRecord) []string {
	seen := make(map[string]struct{}, len(records))
	options := []string{}
	for _, r := range records {
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		options = append(options, r.Category)
	}
	return options
}

// ParseLimit converte a entrada do usuário ("All", "10", "50", "100") em entity.Limit.
func ParseLimit(s string) (entity.Limit, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return entity.LimitAll, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return entity.LimitAll, types.ErrInvalidLimit
	}
	for _, allowed := range entity.AllowedLimits {
		if allowed != entity.LimitAll && int(allowed) == n {
			return allowed, nil
		}
	}
	return entity.LimitAll, types.ErrInvalidLimit
}
