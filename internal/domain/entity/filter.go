package entity

import (
	"strconv"
	"strings"
)

// AllCategories desativa o filtro por categoria.
const AllCategories = "All"

// Limit é o número máximo de linhas do histórico. LimitAll (zero) significa sem limite.
type Limit int

// LimitAll keeps every record that survived the category filter.
const LimitAll Limit = 0

// LimitUnbounded pede ao servidor o histórico inteiro, sem o teto padrão de
// 1000 linhas. Não é oferecido ao usuário.
const LimitUnbounded Limit = -1

// AllowedLimits são os únicos valores aceitos para o limite do histórico.
var AllowedLimits = []Limit{LimitAll, 10, 50, 100}

// String retorna "All" ou o valor numérico.
func (l Limit) String() string {
	switch l {
	case LimitAll:
		return "All"
	case LimitUnbounded:
		return "all"
	}
	return strconv.Itoa(int(l))
}

// FilterState is the category/limit pair that drives the history view.
type FilterState struct {
	Category string `json:"category"`
	Limit    Limit  `json:"limit"`
}

// DefaultFilter retorna o filtro inicial {All, All}.
func DefaultFilter() FilterState {
	return FilterState{Category: AllCategories, Limit: LimitAll}
}

// FilterPatch altera apenas os campos não nulos de um FilterState.
type FilterPatch struct {
	Category *string
	Limit    *Limit
}

// Apply returns f with the patch applied. f itself is not modified.
func (f FilterState) Apply(p FilterPatch) FilterState {
	if p.Category != nil {
		f.Category = *p.Category
		if f.Category == "" || strings.EqualFold(f.Category, AllCategories) {
			f.Category = AllCategories
		}
	}
	if p.Limit != nil {
		f.Limit = *p.Limit
	}
	return f
}
