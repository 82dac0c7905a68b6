// Package state holds the last snapshot fetched from the FinTrack server.
package state

import (
	"slices"
	"sync"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
)

// Ticket identifica um fetch em andamento. É emitido antes da requisição e
// conferido na hora do commit.
type Ticket struct {
	Seq        uint64
	Epoch      uint64
	Generation uint64
	Filter     entity.FilterState
}

// Snapshot é uma cópia consistente do estado publicado.
type Snapshot struct {
	Records    []entity.TransactionRecord
	Summary    []entity.CategorySummaryEntry
	Page       entity.PageInfo
	Filter     entity.FilterState
	Generation uint64
}

// TransactionStore keeps the record set and the summary of one authenticated
// session. Both are always replaced together; there is no partial update.
type TransactionStore struct {
	mu sync.RWMutex

	active       bool
	epoch        uint64
	issued       uint64
	committedSeq uint64
	generation   uint64

	records []entity.TransactionRecord
	summary []entity.CategorySummaryEntry
	page    entity.PageInfo
	filter  entity.FilterState
}

// NewTransactionStore cria um store vazio, ainda sem sessão.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		records: []entity.TransactionRecord{},
		summary: []entity.CategorySummaryEntry{},
		filter:  entity.DefaultFilter(),
	}
}

// Init starts a new session. Tickets issued before the call can no longer commit.
func (s *TransactionStore) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.active = true
}

// Teardown descarta os dados da sessão. Nenhum fetch pendente consegue mais fazer commit.
func (s *TransactionStore) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.active = false
}

func (s *TransactionStore) reset() {
	s.epoch++
	s.committedSeq = s.issued
	s.generation = 0
	s.records = []entity.TransactionRecord{}
	s.summary = []entity.CategorySummaryEntry{}
	s.page = entity.PageInfo{}
	s.filter = entity.DefaultFilter()
}

// Issue tags a fetch that is about to start with the filter it will use.
func (s *TransactionStore) Issue(filter entity.FilterState) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return Ticket{
		Seq:        s.issued,
		Epoch:      s.epoch,
		Generation: s.generation,
		Filter:     filter,
	}
}

// Current reports whether a ticket could still commit.
func (s *TransactionStore) Current(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current(t)
}

func (s *TransactionStore) current(t Ticket) bool {
	return s.active && t.Epoch == s.epoch && t.Seq > s.committedSeq
}

// ReplaceAll troca registros e resumo de uma só vez. Retorna false, sem alterar
// nada, quando o ticket pertence a outra sessão ou foi superado por um fetch
// emitido depois dele que já fez commit.
func (s *TransactionStore) ReplaceAll(t Ticket, records []entity.TransactionRecord, summary []entity.CategorySummaryEntry, page entity.PageInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current(t) {
		return false
	}

	if records == nil {
		records = []entity.TransactionRecord{}
	}
	if summary == nil {
		summary = []entity.CategorySummaryEntry{}
	}

	s.records = slices.Clone(records)
	s.summary = slices.Clone(summary)
	s.page = page
	s.filter = t.Filter
	s.committedSeq = t.Seq
	s.generation++
	return true
}

// Records returns the records of the last committed snapshot.
func (s *TransactionStore) Records() []entity.TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// Summary returns the summary of the last committed snapshot.
func (s *TransactionStore) Summary() []entity.CategorySummaryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.summary)
}

// Generation conta quantos commits aconteceram nesta sessão.
func (s *TransactionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Active indica se há uma sessão iniciada.
func (s *TransactionStore) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Snapshot returns records, summary and metadata read under a single lock.
func (s *TransactionStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Records:    slices.Clone(s.records),
		Summary:    slices.Clone(s.summary),
		Page:       s.page,
		Filter:     s.filter,
		Generation: s.generation,
	}
}
