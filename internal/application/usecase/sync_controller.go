package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/diillson/fintrack-dashboard-go/internal/application/state"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/view"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

// State é o estado do SyncController visto pela camada de apresentação.
type State int

const (
	StateUnauthenticated State = iota
	StateIdle
	StateFetching
	StateHistoryOpen
	StateMutating
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateIdle:
		return "Authenticated-Idle"
	case StateFetching:
		return "Fetching"
	case StateHistoryOpen:
		return "HistoryOpen"
	case StateMutating:
		return "Mutating"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notifier recebe as mensagens que devem chegar ao usuário.
// types.ConsoleInterface satisfaz esta interface.
type Notifier interface {
	LogError(format string, a ...interface{})
	LogSuccess(format string, a ...interface{})
}

// SyncController decides when the transaction store must be refetched and
// makes sure a response from a superseded fetch never overwrites fresher state.
// Triggers return immediately; the refresh runs in the background and Wait
// blocks until every pending refresh has settled.
type SyncController struct {
	api      repository.FinTrackAPI
	store    *state.TransactionStore
	notifier Notifier
	logger   *zap.Logger

	mu            sync.Mutex
	token         string
	filter        entity.FilterState
	historyOpen   bool
	fetching      int
	mutating      int
	sessionCtx    context.Context
	cancelSession context.CancelFunc
	errs          []error

	wg sync.WaitGroup
}

// NewSyncController creates a controller in the Unauthenticated state.
func NewSyncController(
	api repository.FinTrackAPI,
	store *state.TransactionStore,
	notifier Notifier,
	logger *zap.Logger,
) *SyncController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncController{
		api:      api,
		store:    store,
		notifier: notifier,
		logger:   logger,
		filter:   entity.DefaultFilter(),
	}
}

// fetchRequest carrega tudo o que um fetch precisa, capturado no momento da emissão.
type fetchRequest struct {
	ctx    context.Context
	token  string
	ticket state.Ticket
	reason string
}

// --- Autenticação ---

// OnAuthChange starts a new session with the given credential, or ends the
// current one when the credential is empty. A new session begins with a
// summary refresh.
func (c *SyncController) OnAuthChange(ctx context.Context, token string) {
	if token == "" {
		c.Logout()
		return
	}

	c.mu.Lock()
	if c.cancelSession != nil {
		c.cancelSession()
	}
	c.sessionCtx, c.cancelSession = context.WithCancel(ctx)
	c.token = token
	c.filter = entity.DefaultFilter()
	c.historyOpen = false
	c.store.Init()
	c.mu.Unlock()

	c.logger.Debug("session started")
	_ = c.scheduleRefresh("summary")
}

// Login troca usuário e senha por um token e inicia a sessão.
func (c *SyncController) Login(ctx context.Context, username, password string) (string, error) {
	token, err := c.api.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", &types.AuthError{Message: "server did not return a token"}
	}
	c.OnAuthChange(ctx, token)
	return token, nil
}

// Register cria a conta. Quem chama decide se faz login em seguida.
func (c *SyncController) Register(ctx context.Context, username, email, password string) (string, error) {
	return c.api.Register(ctx, username, email, password)
}

// Logout discards the record set, the summary and the credential. Pending
// fetches are cancelled and can no longer commit.
func (c *SyncController) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelSession != nil {
		c.cancelSession()
		c.cancelSession = nil
	}
	c.token = ""
	c.historyOpen = false
	c.filter = entity.DefaultFilter()
	c.store.Teardown()
	c.logger.Debug("session ended")
}

// --- Gatilhos ---

// OpenHistory abre a visão de histórico e busca transações filtradas e resumo.
// Chamar de novo com o histórico aberto força um novo fetch.
func (c *SyncController) OpenHistory() error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return types.ErrNotAuthenticated
	}
	c.historyOpen = true
	c.mu.Unlock()

	return c.scheduleRefresh("history")
}

// CloseHistory fecha o histórico, volta o filtro ao padrão e atualiza o resumo
// para refletir exclusões feitas enquanto ele estava aberto.
func (c *SyncController) CloseHistory() error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return types.ErrNotAuthenticated
	}
	if !c.historyOpen {
		c.mu.Unlock()
		return types.ErrHistoryClosed
	}
	c.historyOpen = false
	c.filter = entity.DefaultFilter()
	c.mu.Unlock()

	return c.scheduleRefresh("summary")
}

// SetFilter applies a partial filter change to the open history view and
// refetches with the new server-side parameters. The filter only exists while
// the history is open.
func (c *SyncController) SetFilter(patch entity.FilterPatch) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return types.ErrNotAuthenticated
	}
	if !c.historyOpen {
		c.mu.Unlock()
		return types.ErrHistoryClosed
	}
	next := c.filter.Apply(patch)
	changed := next != c.filter
	c.filter = next
	c.mu.Unlock()

	if !changed {
		return nil
	}
	return c.scheduleRefresh("history")
}

// NotifyUploadComplete atualiza os dados depois de um upload concluído.
func (c *SyncController) NotifyUploadComplete() error {
	return c.scheduleRefresh("summary")
}

// DeleteOne envia a exclusão e, com sucesso ou não, refaz o fetch completo.
// Nada é removido localmente antes disso.
func (c *SyncController) DeleteOne(id int64) error {
	return c.mutate(fmt.Sprintf("delete transaction %d", id), func(ctx context.Context, token string) (string, error) {
		return c.api.DeleteTransaction(ctx, token, id)
	})
}

// DeleteAll apaga todo o histórico do usuário e refaz o fetch.
func (c *SyncController) DeleteAll() error {
	return c.mutate("delete all history", func(ctx context.Context, token string) (string, error) {
		return c.api.DeleteAllTransactions(ctx, token)
	})
}

// Upload sends a CSV file to the server and, on success, refreshes the views.
// It returns the parsed preview the server sent back.
func (c *SyncController) Upload(ctx context.Context, filePath string) (entity.UploadResult, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return entity.UploadResult{}, types.ErrNoFileSelected
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return entity.UploadResult{}, &types.ValidationError{Field: "file", Message: err.Error()}
	}
	if info.IsDir() {
		return entity.UploadResult{}, &types.ValidationError{Field: "file", Message: fmt.Sprintf("%s is a directory, not a file", filePath)}
	}

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return entity.UploadResult{}, types.ErrNotAuthenticated
	}

	result, err := c.api.UploadCSV(ctx, token, filePath)
	if err != nil {
		c.notifier.LogError("Upload failed: %s", err)
		return entity.UploadResult{}, err
	}
	c.notifier.LogSuccess("CSV uploaded successfully")

	if err := c.NotifyUploadComplete(); err != nil {
		return result, err
	}
	return result, nil
}

// Wait blocks until every pending refresh and mutation has settled and
// returns the failures reported since the previous call.
func (c *SyncController) Wait() error {
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	err := errors.Join(c.errs...)
	c.errs = nil
	return err
}

// --- Leituras ---

// State retorna o estado atual da máquina de estados.
func (c *SyncController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.token == "":
		return StateUnauthenticated
	case c.mutating > 0:
		return StateMutating
	case c.historyOpen:
		return StateHistoryOpen
	case c.fetching > 0:
		return StateFetching
	default:
		return StateIdle
	}
}

// Filter returns the current filter.
func (c *SyncController) Filter() entity.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Summary returns the last committed, unfiltered category summary.
func (c *SyncController) Summary() []entity.CategorySummaryEntry {
	return c.store.Summary()
}

// Series deriva as séries dos gráficos a partir do resumo publicado.
func (c *SyncController) Series() entity.ChartSeries {
	return view.BuildSeries(c.store.Summary())
}

// HistoryView applies the current filter to the committed record set.
func (c *SyncController) HistoryView() []entity.TransactionRecord {
	filter := c.Filter()
	return view.DeriveHistory(c.store.Records(), filter)
}

// CategoryOptions lists the categories present in the committed record set.
func (c *SyncController) CategoryOptions() []string {
	return view.CategoryOptions(c.store.Records())
}

// Page retorna os metadados de paginação do último commit.
func (c *SyncController) Page() entity.PageInfo {
	return c.store.Snapshot().Page
}

// --- Internos ---

// begin emite um ticket com o filtro atual. Deve ser chamado por quem já está
// contado no WaitGroup.
func (c *SyncController) begin(reason string) (fetchRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		return fetchRequest{}, types.ErrNotAuthenticated
	}
	c.fetching++
	return fetchRequest{
		ctx:    c.sessionCtx,
		token:  c.token,
		ticket: c.store.Issue(c.filter),
		reason: reason,
	}, nil
}

func (c *SyncController) scheduleRefresh(reason string) error {
	c.wg.Add(1)
	req, err := c.begin(reason)
	if err != nil {
		c.wg.Done()
		return err
	}

	c.logger.Debug("fetch issued",
		zap.String("reason", reason),
		zap.Uint64("seq", req.ticket.Seq),
		zap.String("category", req.ticket.Filter.Category),
		zap.Stringer("limit", req.ticket.Filter.Limit),
	)

	go func() {
		defer c.wg.Done()
		c.run(req)
	}()
	return nil
}

// run busca histórico e resumo em paralelo e publica os dois juntos.
func (c *SyncController) run(req fetchRequest) {
	defer func() {
		c.mu.Lock()
		c.fetching--
		c.mu.Unlock()
	}()

	var (
		page    entity.HistoryPage
		summary []entity.CategorySummaryEntry
	)

	g, gctx := errgroup.WithContext(req.ctx)
	g.Go(func() error {
		p, err := c.api.GetHistory(gctx, req.token, req.ticket.Filter)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		page = p
		return nil
	})
	g.Go(func() error {
		s, err := c.api.GetSummary(gctx, req.token)
		if err != nil {
			return fmt.Errorf("failed to load summary: %w", err)
		}
		summary = s
		return nil
	})

	if err := g.Wait(); err != nil {
		if c.superseded(req.ticket) {
			c.logger.Debug("superseded fetch failed", zap.Uint64("seq", req.ticket.Seq), zap.Error(err))
			return
		}
		c.logger.Warn("refresh failed", zap.String("reason", req.reason), zap.Error(err))
		c.fail(fmt.Errorf("%s refresh: %w", req.reason, err))
		return
	}

	c.commit(req, page, summary)
}

// commit só publica se o filtro não mudou desde a emissão e se o store aceita o ticket.
func (c *SyncController) commit(req fetchRequest, page entity.HistoryPage, summary []entity.CategorySummaryEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || req.ticket.Filter != c.filter {
		c.logger.Debug("stale fetch discarded", zap.Uint64("seq", req.ticket.Seq), zap.String("cause", "filter changed"))
		return false
	}
	if !c.store.ReplaceAll(req.ticket, page.Transactions, summary, page.PageInfo) {
		c.logger.Debug("stale fetch discarded", zap.Uint64("seq", req.ticket.Seq), zap.String("cause", "superseded"))
		return false
	}

	c.logger.Debug("snapshot committed",
		zap.Uint64("seq", req.ticket.Seq),
		zap.Int("records", len(page.Transactions)),
		zap.Int("categories", len(summary)),
	)
	return true
}

func (c *SyncController) mutate(action string, call func(ctx context.Context, token string) (string, error)) error {
	c.mu.Lock()
	if c.token == "" {
		c.mu.Unlock()
		return types.ErrNotAuthenticated
	}
	if !c.historyOpen {
		c.mu.Unlock()
		return types.ErrHistoryClosed
	}
	ctx, token := c.sessionCtx, c.token
	c.mutating++
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			c.mutating--
			c.mu.Unlock()
		}()

		msg, err := call(ctx, token)
		if err != nil {
			if ctx.Err() == nil {
				c.fail(fmt.Errorf("failed to %s: %w", action, err))
			}
		} else {
			if msg == "" {
				msg = "done"
			}
			c.notifier.LogSuccess("%s: %s", action, msg)
		}

		// A verdade passa a ser o que o servidor devolver agora.
		req, err := c.begin("history")
		if err != nil {
			return
		}
		c.run(req)
	}()
	return nil
}

// superseded indica que o resultado do ticket seria descartado de qualquer forma.
func (c *SyncController) superseded(t state.Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token == "" || t.Filter != c.filter || !c.store.Current(t)
}

func (c *SyncController) fail(err error) {
	c.notifier.LogError("%s", err)
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}
