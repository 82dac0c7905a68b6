package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/diillson/fintrack-dashboard-go/internal/application/state"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/view"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

// summaryTolerance absorve a diferença entre a soma em float do cliente e o NUMERIC do servidor.
const summaryTolerance = 0.005

// previewRows é o número de linhas da prévia mostrada após um upload.
const previewRows = 10

// ReportedError marca um erro que já foi mostrado ao usuário.
// Quem recebe só precisa definir o código de saída.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string {
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

// DashboardUseCase handles the one-shot FinTrack commands.
type DashboardUseCase struct {
	api        repository.FinTrackAPI
	credRepo   repository.CredentialRepository
	exportRepo repository.ExportRepository
	publisher  repository.ReportPublisher
	console    types.ConsoleInterface
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardUseCase creates a new dashboard use case. publisher may be nil
// when reports are only written locally.
func NewDashboardUseCase(
	api repository.FinTrackAPI,
	credRepo repository.CredentialRepository,
	exportRepo repository.ExportRepository,
	publisher repository.ReportPublisher,
	console types.ConsoleInterface,
	logger *zap.Logger,
) *DashboardUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardUseCase{
		api:        api,
		credRepo:   credRepo,
		exportRepo: exportRepo,
		publisher:  publisher,
		console:    console,
		logger:     logger,
		now:        time.Now,
	}
}

// NewController cria um SyncController sem sessão que notifica pelo console.
func (uc *DashboardUseCase) NewController() *SyncController {
	return NewSyncController(uc.api, state.NewTransactionStore(), uc.console, uc.logger)
}

// StartSession carrega a credencial salva e inicia um controller com ela.
// Um token expirado é apagado do disco.
func (uc *DashboardUseCase) StartSession(ctx context.Context) (*SyncController, *entity.Credential, error) {
	cred, err := uc.credRepo.Load()
	if err != nil {
		if errors.Is(err, types.ErrTokenExpired) {
			if clearErr := uc.credRepo.Clear(); clearErr != nil {
				uc.logger.Warn("failed to clear expired credential", zap.Error(clearErr))
			}
		}
		return nil, nil, err
	}

	ctrl := uc.NewController()
	ctrl.OnAuthChange(ctx, cred.Token)
	return ctrl, cred, nil
}

// --- Autenticação ---

// RunLogin autentica, salva o token e mostra um resumo rápido da conta.
func (uc *DashboardUseCase) RunLogin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return &types.ValidationError{Field: "username", Message: "username and password required"}
	}

	ctrl := uc.NewController()
	status := uc.console.Status("Logging in...")
	token, err := ctrl.Login(ctx, username, password)
	if err != nil {
		status.Stop()
		return err
	}

	if err := uc.credRepo.Save(entity.Credential{Token: token, Username: username}); err != nil {
		status.Stop()
		return err
	}

	waitErr := ctrl.Wait()
	status.Stop()
	uc.console.LogSuccess("Logged in as %s", username)
	if waitErr != nil {
		return &ReportedError{Err: waitErr}
	}

	series := ctrl.Series()
	uc.console.LogInfo("%d categories, %s spent in total", len(series.Bar), formatAmount(series.GrandTotal))
	return nil
}

// RunRegister cria a conta e, se pedido, já faz o login.
func (uc *DashboardUseCase) RunRegister(ctx context.Context, username, email, password string, loginAfter bool) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return &types.ValidationError{Field: "username", Message: "username and password required"}
	}

	msg, err := uc.NewController().Register(ctx, username, email, password)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "User registered successfully"
	}
	uc.console.LogSuccess("%s", msg)

	if loginAfter {
		return uc.RunLogin(ctx, username, password)
	}
	return nil
}

// RunLogout apaga a credencial salva.
func (uc *DashboardUseCase) RunLogout() error {
	if err := uc.credRepo.Clear(); err != nil {
		return err
	}
	uc.console.LogSuccess("Logged out")
	return nil
}

// RunPing consulta o health check do servidor.
func (uc *DashboardUseCase) RunPing(ctx context.Context) error {
	msg, err := uc.api.Ping(ctx)
	if err != nil {
		return err
	}
	uc.console.LogSuccess("Server is up: %s", msg)
	return nil
}

// --- Leitura ---

// RunSummary mostra a tabela e os gráficos do resumo por categoria.
// Com Verify, confere o resumo do servidor contra o histórico completo.
func (uc *DashboardUseCase) RunSummary(ctx context.Context, args *types.CLIArgs) error {
	ctrl, cred, err := uc.StartSession(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Logout()

	if args.Verify {
		// O histórico completo vem no mesmo commit que o resumo.
		if err := ctrl.OpenHistory(); err != nil {
			return err
		}
		unbounded := entity.LimitUnbounded
		if err := ctrl.SetFilter(entity.FilterPatch{Limit: &unbounded}); err != nil {
			return err
		}
	}

	status := uc.console.Status("Loading summary...")
	err = ctrl.Wait()
	status.Stop()
	if err != nil {
		return &ReportedError{Err: err}
	}

	series := ctrl.Series()
	uc.RenderSummary(series)

	if args.Verify {
		uc.verifySummary(ctrl)
	}

	uc.exportReports(ctx, entity.DashboardReport{
		GeneratedAt: uc.now(),
		Username:    cred.Username,
		Series:      series,
	}, args)
	return nil
}

// RunHistory mostra o histórico com o filtro informado.
func (uc *DashboardUseCase) RunHistory(ctx context.Context, args *types.CLIArgs) error {
	patch, err := filterPatchFromArgs(args)
	if err != nil {
		return err
	}

	ctrl, cred, err := uc.StartSession(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Logout()

	if err := ctrl.OpenHistory(); err != nil {
		return err
	}
	if err := ctrl.SetFilter(patch); err != nil {
		return err
	}

	status := uc.console.Status("Loading history...")
	err = ctrl.Wait()
	status.Stop()
	if err != nil {
		return &ReportedError{Err: err}
	}

	history := ctrl.HistoryView()
	filter := ctrl.Filter()
	uc.RenderHistory(history, ctrl.Page(), filter, ctrl.CategoryOptions())

	uc.exportReports(ctx, entity.DashboardReport{
		GeneratedAt: uc.now(),
		Username:    cred.Username,
		Filter:      &filter,
		Series:      ctrl.Series(),
		History:     history,
	}, args)
	return nil
}

// --- Mutações ---

// RunDelete apaga uma transação e mostra o histórico atualizado.
func (uc *DashboardUseCase) RunDelete(ctx context.Context, id int64, args *types.CLIArgs) error {
	if !uc.confirm(args, fmt.Sprintf("Delete transaction %d?", id)) {
		uc.console.LogInfo("Cancelled")
		return nil
	}
	return uc.runMutation(ctx, args, func(ctrl *SyncController) error {
		return ctrl.DeleteOne(id)
	})
}

// RunDeleteAll apaga todo o histórico do usuário.
func (uc *DashboardUseCase) RunDeleteAll(ctx context.Context, args *types.CLIArgs) error {
	if !uc.confirm(args, "Are you sure you want to delete ALL your transaction history?") {
		uc.console.LogInfo("Cancelled")
		return nil
	}
	return uc.runMutation(ctx, args, func(ctrl *SyncController) error {
		return ctrl.DeleteAll()
	})
}

func (uc *DashboardUseCase) runMutation(ctx context.Context, args *types.CLIArgs, mutate func(*SyncController) error) error {
	ctrl, _, err := uc.StartSession(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Logout()

	if err := ctrl.OpenHistory(); err != nil {
		return err
	}
	if err := mutate(ctrl); err != nil {
		return err
	}

	waitErr := ctrl.Wait()
	uc.RenderHistory(ctrl.HistoryView(), ctrl.Page(), ctrl.Filter(), ctrl.CategoryOptions())
	if waitErr != nil {
		return &ReportedError{Err: waitErr}
	}
	return nil
}

// RunUpload envia um CSV, mostra a prévia categorizada e o resumo atualizado.
func (uc *DashboardUseCase) RunUpload(ctx context.Context, filePath string) error {
	ctrl, _, err := uc.StartSession(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Logout()

	return uc.upload(ctx, ctrl, filePath)
}

func (uc *DashboardUseCase) upload(ctx context.Context, ctrl *SyncController, filePath string) error {
	status := uc.console.Status("Uploading and categorizing...")
	result, err := ctrl.Upload(ctx, filePath)
	status.Stop()
	if err != nil {
		var validationErr *types.ValidationError
		if errors.As(err, &validationErr) {
			return err
		}
		return &ReportedError{Err: err}
	}

	uc.RenderUploadPreview(result)

	waitErr := ctrl.Wait()
	uc.RenderSummary(ctrl.Series())
	if waitErr != nil {
		return &ReportedError{Err: waitErr}
	}
	return nil
}

// --- Renderização ---

// RenderSummary imprime a tabela de categorias e os três gráficos.
func (uc *DashboardUseCase) RenderSummary(series entity.ChartSeries) {
	if len(series.Bar) == 0 {
		uc.console.LogInfo("No transactions yet. Upload a CSV to get started.")
		return
	}

	table := uc.console.CreateTable()
	table.AddColumn("Category")
	table.AddColumn("Total")
	table.AddColumn("%")
	table.AddColumn("Cumulative")
	for i, row := range series.Table {
		if i < len(series.Cumulative) {
			table.AddRow(row.Category, formatAmount(row.Total), formatPercent(row.Percentage), formatAmount(series.Cumulative[i].Value))
			continue
		}
		table.AddRow(
			pterm.Bold.Sprint(row.Category),
			pterm.Bold.Sprint(formatAmount(row.Total)),
			pterm.Bold.Sprint(formatPercent(row.Percentage)),
			pterm.Bold.Sprint(formatAmount(series.GrandTotal)),
		)
	}
	uc.console.Print(table.Render())

	uc.console.DisplayBarChart("Spending by Category", series.Bar)
	uc.console.DisplayBarChart("Share of Total (%)", series.Pie)
	uc.console.DisplayBarChart("Cumulative Spend", series.Cumulative)
}

// RenderHistory imprime o histórico filtrado e um rodapé com a paginação.
func (uc *DashboardUseCase) RenderHistory(records []entity.TransactionRecord, page entity.PageInfo, filter entity.FilterState, options []string) {
	if len(records) == 0 {
		uc.console.LogInfo("No transactions found.")
	} else {
		table := uc.console.CreateTable()
		table.AddColumn("ID")
		table.AddColumn("Date")
		table.AddColumn("Description")
		table.AddColumn("Amount")
		table.AddColumn("Category")
		for _, r := range records {
			table.AddRow(r.ID, r.Date, r.Description, formatAmount(r.Amount), r.Category)
		}
		uc.console.Print(table.Render())
	}

	limit := filter.Limit.String()
	if filter.Limit == entity.LimitAll {
		limit = "Max(1000)"
	}
	footer := fmt.Sprintf("Showing %d transaction(s) | category: %s | limit: %s", len(records), filter.Category, limit)
	if page.Pages > 0 {
		footer += fmt.Sprintf(" | total: %d, page %d/%d", page.Total, page.Page, page.Pages)
	}
	uc.console.Println(footer)

	if len(options) > 0 {
		uc.console.LogInfo("Categories: %s", strings.Join(options, ", "))
	}
}

// RenderUploadPreview mostra as primeiras linhas categorizadas pelo servidor.
func (uc *DashboardUseCase) RenderUploadPreview(result entity.UploadResult) {
	uc.console.LogSuccess("%d transaction(s) imported", result.Inserted)
	if len(result.Transactions) == 0 {
		return
	}

	table := uc.console.CreateTable()
	table.AddColumn("Date")
	table.AddColumn("Description")
	table.AddColumn("Amount")
	table.AddColumn("Category")
	for i, r := range result.Transactions {
		if i == previewRows {
			break
		}
		table.AddRow(r.Date, r.Description, formatAmount(r.Amount), r.Category)
	}
	uc.console.Print(table.Render())
	if len(result.Transactions) > previewRows {
		uc.console.Println(fmt.Sprintf("... and %d more", len(result.Transactions)-previewRows))
	}
}

// verifySummary compara o resumo do servidor com o derivado do histórico do mesmo commit.
func (uc *DashboardUseCase) verifySummary(ctrl *SyncController) {
	page := ctrl.Page()
	if page.Pages > 1 {
		uc.console.LogWarning("History has %d pages; verification only covers the first %d transactions", page.Pages, len(ctrl.HistoryView()))
	}

	derived := view.Summarize(ctrl.HistoryView())
	mismatches := view.DiffSummaries(ctrl.Summary(), derived, summaryTolerance)
	if len(mismatches) == 0 {
		uc.console.LogSuccess("Server summary matches the transaction history")
		return
	}

	table := uc.console.CreateTable()
	table.AddColumn("Category")
	table.AddColumn("Server")
	table.AddColumn("From history")
	for _, m := range mismatches {
		table.AddRow(m.Category, formatAmount(m.Server), formatAmount(m.Derived))
	}
	uc.console.LogWarning("%d categor(ies) disagree with the transaction history", len(mismatches))
	uc.console.Print(table.Render())
}

// exportReports grava os relatórios pedidos e, se houver publisher, envia cada um.
func (uc *DashboardUseCase) exportReports(ctx context.Context, report entity.DashboardReport, args *types.CLIArgs) {
	if args.ReportName == "" || len(args.ReportType) == 0 {
		return
	}

	for _, reportType := range args.ReportType {
		var (
			path string
			err  error
		)
		switch strings.ToLower(reportType) {
		case "csv":
			path, err = uc.exportRepo.ExportToCSV(report, args.ReportName, args.Dir)
		case "json":
			path, err = uc.exportRepo.ExportToJSON(report, args.ReportName, args.Dir)
		case "pdf":
			path, err = uc.exportRepo.ExportToPDF(report, args.ReportName, args.Dir)
		default:
			uc.console.LogWarning("Unknown report type: %s", reportType)
			continue
		}

		label := strings.ToUpper(reportType)
		if err != nil {
			uc.console.LogError("Failed to export to %s: %s", label, err)
			continue
		}
		uc.console.LogSuccess("Successfully exported to %s: %s", label, path)

		if uc.publisher != nil {
			uri, err := uc.publisher.Publish(ctx, path)
			if err != nil {
				uc.console.LogError("Failed to publish %s report: %s", label, err)
				continue
			}
			uc.console.LogSuccess("Published %s report to %s", label, uri)
		}
	}
}

func (uc *DashboardUseCase) confirm(args *types.CLIArgs, question string) bool {
	if args != nil && args.Yes {
		return true
	}
	return uc.console.Confirm(question)
}

// filterPatchFromArgs converte --category/--limit num patch de filtro.
func filterPatchFromArgs(args *types.CLIArgs) (entity.FilterPatch, error) {
	var patch entity.FilterPatch
	if args.Category != "" {
		category := args.Category
		patch.Category = &category
	}
	if args.Limit != "" {
		limit, err := view.ParseLimit(args.Limit)
		if err != nil {
			return entity.FilterPatch{}, err
		}
		patch.Limit = &limit
	}
	return patch, nil
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
