package usecase

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/view"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

const shellHelp = `Commands:
  summary               show the category summary and charts
  history               open the transaction history
  category <name|All>   filter the history by category
  limit <All|10|50|100> limit the number of history rows
  delete <id>           delete one transaction
  delete-all            delete the whole history
  close                 close the history view
  upload <file.csv>     upload a bank statement
  logout                log out and leave the shell
  quit                  leave the shell`

// SessionUseCase é o shell interativo: um único SyncController vive durante
// toda a sessão e cada linha digitada vira um gatilho.
type SessionUseCase struct {
	dashboard *DashboardUseCase
	console   types.ConsoleInterface
	in        io.Reader
}

// NewSessionUseCase cria o shell lendo comandos de in.
func NewSessionUseCase(dashboard *DashboardUseCase, in io.Reader) *SessionUseCase {
	return &SessionUseCase{
		dashboard: dashboard,
		console:   dashboard.console,
		in:        in,
	}
}

// Run executa o shell até "quit", "logout" ou fim da entrada.
func (s *SessionUseCase) Run(ctx context.Context, args *types.CLIArgs) error {
	ctrl, cred, err := s.dashboard.StartSession(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Logout()

	if cred.Username != "" {
		s.console.LogInfo("Welcome back, %s. Type 'help' for commands.", cred.Username)
	} else {
		s.console.LogInfo("Session started. Type 'help' for commands.")
	}
	if err := ctrl.Wait(); err == nil {
		s.dashboard.RenderSummary(ctrl.Series())
	}

	scanner := bufio.NewScanner(s.in)
	for {
		s.console.Print("fintrack> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		done, err := s.execute(ctx, ctrl, line, args)
		if err != nil {
			s.report(err)
		}
		if done {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// execute roda uma linha de comando. done indica que o shell deve terminar.
func (s *SessionUseCase) execute(ctx context.Context, ctrl *SyncController, line string, args *types.CLIArgs) (done bool, err error) {
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "help", "?":
		s.console.DisplayPanel("Commands", shellHelp)

	case "summary":
		if err := ctrl.Wait(); err != nil {
			return false, &ReportedError{Err: err}
		}
		s.dashboard.RenderSummary(ctrl.Series())

	case "history":
		if err := ctrl.OpenHistory(); err != nil {
			return false, err
		}
		return false, s.showHistory(ctrl)

	case "category":
		if rest == "" {
			return false, &types.ValidationError{Field: "category", Message: "usage: category <name|All>"}
		}
		if err := ctrl.SetFilter(entity.FilterPatch{Category: &rest}); err != nil {
			return false, err
		}
		return false, s.showHistory(ctrl)

	case "limit":
		limit, err := view.ParseLimit(rest)
		if err != nil {
			return false, err
		}
		if err := ctrl.SetFilter(entity.FilterPatch{Limit: &limit}); err != nil {
			return false, err
		}
		return false, s.showHistory(ctrl)

	case "delete":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return false, &types.ValidationError{Field: "id", Message: fmt.Sprintf("invalid transaction id %q", rest)}
		}
		if !s.dashboard.confirm(args, fmt.Sprintf("Delete transaction %d?", id)) {
			s.console.LogInfo("Cancelled")
			return false, nil
		}
		if err := ctrl.DeleteOne(id); err != nil {
			return false, err
		}
		return false, s.showHistory(ctrl)

	case "delete-all":
		if !s.dashboard.confirm(args, "Are you sure you want to delete ALL your transaction history?") {
			s.console.LogInfo("Cancelled")
			return false, nil
		}
		if err := ctrl.DeleteAll(); err != nil {
			return false, err
		}
		return false, s.showHistory(ctrl)

	case "close":
		if err := ctrl.CloseHistory(); err != nil {
			return false, err
		}
		if err := ctrl.Wait(); err != nil {
			return false, &ReportedError{Err: err}
		}
		s.dashboard.RenderSummary(ctrl.Series())

	case "upload":
		return false, s.dashboard.upload(ctx, ctrl, rest)

	case "logout":
		ctrl.OnAuthChange(ctx, "")
		return true, s.dashboard.RunLogout()

	case "quit", "exit":
		return true, nil

	default:
		s.console.LogWarning("Unknown command %q. Type 'help' for commands.", verb)
	}
	return false, nil
}

// showHistory espera os fetches pendentes e mostra a visão filtrada.
// Em caso de falha o último snapshot continua sendo exibido.
func (s *SessionUseCase) showHistory(ctrl *SyncController) error {
	waitErr := ctrl.Wait()
	s.dashboard.RenderHistory(ctrl.HistoryView(), ctrl.Page(), ctrl.Filter(), ctrl.CategoryOptions())
	if waitErr != nil {
		return &ReportedError{Err: waitErr}
	}
	return nil
}

// report mostra erros que ainda não chegaram ao usuário.
func (s *SessionUseCase) report(err error) {
	var reported *ReportedError
	if errors.As(err, &reported) {
		return
	}
	if errors.Is(err, types.ErrHistoryClosed) {
		s.console.LogWarning("Open the history first with 'history'")
		return
	}
	s.console.LogError("%s", err)
}
