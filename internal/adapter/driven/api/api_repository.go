package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

const (
	// DefaultBaseURL é o endereço do servidor de desenvolvimento.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTimeout é o tempo máximo de uma requisição.
	DefaultTimeout = 15 * time.Second

	maxBodySize = 10 << 20
)

// Options configura o cliente HTTP.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// APIRepositoryImpl implementa o FinTrackAPI sobre HTTP/JSON.
type APIRepositoryImpl struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewAPIRepository cria um novo cliente para o servidor FinTrack.
func NewAPIRepository(opts Options) repository.FinTrackAPI {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &APIRepositoryImpl{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		cb:         newCircuitBreaker("fintrack-api", opts.Logger),
		logger:     opts.Logger,
	}
}

// newCircuitBreaker abre o circuito quando a maioria das chamadas recentes falhou
// por transporte ou 5xx. Respostas 4xx são erros do usuário e não contam.
func newCircuitBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var serverErr *types.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Status < http.StatusInternalServerError
	}
	var authErr *types.AuthError
	var validationErr *types.ValidationError
	return errors.As(err, &authErr) || errors.As(err, &validationErr)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type summaryResponse struct {
	Summary []entity.CategorySummaryEntry `json:"summary"`
}

// Login troca usuário (ou e-mail) e senha por um token.
func (r *APIRepositoryImpl) Login(ctx context.Context, username, password string) (string, error) {
	body, err := jsonBody(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := r.do(ctx, http.MethodPost, "/api/login", "", nil, body, "application/json", &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Register cria um novo usuário e devolve a mensagem de confirmação.
func (r *APIRepositoryImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	body, err := jsonBody(registerRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := r.do(ctx, http.MethodPost, "/api/register", "", nil, body, "application/json", &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Ping consulta o endpoint de health check.
func (r *APIRepositoryImpl) Ping(ctx context.Context) (string, error) {
	var resp messageResponse
	if err := r.do(ctx, http.MethodGet, "/api/hello", "", nil, nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetSummary returns the per-category totals of every transaction of the user.
func (r *APIRepositoryImpl) GetSummary(ctx context.Context, token string) ([]entity.CategorySummaryEntry, error) {
	var resp summaryResponse
	if err := r.do(ctx, http.MethodGet, "/api/summary", token, nil, nil, "", &resp); err != nil {
		return nil, err
	}
	if resp.Summary == nil {
		resp.Summary = []entity.CategorySummaryEntry{}
	}
	return resp.Summary, nil
}

// GetHistory busca as transações com o filtro aplicado no servidor.
// "All" não envia parâmetro: o servidor usa o próprio padrão.
// LimitUnbounded envia limit=all.
func (r *APIRepositoryImpl) GetHistory(ctx context.Context, token string, filter entity.FilterState) (entity.HistoryPage, error) {
	query := url.Values{}
	if filter.Category != "" && filter.Category != entity.AllCategories {
		query.Set("category", filter.Category)
	}
	switch filter.Limit {
	case entity.LimitAll:
	case entity.LimitUnbounded:
		query.Set("limit", "all")
	default:
		query.Set("limit", strconv.Itoa(int(filter.Limit)))
	}

	var page entity.HistoryPage
	if err := r.do(ctx, http.MethodGet, "/api/history", token, query, nil, "", &page); err != nil {
		return entity.HistoryPage{}, err
	}
	if page.Transactions == nil {
		page.Transactions = []entity.TransactionRecord{}
	}
	return page, nil
}

// DeleteTransaction remove uma transação pelo id.
func (r *APIRepositoryImpl) DeleteTransaction(ctx context.Context, token string, id int64) (string, error) {
	var resp messageResponse
	path := fmt.Sprintf("/api/delete-transaction/%d", id)
	if err := r.do(ctx, http.MethodDelete, path, token, nil, nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DeleteAllTransactions remove todo o histórico do usuário.
func (r *APIRepositoryImpl) DeleteAllTransactions(ctx context.Context, token string) (string, error) {
	var resp messageResponse
	if err := r.do(ctx, http.MethodDelete, "/api/delete-all-transactions", token, nil, nil, "", &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// UploadCSV envia o arquivo no campo multipart "file" e devolve a prévia categorizada.
func (r *APIRepositoryImpl) UploadCSV(ctx context.Context, token string, filePath string) (entity.UploadResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return entity.UploadResult{}, &types.ValidationError{Field: "file", Message: err.Error()}
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return entity.UploadResult{}, fmt.Errorf("error creating multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return entity.UploadResult{}, fmt.Errorf("error reading %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return entity.UploadResult{}, fmt.Errorf("error creating multipart body: %w", err)
	}

	var result entity.UploadResult
	if err := r.do(ctx, http.MethodPost, "/api/upload-csv", token, nil, buf.Bytes(), writer.FormDataContentType(), &result); err != nil {
		return entity.UploadResult{}, err
	}
	if result.Transactions == nil {
		result.Transactions = []entity.TransactionRecord{}
	}
	if result.Inserted == 0 {
		result.Inserted = len(result.Transactions)
	}
	return result, nil
}

// do executa uma requisição dentro do circuit breaker e decodifica a resposta em out.
func (r *APIRepositoryImpl) do(
	ctx context.Context,
	method, path, token string,
	query url.Values,
	body []byte,
	contentType string,
	out any,
) error {
	op := method + " " + path
	requestID := uuid.NewString()
	start := time.Now()

	endpoint := r.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	_, err := r.cb.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("error building request %s: %w", op, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if token != "" {
			// O servidor lê o token cru, sem o prefixo "Bearer".
			req.Header.Set("Authorization", token)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, &types.NetworkError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return nil, &types.NetworkError{Op: op, Err: err}
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError(resp.StatusCode, data)
		}

		if out != nil && len(bytes.TrimSpace(data)) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return nil, fmt.Errorf("error decoding %s response: %w", op, err)
			}
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = &types.NetworkError{Op: op, Err: err}
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		r.logger.Debug("api request failed", append(fields, zap.Error(err))...)
		return err
	}
	r.logger.Debug("api request", fields...)
	return nil
}

// statusError traduz uma resposta não-2xx para a taxonomia de erros.
func statusError(status int, body []byte) error {
	var payload errorResponse
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if status == http.StatusUnauthorized {
		return &types.AuthError{Message: message}
	}
	return &types.ServerError{Status: status, Message: message}
}

func jsonBody(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("error encoding request: %w", err)
	}
	return data, nil
}
