package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

const testToken = "header.payload.signature"

// fakeServer reproduz as rotas do servidor FinTrack usadas pelo cliente.
type fakeServer struct {
	mu         sync.Mutex
	queries    []string
	requestIDs []string
	uploaded   string
	uploadName string
	failures   int
	deletes    []string
}

func (s *fakeServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.mu.Lock()
			s.requestIDs = append(s.requestIDs, req.Header.Get("X-Request-ID"))
			s.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/hello", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from Flask!"})
	})

	r.Post("/api/login", func(w http.ResponseWriter, req *http.Request) {
		var body loginRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.Username == "" || body.Password == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password required"})
			return
		}
		if body.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": testToken})
	})

	r.Post("/api/register", func(w http.ResponseWriter, req *http.Request) {
		var body registerRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.Username == "taken" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
	})

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if req.Header.Get("Authorization") != testToken {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token missing"})
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/api/summary", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"summary": []map[string]any{
					{"category": "Food", "total": 125.0},
					{"category": "Transport", "total": 50.0},
				},
			})
		})

		r.Get("/api/history", func(w http.ResponseWriter, req *http.Request) {
			s.mu.Lock()
			s.queries = append(s.queries, req.URL.RawQuery)
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{
				"transactions": []map[string]any{
					{"id": 1, "date": "2024-01-01", "description": "Swiggy", "amount": 100.0, "category": "Food"},
				},
				"total": 1, "page": 1, "pages": 1,
			})
		})

		r.Delete("/api/delete-transaction/{id}", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			s.mu.Lock()
			s.deletes = append(s.deletes, id)
			s.mu.Unlock()
			if id == "404" {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Transaction not found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
		})

		r.Delete("/api/delete-all-transactions", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "3 transactions deleted successfully"})
		})

		r.Post("/api/upload-csv", func(w http.ResponseWriter, req *http.Request) {
			file, header, err := req.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
				return
			}
			defer file.Close()
			data, _ := io.ReadAll(file)
			s.mu.Lock()
			s.uploaded = string(data)
			s.uploadName = header.Filename
			s.mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]any{
				"transactions": []map[string]any{
					{"date": "2024-02-01", "description": "Uber Ride", "amount": 80.0, "category": "Transport"},
				},
				"inserted": 1,
			})
		})
	})

	r.Get("/api/broken", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*APIRepositoryImpl, *fakeServer) {
	t.Helper()
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.router())
	t.Cleanup(srv.Close)

	client := NewAPIRepository(Options{BaseURL: srv.URL + "/", Logger: zap.NewNop()}).(*APIRepositoryImpl)
	return client, fs
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	token, err := client.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != testToken {
		t.Errorf("expected token %q, got %q", testToken, token)
	}

	_, err = client.Login(ctx, "alice", "wrong")
	var authErr *types.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Errorf("expected server message, got %q", authErr.Message)
	}
}

func TestRegister(t *testing.T) {
	client, _ := newTestClient(t)

	msg, err := client.Register(context.Background(), "alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "User registered successfully" {
		t.Errorf("unexpected message %q", msg)
	}

	_, err = client.Register(context.Background(), "taken", "", "secret")
	var serverErr *types.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Status != http.StatusBadRequest || serverErr.Message != "User already exists" {
		t.Errorf("unexpected server error %+v", serverErr)
	}
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t)

	msg, err := client.Ping(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Hello from Flask!" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestGetSummary(t *testing.T) {
	client, _ := newTestClient(t)

	summary, err := client.GetSummary(context.Background(), testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []entity.CategorySummaryEntry{{Category: "Food", Total: 125}, {Category: "Transport", Total: 50}}
	if !reflect.DeepEqual(summary, want) {
		t.Errorf("expected %v, got %v", want, summary)
	}

	_, err = client.GetSummary(context.Background(), "")
	var authErr *types.AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("expected AuthError without token, got %v", err)
	}
}

func TestGetHistory_QueryParams(t *testing.T) {
	tests := []struct {
		name   string
		filter entity.FilterState
		want   string
	}{
		{"default filter sends nothing", entity.DefaultFilter(), ""},
		{"category only", entity.FilterState{Category: "Food", Limit: entity.LimitAll}, "category=Food"},
		{"limit only", entity.FilterState{Category: entity.AllCategories, Limit: 50}, "limit=50"},
		{"both", entity.FilterState{Category: "Food & Drinks", Limit: 10}, "category=Food+%26+Drinks&limit=10"},
		{"unbounded", entity.FilterState{Category: entity.AllCategories, Limit: entity.LimitUnbounded}, "limit=all"},
	}

	client, fs := newTestClient(t)
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := client.GetHistory(context.Background(), testToken, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Transactions) != 1 || page.Total != 1 || page.Pages != 1 {
				t.Errorf("unexpected page %+v", page)
			}
			fs.mu.Lock()
			got := fs.queries[i]
			fs.mu.Unlock()
			if got != tt.want {
				t.Errorf("expected query %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	client, fs := newTestClient(t)

	msg, err := client.DeleteTransaction(context.Background(), testToken, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Transaction deleted successfully" {
		t.Errorf("unexpected message %q", msg)
	}

	_, err = client.DeleteTransaction(context.Background(), testToken, 404)
	var serverErr *types.ServerError
	if !errors.As(err, &serverErr) || serverErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 ServerError, got %v", err)
	}
	if serverErr.Message != "Transaction not found" {
		t.Errorf("unexpected message %q", serverErr.Message)
	}

	if !reflect.DeepEqual(fs.deletes, []string{"7", "404"}) {
		t.Errorf("unexpected delete calls %v", fs.deletes)
	}
}

func TestDeleteAllTransactions(t *testing.T) {
	client, _ := newTestClient(t)

	msg, err := client.DeleteAllTransactions(context.Background(), testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "3 transactions deleted successfully" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestUploadCSV(t *testing.T) {
	client, fs := newTestClient(t)

	content := "Date,Description,Amount\n2024-02-01,Uber Ride,80\n"
	path := filepath.Join(t.TempDir(), "statement.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := client.UploadCSV(context.Background(), testToken, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inserted != 1 || len(result.Transactions) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Transactions[0].Category != "Transport" {
		t.Errorf("unexpected category %q", result.Transactions[0].Category)
	}
	if fs.uploaded != content || fs.uploadName != "statement.csv" {
		t.Errorf("server received %q as %q", fs.uploaded, fs.uploadName)
	}

	_, err = client.UploadCSV(context.Background(), testToken, filepath.Join(t.TempDir(), "missing.csv"))
	var validationErr *types.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRequestIDIsUniquePerCall(t *testing.T) {
	client, fs := newTestClient(t)

	for i := 0; i < 3; i++ {
		if _, err := client.Ping(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	seen := map[string]bool{}
	for _, id := range fs.requestIDs {
		if id == "" {
			t.Fatal("missing X-Request-ID header")
		}
		if seen[id] {
			t.Errorf("duplicated request id %s", id)
		}
		seen[id] = true
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewAPIRepository(Options{BaseURL: url})
	_, err := client.Ping(context.Background())

	var netErr *types.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if !strings.Contains(netErr.Op, "/api/hello") {
		t.Errorf("expected op to name the endpoint, got %q", netErr.Op)
	}
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	client, fs := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := client.do(ctx, http.MethodGet, "/api/broken", "", nil, nil, "", nil)
		var serverErr *types.ServerError
		if !errors.As(err, &serverErr) || serverErr.Status != http.StatusInternalServerError {
			t.Fatalf("call %d: expected 500 ServerError, got %v", i, err)
		}
	}

	err := client.do(ctx, http.MethodGet, "/api/broken", "", nil, nil, "", nil)
	var netErr *types.NetworkError
	if !errors.As(err, &netErr) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open circuit as NetworkError, got %v", err)
	}
	if fs.failures != 5 {
		t.Errorf("expected the open circuit to fail fast, server saw %d calls", fs.failures)
	}
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := client.DeleteTransaction(ctx, testToken, 404)
		var serverErr *types.ServerError
		if !errors.As(err, &serverErr) {
			t.Fatalf("call %d: expected ServerError, got %v", i, err)
		}
	}
	if client.cb.State() != gobreaker.StateClosed {
		t.Errorf("4xx responses must not open the circuit, state is %s", client.cb.State())
	}
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"not found", &types.ServerError{Status: 404}, true},
		{"internal", &types.ServerError{Status: 500}, false},
		{"auth", &types.AuthError{Message: "Token expired"}, true},
		{"validation", types.ErrNoFileSelected, true},
		{"network", &types.NetworkError{Op: "GET /", Err: io.ErrUnexpectedEOF}, false},
		{"cancelled", &types.NetworkError{Op: "GET /", Err: context.Canceled}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSuccessful(tt.err); got != tt.want {
				t.Errorf("isSuccessful(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
