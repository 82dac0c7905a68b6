package cli

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/diillson/fintrack-dashboard-go/internal/application/usecase"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

type fakeConfigRepo struct {
	file *types.Config
	env  types.Config
}

func (f *fakeConfigRepo) LoadConfigFile(string) (*types.Config, error) {
	if f.file == nil {
		return nil, errors.New("no such file")
	}
	return f.file, nil
}

func (f *fakeConfigRepo) LoadEnv() types.Config { return f.env }

var errStop = errors.New("stop")

// captureArgs executa o CLI e devolve os argumentos que chegariam ao caso de uso.
func captureArgs(t *testing.T, repo *fakeConfigRepo, argv ...string) (*types.CLIArgs, error) {
	t.Helper()
	var captured *types.CLIArgs
	factory := func(ctx context.Context, args *types.CLIArgs) (*usecase.DashboardUseCase, func(), error) {
		captured = args
		return nil, nil, errStop
	}

	app := NewCLIApp("test", repo, factory)
	app.SetArgs(argv)
	err := app.Execute()
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return captured, nil
}

func TestParseArgs_Defaults(t *testing.T) {
	args, err := captureArgs(t, &fakeConfigRepo{}, "summary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.APIURL != defaultAPIURL || args.Timeout != defaultTimeout {
		t.Errorf("unexpected defaults %+v", args)
	}
	if !reflect.DeepEqual(args.ReportType, []string{"csv"}) {
		t.Errorf("unexpected report types %v", args.ReportType)
	}
}

func TestParseArgs_Precedence(t *testing.T) {
	repo := &fakeConfigRepo{
		file: &types.Config{APIURL: "http://file:5000", Timeout: "20s", LogLevel: "info", ReportType: []string{"pdf"}},
		env:  types.Config{APIURL: "http://env:5000", LogLevel: "debug"},
	}

	tests := []struct {
		name    string
		argv    []string
		wantURL string
		wantLog string
		wantTO  time.Duration
	}{
		{"env beats file", []string{"summary", "-C", "conf.toml"}, "http://env:5000", "debug", 20 * time.Second},
		{"flag beats env", []string{"summary", "-C", "conf.toml", "--api-url", "http://flag:5000", "--timeout", "3s"}, "http://flag:5000", "debug", 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := captureArgs(t, repo, tt.argv...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if args.APIURL != tt.wantURL || args.LogLevel != tt.wantLog || args.Timeout != tt.wantTO {
				t.Errorf("got url=%s log=%s timeout=%s", args.APIURL, args.LogLevel, args.Timeout)
			}
			if !reflect.DeepEqual(args.ReportType, []string{"pdf"}) {
				t.Errorf("expected report type from file, got %v", args.ReportType)
			}
		})
	}
}

func TestParseArgs_SubcommandFlags(t *testing.T) {
	args, err := captureArgs(t, &fakeConfigRepo{}, "history", "--category", "Food", "--limit", "10", "--yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Category != "Food" || args.Limit != "10" || !args.Yes {
		t.Errorf("unexpected args %+v", args)
	}

	args, err = captureArgs(t, &fakeConfigRepo{}, "summary", "--verify")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !args.Verify {
		t.Error("expected --verify to be set")
	}
}

func TestParseArgs_Errors(t *testing.T) {
	if _, err := captureArgs(t, &fakeConfigRepo{}, "summary", "-C", "missing.toml"); err == nil {
		t.Error("expected error for unreadable config file")
	}

	repo := &fakeConfigRepo{env: types.Config{Timeout: "soon"}}
	if _, err := captureArgs(t, repo, "summary"); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func TestDeleteRequiresID(t *testing.T) {
	if _, err := captureArgs(t, &fakeConfigRepo{}, "delete"); err == nil {
		t.Error("expected usage error without id")
	}
}

func TestApplyConfig(t *testing.T) {
	args := &types.CLIArgs{APIURL: defaultAPIURL, Timeout: defaultTimeout}
	changed := func(flag string) bool { return flag == "s3-bucket" }

	err := ApplyConfig(args, types.Config{APIURL: "http://x", S3Bucket: "ignored", Timeout: "1m"}, changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.APIURL != "http://x" || args.Timeout != time.Minute || args.S3Bucket != "" {
		t.Errorf("unexpected args %+v", args)
	}

	if err := ApplyConfig(args, types.Config{Timeout: "-1s"}, changed); err == nil {
		t.Error("expected error for negative timeout")
	}
}
