package usecase_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
)

// fakeConsole grava tudo o que seria impresso.
type fakeConsole struct {
	mu       sync.Mutex
	out      strings.Builder
	errors   []string
	warnings []string
	success  []string
	charts   []string
	confirm  bool
	asked    []string
}

func (c *fakeConsole) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out.WriteString(s)
}

func (c *fakeConsole) Print(a ...interface{})                 { c.write(fmt.Sprint(a...)) }
func (c *fakeConsole) Printf(format string, a ...interface{}) { c.write(fmt.Sprintf(format, a...)) }
func (c *fakeConsole) Println(a ...interface{})               { c.write(fmt.Sprintln(a...)) }

func (c *fakeConsole) LogInfo(format string, a ...interface{}) {
	c.write(fmt.Sprintf(format, a...) + "\n")
}

func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogError(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogSuccess(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success = append(c.success, fmt.Sprintf(format, a...))
}

type noopStatus struct{}

func (noopStatus) Update(string) {}
func (noopStatus) Stop()         {}

func (c *fakeConsole) Status(string) types.StatusHandle { return noopStatus{} }

func (c *fakeConsole) CreateTable() types.TableInterface { return &fakeTable{} }

func (c *fakeConsole) DisplayBarChart(title string, points []entity.SeriesPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charts = append(c.charts, title)
}

func (c *fakeConsole) DisplayPanel(title, body string) { c.write(title + "\n" + body + "\n") }

func (c *fakeConsole) Confirm(question string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, question)
	return c.confirm
}

func (c *fakeConsole) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

type fakeTable struct {
	rows []string
}

func (t *fakeTable) AddColumn(name string, options ...interface{}) {}

func (t *fakeTable) AddRow(cells ...interface{}) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	t.rows = append(t.rows, strings.Join(parts, " | "))
}

func (t *fakeTable) Render() string { return strings.Join(t.rows, "\n") + "\n" }

// fakeCredentials guarda a credencial em memória.
type fakeCredentials struct {
	cred    *entity.Credential
	loadErr error
	cleared bool
}

func (f *fakeCredentials) Load() (*entity.Credential, error) {
	if f.loadErr != nil {
		return f.cred, f.loadErr
	}
	if f.cred == nil {
		return nil, types.ErrNotAuthenticated
	}
	c := *f.cred
	return &c, nil
}

func (f *fakeCredentials) Save(cred entity.Credential) error {
	f.cred = &cred
	return nil
}

func (f *fakeCredentials) Clear() error {
	f.cred = nil
	f.cleared = true
	return nil
}

// fakeExporter só registra o que foi pedido.
type fakeExporter struct {
	reports []entity.DashboardReport
	kinds   []string
}

func (f *fakeExporter) record(kind string, report entity.DashboardReport, filename string) (string, error) {
	f.kinds = append(f.kinds, kind)
	f.reports = append(f.reports, report)
	return "/tmp/" + filename + "." + kind, nil
}

func (f *fakeExporter) ExportToCSV(report entity.DashboardReport, filename, outputDir string) (string, error) {
	return f.record("csv", report, filename)
}

func (f *fakeExporter) ExportToJSON(report entity.DashboardReport, filename, outputDir string) (string, error) {
	return f.record("json", report, filename)
}

func (f *fakeExporter) ExportToPDF(report entity.DashboardReport, filename, outputDir string) (string, error) {
	return f.record("pdf", report, filename)
}

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(ctx context.Context, localPath string) (string, error) {
	f.published = append(f.published, localPath)
	return "s3://bucket/" + localPath, nil
}
