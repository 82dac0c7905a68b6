package console

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/diillson/fintrack-dashboard-go/internal/domain/entity"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
	"github.com/pterm/pterm"
)

// barWidth é o comprimento da maior barra, em caracteres.
const barWidth = 40

// Console é uma implementação do ConsoleInterface.
type Console struct{}

// NewConsole cria um novo Console.
func NewConsole() *Console {
	return &Console{}
}

// Print imprime no console.
func (c *Console) Print(a ...interface{}) {
	fmt.Print(a...)
}

// Printf imprime uma string formatada no console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

// Println imprime no console com uma nova linha.
func (c *Console) Println(a ...interface{}) {
	fmt.Println(a...)
}

// LogInfo registra uma mensagem de informação.
func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

// LogWarning registra uma mensagem de aviso.
func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

// LogError registra uma mensagem de erro.
func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

// LogSuccess registra uma mensagem de sucesso.
func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// statusHandle é uma implementação do StatusHandle.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status cria um spinner de status com a mensagem especificada.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.Start(message)
	return &statusHandle{spinner: spinner}
}

// Cores predefinidas para uso consistente
var (
	BrightMagenta = color.New(color.FgMagenta, color.Bold).SprintFunc()
	BoldRed       = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightGreen   = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightYellow  = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightCyan    = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Update atualiza a mensagem de status.
func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

// Stop pára o spinner de status.
func (h *statusHandle) Stop() {
	if h.spinner != nil {
		h.spinner.Stop()
	}
}

// Table é uma implementação do TableInterface.
type Table struct {
	columns []string
	rows    [][]string
}

// CreateTable cria uma nova tabela.
func (c *Console) CreateTable() types.TableInterface {
	return &Table{
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn adiciona uma coluna à tabela.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow adiciona uma linha à tabela.
func (t *Table) AddRow(cells ...interface{}) {
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renderiza a tabela como uma string.
func (t *Table) Render() string {
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	return renderedTable
}

// DisplayBarChart desenha barras horizontais proporcionais ao maior valor,
// dentro de um painel com o título informado.
func (c *Console) DisplayBarChart(title string, points []entity.SeriesPoint) {
	if len(points) == 0 {
		pterm.Warning.Println("No data to chart yet")
		return
	}

	maxValue := 0.0
	for _, p := range points {
		if p.Value > maxValue {
			maxValue = p.Value
		}
	}

	tableData := pterm.TableData{{"Category", "Value", ""}}
	for _, p := range points {
		bar := ""
		if maxValue > 0 && p.Value > 0 {
			bar = strings.Repeat("█", barLength(p.Value, maxValue))
		}
		tableData = append(tableData, []string{
			p.Label,
			fmt.Sprintf("%.2f", p.Value),
			pterm.FgBlue.Sprint(bar),
		})
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(tableData)
	renderedTable, _ := table.Srender()

	panel := pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).Sprint(renderedTable)
	fmt.Println("\n" + panel)
}

// barLength escala o valor para [1, barWidth]. Valores positivos sempre têm ao menos um bloco.
func barLength(value, maxValue float64) int {
	n := int((value / maxValue) * barWidth)
	if n < 1 {
		n = 1
	}
	if n > barWidth {
		n = barWidth
	}
	return n
}

// DisplayPanel imprime um texto dentro de uma caixa com título.
func (c *Console) DisplayPanel(title string, body string) {
	panel := pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).Sprint(body)
	fmt.Println("\n" + panel)
}

// Confirm pergunta sim/não no terminal. Qualquer erro de leitura conta como "não".
func (c *Console) Confirm(question string) bool {
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultText(question).Show()
	if err != nil {
		return false
	}
	return ok
}
