package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/diillson/fintrack-dashboard-go/internal/application/usecase"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
	"github.com/diillson/fintrack-dashboard-go/pkg/version"
)

const (
	defaultAPIURL  = "http://localhost:5000"
	defaultTimeout = 15 * time.Second
)

// UseCaseFactory monta o caso de uso depois que flags, ambiente e arquivo
// de configuração foram combinados. cleanup é chamado ao fim do comando.
type UseCaseFactory func(ctx context.Context, args *types.CLIArgs) (uc *usecase.DashboardUseCase, cleanup func(), err error)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	configRepo repository.ConfigRepository
	factory    UseCaseFactory
	version    string
	in         io.Reader
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string, configRepo repository.ConfigRepository, factory UseCaseFactory) *CLIApp {
	app := &CLIApp{
		configRepo: configRepo,
		factory:    factory,
		version:    versionStr,
		in:         os.Stdin,
	}

	rootCmd := &cobra.Command{
		Use:           "fintrack",
		Short:         "FinTrack personal finance dashboard CLI",
		Version:       version.FormatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayWelcomeBanner(app.version)
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "FinTrack CLI version: %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.String("api-url", defaultAPIURL, "FinTrack server base URL")
	flags.Duration("timeout", defaultTimeout, "Timeout for each API request")
	flags.String("log-level", "", "Diagnostic log level written to stderr (debug, info, warn, error)")
	flags.String("credentials", "", "Credentials file (default: $HOME/.fintrack/credentials.yaml)")
	flags.StringP("report-name", "n", "", "Specify the base name for the report file (without extension)")
	flags.StringSliceP("report-type", "y", []string{"csv"}, "Specify report types: csv, json, pdf")
	flags.StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	flags.String("s3-bucket", "", "Publish exported reports to this S3 bucket")
	flags.String("s3-prefix", "", "Key prefix for published reports")
	flags.String("aws-profile", "", "AWS profile used to publish reports")
	flags.Bool("yes", false, "Do not ask for confirmation before deleting")

	rootCmd.AddCommand(
		app.loginCmd(),
		app.registerCmd(),
		app.logoutCmd(),
		app.summaryCmd(),
		app.historyCmd(),
		app.deleteCmd(),
		app.deleteAllCmd(),
		app.uploadCmd(),
		app.shellCmd(),
		app.pingCmd(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// SetArgs substitui os argumentos da linha de comando (usado em testes).
func (app *CLIApp) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

// SetInput troca a entrada lida pelo shell interativo.
func (app *CLIApp) SetInput(in io.Reader) {
	app.in = in
}

// --- Comandos ---

func (app *CLIApp) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			username, password, err := credentialsFromFlags(cmd)
			if err != nil {
				return err
			}
			return uc.RunLogin(ctx, username, password)
		}),
	}
	cmd.Flags().StringP("username", "u", "", "Username or e-mail")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func (app *CLIApp) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a FinTrack account",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			username, password, err := credentialsFromFlags(cmd)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			loginAfter, _ := cmd.Flags().GetBool("login")
			return uc.RunRegister(ctx, username, email, password, loginAfter)
		}),
	}
	cmd.Flags().StringP("username", "u", "", "Username")
	cmd.Flags().StringP("email", "e", "", "E-mail (optional)")
	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().Bool("login", false, "Log in right after registering")
	return cmd
}

func (app *CLIApp) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			return uc.RunLogout()
		}),
	}
}

func (app *CLIApp) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending by category with bar, pie and cumulative charts",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			return uc.RunSummary(ctx, args)
		}),
	}
	cmd.Flags().Bool("verify", false, "Cross-check the server summary against the transaction history")
	return cmd
}

func (app *CLIApp) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions, optionally filtered by category and limit",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			return uc.RunHistory(ctx, args)
		}),
	}
	cmd.Flags().String("category", "", "Only show this category (All for every category)")
	cmd.Flags().String("limit", "", "Maximum number of rows: All, 10, 50 or 100")
	return cmd
}

func (app *CLIApp) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, positional []string) error {
			id, err := strconv.ParseInt(positional[0], 10, 64)
			if err != nil {
				return &types.ValidationError{Field: "id", Message: fmt.Sprintf("invalid transaction id %q", positional[0])}
			}
			return uc.RunDelete(ctx, id, args)
		}),
	}
}

func (app *CLIApp) deleteAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-all",
		Short: "Delete the whole transaction history",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			return uc.RunDeleteAll(ctx, args)
		}),
	}
}

func (app *CLIApp) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a bank statement CSV (Date, Description, Amount)",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, positional []string) error {
			path := ""
			if len(positional) == 1 {
				path = positional[0]
			}
			return uc.RunUpload(ctx, path)
		}),
	}
}

func (app *CLIApp) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session with history filters, deletes and uploads",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			displayWelcomeBanner(app.version)
			go version.CheckLatestVersion(app.version)
			return usecase.NewSessionUseCase(uc, app.in).Run(ctx, args)
		}),
	}
}

func (app *CLIApp) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the FinTrack server is reachable",
		Args:  cobra.NoArgs,
		RunE: app.withUseCase(func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, _ []string) error {
			return uc.RunPing(ctx)
		}),
	}
}

type commandFunc func(ctx context.Context, uc *usecase.DashboardUseCase, cmd *cobra.Command, args *types.CLIArgs, positional []string) error

// withUseCase resolve os argumentos, monta o caso de uso e executa o comando.
func (app *CLIApp) withUseCase(run commandFunc) func(cmd *cobra.Command, positional []string) error {
	return func(cmd *cobra.Command, positional []string) error {
		cliArgs, err := app.parseArgs(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		uc, cleanup, err := app.factory(ctx, cliArgs)
		if err != nil {
			return err
		}
		if cleanup != nil {
			defer cleanup()
		}
		return run(ctx, uc, cmd, cliArgs, positional)
	}
}

// --- Argumentos ---

// parseArgs lê as flags e aplica, por ordem de precedência crescente,
// padrões, arquivo de configuração, ambiente e flags explícitas.
func (app *CLIApp) parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	flags := cmd.Flags()

	configFile, _ := flags.GetString("config-file")
	apiURL, _ := flags.GetString("api-url")
	timeout, _ := flags.GetDuration("timeout")
	logLevel, _ := flags.GetString("log-level")
	credentialsFile, _ := flags.GetString("credentials")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	s3Bucket, _ := flags.GetString("s3-bucket")
	s3Prefix, _ := flags.GetString("s3-prefix")
	awsProfile, _ := flags.GetString("aws-profile")
	yes, _ := flags.GetBool("yes")

	args := &types.CLIArgs{
		ConfigFile:      configFile,
		APIURL:          apiURL,
		Timeout:         timeout,
		LogLevel:        logLevel,
		CredentialsFile: credentialsFile,
		ReportName:      reportName,
		ReportType:      reportType,
		Dir:             dir,
		S3Bucket:        s3Bucket,
		S3Prefix:        s3Prefix,
		AWSProfile:      awsProfile,
		Yes:             yes,
	}

	// Flags específicas de subcomandos
	if f := flags.Lookup("category"); f != nil {
		args.Category = f.Value.String()
	}
	if f := flags.Lookup("limit"); f != nil {
		args.Limit = f.Value.String()
	}
	if f := flags.Lookup("verify"); f != nil {
		args.Verify, _ = flags.GetBool("verify")
	}

	if configFile != "" {
		fileCfg, err := app.configRepo.LoadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := ApplyConfig(args, *fileCfg, flags.Changed); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
	}

	if err := ApplyConfig(args, app.configRepo.LoadEnv(), flags.Changed); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if args.Dir != "" {
		absDir, err := filepath.Abs(args.Dir)
		if err != nil {
			return nil, err
		}
		args.Dir = absDir
	}

	return args, nil
}

// ApplyConfig copia para args os valores não vazios de cfg, exceto os que
// o usuário passou explicitamente como flag.
func ApplyConfig(args *types.CLIArgs, cfg types.Config, changed func(flag string) bool) error {
	setString := func(flag string, dst *string, value string) {
		if value != "" && !changed(flag) {
			*dst = value
		}
	}

	setString("api-url", &args.APIURL, cfg.APIURL)
	setString("log-level", &args.LogLevel, cfg.LogLevel)
	setString("credentials", &args.CredentialsFile, cfg.CredentialsFile)
	setString("report-name", &args.ReportName, cfg.ReportName)
	setString("dir", &args.Dir, cfg.Dir)
	setString("s3-bucket", &args.S3Bucket, cfg.S3Bucket)
	setString("s3-prefix", &args.S3Prefix, cfg.S3Prefix)
	setString("aws-profile", &args.AWSProfile, cfg.AWSProfile)

	if len(cfg.ReportType) > 0 && !changed("report-type") {
		args.ReportType = cfg.ReportType
	}

	if cfg.Timeout != "" && !changed("timeout") {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid timeout %q: must be positive", cfg.Timeout)
		}
		args.Timeout = d
	}
	return nil
}

// credentialsFromFlags lê usuário e senha, perguntando no terminal o que faltar.
func credentialsFromFlags(cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	var err error
	if strings.TrimSpace(username) == "" {
		username, err = pterm.DefaultInteractiveTextInput.Show("Username")
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
		if err != nil {
			return "", "", err
		}
	}
	return strings.TrimSpace(username), password, nil
}
