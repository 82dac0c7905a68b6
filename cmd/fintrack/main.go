package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driven/api"
	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driven/config"
	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driven/credentials"
	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driven/export"
	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driven/publish"
	"github.com/diillson/fintrack-dashboard-go/internal/adapter/driving/cli"
	"github.com/diillson/fintrack-dashboard-go/internal/application/usecase"
	"github.com/diillson/fintrack-dashboard-go/internal/domain/repository"
	"github.com/diillson/fintrack-dashboard-go/internal/shared/types"
	"github.com/diillson/fintrack-dashboard-go/pkg/console"
	"github.com/diillson/fintrack-dashboard-go/pkg/logging"
	"github.com/diillson/fintrack-dashboard-go/pkg/version"
)

func main() {
	configRepo := config.NewConfigRepository()

	// Inicializa o aplicativo CLI; os repositórios dependem das flags já combinadas
	app := cli.NewCLIApp(version.Version, configRepo, buildUseCase)

	if err := app.Execute(); err != nil {
		var reported *usecase.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// buildUseCase monta repositórios e caso de uso a partir dos argumentos.
func buildUseCase(ctx context.Context, args *types.CLIArgs) (*usecase.DashboardUseCase, func(), error) {
	logger, err := logging.NewLogger(args.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", args.LogLevel, err)
	}

	apiRepo := api.NewAPIRepository(api.Options{
		BaseURL: args.APIURL,
		Timeout: args.Timeout,
		Logger:  logger,
	})
	credRepo := credentials.NewCredentialRepository(args.CredentialsFile)
	exportRepo := export.NewExportRepository()
	consoleImpl := console.NewConsole()

	var publisher repository.ReportPublisher
	if args.S3Bucket != "" && args.ReportName != "" {
		publisher, err = publish.NewS3Publisher(ctx, args.S3Bucket, args.S3Prefix, args.AWSProfile, logger)
		if err != nil {
			return nil, nil, err
		}
	}

	dashboardUseCase := usecase.NewDashboardUseCase(
		apiRepo,
		credRepo,
		exportRepo,
		publisher,
		consoleImpl,
		logger,
	)

	cleanup := func() { _ = logger.Sync() }
	return dashboardUseCase, cleanup, nil
}
