package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alexalbu001/iguanas-jewelry-admin/internal/gateway"
	"github.com/alexalbu001/iguanas-jewelry-admin/internal/images"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/config"
	"github.com/alexalbu001/iguanas-jewelry-admin/pkg/logger"
)

var productFlag string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "jewelry-admin: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jewelry-admin",
		Short: "Iguanas Jewelry admin console",
		Long: `jewelry-admin manages product image galleries against the Iguanas Jewelry
admin API: uploading new images, promoting the primary image, deleting and
reordering.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newImagesCommand())
	return cmd
}

// app holds everything a command needs after bootstrap.
type app struct {
	cfg       *config.Config
	logg      *logger.Logger
	api       *images.Client
	productID uuid.UUID
}

func buildApp(ctx context.Context) (*app, error) {
	logg := logger.New(logger.Options{ServiceName: "jewelry-admin"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "jewelry-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	productID, err := uuid.Parse(productFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid --product id %q: %w", productFlag, err)
	}

	gw, err := gateway.New(cfg.API.BaseURL,
		gateway.WithSessionToken(cfg.API.SessionToken),
		gateway.WithTimeout(cfg.API.RequestTimeout),
		gateway.WithUnauthorizedHook(func() {
			logg.Warn(ctx, "session rejected by the api, sign in again")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	api, err := images.NewClient(gw)
	if err != nil {
		return nil, fmt.Errorf("build image client: %w", err)
	}

	return &app{cfg: cfg, logg: logg, api: api, productID: productID}, nil
}
