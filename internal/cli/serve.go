package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xhad/langdetect/internal/types"
	"github.com/xhad/langdetect/pkg/analysis"
	"github.com/xhad/langdetect/pkg/registry"
	"github.com/xhad/langdetect/pkg/session"
	"github.com/xhad/langdetect/server"
)

var (
	serveHost string
	servePort int
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser interface",
		Long: `Start a local web interface to pick a method, upload documents,
submit them for analysis and save the results.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flag("host").Changed {
		cfg.Server.Host = serveHost
	}
	if cmd.Flag("port").Changed {
		cfg.Server.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, err := analysis.NewWithConfig(analysis.ClientConfig{
		BaseURL:    cfg.API.BaseURL,
		UploadPath: cfg.API.UploadPath,
		Timeout:    cfg.API.Timeout,
		RateLimit:  cfg.API.RateLimit,
	}, log.Named("analysis"))
	if err != nil {
		return fmt.Errorf("failed to initialize analysis client: %w", err)
	}

	files := registry.New(cfg.Server.FilesPath)
	files.OnRelease(func(ref types.Reference) {
		log.Debug("File reference released", zap.String("name", ref.Name), zap.String("id", ref.ID))
	})

	defer files.Reset()

	sess := session.New(client, files, log.Named("session"))

	srv, err := server.New(server.Config{
		Addr:           cfg.Addr(),
		FilesPath:      cfg.Server.FilesPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Title:          cfg.UI.Title,
		LiveUpdates:    cfg.UI.LiveUpdates,
		ShowErrors:     cfg.UI.ShowErrors,
	}, sess, log.Named("server"))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "Serving on http://%s (analysis service %s)\n",
		cfg.Addr(), client.Endpoint())

	return srv.Run(ctx)
}
