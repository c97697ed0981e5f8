package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhenke/inboxtriage/internal/classify"
	"github.com/mhenke/inboxtriage/internal/gmail"
	"github.com/mhenke/inboxtriage/internal/google"
	"github.com/mhenke/inboxtriage/internal/instrumentation"
	"github.com/mhenke/inboxtriage/internal/logging"
	"github.com/mhenke/inboxtriage/internal/server"
	"github.com/mhenke/inboxtriage/internal/triage"
)

// Environment variables for the classification backends.
const (
	envGeminiAPIKey = "GEMINI_API_KEY"
	envGroqAPIKey   = "GROQ_API_KEY"
)

func newServeCmd() *cobra.Command {
	var (
		addr           string
		metricsAddr    string
		metricsEnabled bool
		allowedOrigin  string
		leanMode       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP JSON API server",
		Long: `Start the HTTP JSON API server used by the web frontend.

The server exposes the OAuth web flow under /api/auth/* and the processing
endpoint under /api/process. Prometheus metrics are served on a dedicated
port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup()
			logger := slog.Default()

			ctx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			instrConfig := instrumentation.DefaultConfig()
			instrConfig.ServiceVersion = version
			if err := instrConfig.Validate(); err != nil {
				return fmt.Errorf("invalid instrumentation config: %w", err)
			}

			provider, err := instrumentation.NewProvider(ctx, instrConfig)
			if err != nil {
				return fmt.Errorf("failed to initialize instrumentation: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := provider.Shutdown(shutdownCtx); err != nil {
					logger.Warn("instrumentation shutdown failed", logging.Err(err))
				}
			}()

			oauthConf, err := google.OAuthConfigFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load OAuth configuration: %w", err)
			}

			classifier, err := buildClassifier(logger, provider.Metrics(), leanMode)
			if err != nil {
				return err
			}

			factory := func(ctx context.Context, accessToken string) (server.InboxProcessor, error) {
				client, err := gmail.NewClientWithAccessToken(ctx, accessToken,
					gmail.WithClientMetrics(provider.Metrics()))
				if err != nil {
					return nil, err
				}
				return triage.NewProcessor(client, classifier,
					triage.WithLogger(logger),
					triage.WithMetrics(provider.Metrics()),
				), nil
			}

			apiServer, err := server.NewAPIServer(server.APIServerConfig{
				Addr:          addr,
				OAuth:         oauthConf,
				Factory:       factory,
				AllowedOrigin: allowedOrigin,
				Logger:        logger,
				Metrics:       provider.Metrics(),
			})
			if err != nil {
				return fmt.Errorf("failed to create API server: %w", err)
			}

			serverDone := make(chan error, 2)
			go func() {
				if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
					serverDone <- err
				}
			}()

			var metricsServer *server.MetricsServer
			if metricsEnabled && provider.Enabled() {
				if provider.PrometheusHandler() == nil {
					logger.Warn("metrics server disabled: provider is not using the prometheus exporter")
				} else {
					metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
						Addr:                    metricsAddr,
						InstrumentationProvider: provider,
					})
					if err != nil {
						return fmt.Errorf("failed to create metrics server: %w", err)
					}
					go func() {
						if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
							serverDone <- err
						}
					}()
				}
			}

			logger.Info("inboxtriage server started",
				slog.String("addr", addr),
				slog.String("version", version))

			select {
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			case err := <-serverDone:
				return fmt.Errorf("server stopped with error: %w", err)
			}

			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
				server.DefaultShutdownTimeout)
			defer cancelShutdown()

			if metricsServer != nil {
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Warn("metrics server shutdown failed", logging.Err(err))
				}
			}
			if err := apiServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down API server: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAPIAddr, "Address for the API server")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the Prometheus metrics server")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", true, "Enable the Prometheus metrics server")
	cmd.Flags().StringVar(&allowedOrigin, "allowed-origin", "", "CORS origin for the web frontend (empty disables CORS)")
	cmd.Flags().BoolVar(&leanMode, "lean", false, "Use the primary backend only and skip usage accounting")

	return cmd
}

// buildClassifier assembles the tiered backend chain. The Groq secondary is
// optional; the Gemini primary is required and always last in the chain so it
// receives the retry budget.
func buildClassifier(logger *slog.Logger, metrics *instrumentation.Metrics, leanMode bool) (*classify.Classifier, error) {
	geminiKey := os.Getenv(envGeminiAPIKey)
	if geminiKey == "" {
		return nil, fmt.Errorf("%s is not set", envGeminiAPIKey)
	}

	var backends []classify.Backend
	if groqKey := os.Getenv(envGroqAPIKey); groqKey != "" && !leanMode {
		backends = append(backends, classify.NewGroq(groqKey))
	}
	backends = append(backends, classify.NewGemini(geminiKey))

	opts := []classify.Option{classify.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, classify.WithMetrics(metrics))
	}
	if leanMode {
		opts = append(opts, classify.WithoutUsageAccounting())
	}

	return classify.NewClassifier(backends, opts...), nil
}
