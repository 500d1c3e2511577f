package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/agesalabs/agesabot-go/internal/logging"
	"github.com/agesalabs/agesabot-go/internal/pipeline"
	"github.com/agesalabs/agesabot-go/internal/provider"
	"github.com/agesalabs/agesabot-go/internal/server"
	"github.com/agesalabs/agesabot-go/internal/tracing"
)

// NewServeCmd constructs the `agesabot serve` command, which starts the HTTP
// chat API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the AgesaBot HTTP chat API",
		Long: `Start the AgesaBot HTTP server.

The server exposes POST /api/chat for queries, GET /api/health and
/api/ready for probes, and GET /metrics for Prometheus scraping. Set
AGESABOT_API_KEY to require Bearer authentication on the chat endpoint.

Examples:
  agesabot serve
  agesabot serve --port 9090
  MODEL_PROVIDER=azure agesabot serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Flags win over env; env (merged from YAML by config.Load) wins
			// over the built-in defaults.
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("SERVER_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("SERVER_PORT", port)
			}

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			backend := getEnvOrDefault("MODEL_PROVIDER", "openai")
			log.Info("provider initialised", slog.String("provider", backend))

			pingers := []server.Pinger{server.NewLLMPinger(chatModel, backend)}

			retriever, vectorStore, closeRetriever, err := buildRetriever(ctx, log)
			if err != nil {
				log.Warn("serve: semantic search unavailable", slog.Any("error", err))
				closeRetriever = func() {}
			} else {
				pingers = append(pingers, server.NewQdrantPinger(vectorStore.Client()))
			}
			defer closeRetriever()

			inv, closeInventory := openInventory(ctx, log)
			if inv != nil {
				pingers = append(pingers, server.NewPostgresPinger(inv))
			}
			defer closeInventory()

			historyStore, closeHistory := openHistory(log)
			defer closeHistory()

			router, err := pipeline.New(&pipeline.Config{
				ChatModel: chatModel,
				Retriever: retriever,
				Inventory: inv,
				History:   historyStore,
				TopK:      getEnvInt("RETRIEVAL_TOP_K", 0),
				EFSearch:  getEnvInt("RETRIEVAL_EF_SEARCH", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to initialise pipeline: %w", err)
			}

			srv, err := server.New(router, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("AGESABOT_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
