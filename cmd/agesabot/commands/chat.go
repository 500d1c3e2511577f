package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/agesalabs/agesabot-go/internal/history"
	"github.com/agesalabs/agesabot-go/internal/logging"
	"github.com/agesalabs/agesabot-go/internal/pipeline"
	"github.com/agesalabs/agesabot-go/internal/provider"
)

// NewChatCmd constructs the `agesabot chat` command, which sends a single
// question through the full query pipeline and prints the answer to stdout.
func NewChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask AgesaBot a question about the product catalog",
		Long: `Ask AgesaBot a single question and print the answer.

The question is classified and routed to a direct inventory lookup, a
semantic catalog search, or a general-knowledge answer. Pass --session to
continue a conversation across invocations.

Examples:
  agesabot chat "Kuru cilt için 200 TL altı nemlendirici önerir misin?"
  agesabot chat "En yüksek puanlı 5 ruj hangisi?"
  agesabot chat --session alice "Peki bunlardan hangisi Fransız menşeili?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("chat: failed to initialise model provider: %w", err)
			}

			// Retrieval and inventory are optional collaborators: the router
			// answers with a graceful fallback for strategies it cannot serve.
			retriever, _, closeRetriever, err := buildRetriever(ctx, log)
			if err != nil {
				log.Warn("chat: semantic search unavailable", slog.Any("error", err))
				closeRetriever = func() {}
			}
			defer closeRetriever()

			inv, closeInventory := openInventory(ctx, log)
			defer closeInventory()

			var historyStore history.ConversationStore
			if sessionID != "" {
				hs, closeHistory := openHistory(log)
				defer closeHistory()
				historyStore = hs
			}

			router, err := pipeline.New(&pipeline.Config{
				ChatModel: chatModel,
				Retriever: retriever,
				Inventory: inv,
				History:   historyStore,
				TopK:      getEnvInt("RETRIEVAL_TOP_K", 0),
				EFSearch:  getEnvInt("RETRIEVAL_EF_SEARCH", 0),
			})
			if err != nil {
				return fmt.Errorf("chat: failed to initialise pipeline: %w", err)
			}

			answer := router.ProcessQuery(ctx, args[0], sessionID)
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID for multi-turn conversations")

	return cmd
}
