package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mhenke/inboxtriage/internal/gmail"
	"github.com/mhenke/inboxtriage/internal/google"
	"github.com/mhenke/inboxtriage/internal/logging"
	"github.com/mhenke/inboxtriage/internal/triage"
)

func newProcessCmd() *cobra.Command {
	var (
		maxMessages int64
		dryRun      bool
		leanMode    bool
		authCode    string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Classify and label unread inbox messages from the command line",
		Long: `Run one triage batch against your Gmail inbox using a cached OAuth token.

On first use, open the consent URL printed by --auth-url, then pass the
authorization code back with --auth-code to cache a token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup()
			ctx := context.Background()

			conf, err := google.OAuthConfigFromEnv()
			if err != nil {
				return fmt.Errorf("failed to load OAuth configuration: %w", err)
			}

			if authCode != "" {
				token, err := google.Exchange(ctx, conf, authCode)
				if err != nil {
					return err
				}
				if err := google.SaveToken(token); err != nil {
					return err
				}
				log.Printf("Token cached")
				return nil
			}

			if !google.HasToken() {
				fmt.Printf("No cached token. Authorize at:\n\n  %s\n\nthen run: inboxtriage process --auth-code <code>\n",
					google.AuthURL(conf, "state"))
				return nil
			}

			ts, err := google.GetTokenSource(ctx, conf)
			if err != nil {
				return fmt.Errorf("failed to load cached token: %w", err)
			}

			client, err := gmail.NewClient(ctx, ts)
			if err != nil {
				return fmt.Errorf("failed to create Gmail client: %w", err)
			}

			classifier, err := buildClassifier(slog.Default(), nil, leanMode)
			if err != nil {
				return err
			}

			processor := triage.NewProcessor(client, classifier,
				triage.WithBatchSize(maxMessages),
				triage.WithDryRun(dryRun),
			)

			results, email, err := processor.ProcessInbox(ctx)
			if err != nil {
				return fmt.Errorf("error processing inbox: %w", err)
			}

			n := 0
			for _, r := range results {
				n++
				if r.Succeeded() {
					log.Printf("Message %d (%s) %q = %s [%s]", n, r.ID, r.Subject, r.Category, r.Backend)
				} else {
					log.Printf("Message %d (%s) failed: %s", n, r.ID, r.Error)
				}
			}
			log.Printf("Processed %d messages for %s", n, email)
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxMessages, "max", triage.DefaultBatchSize, "Maximum number of messages to process")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify without creating or applying labels")
	cmd.Flags().BoolVar(&leanMode, "lean", false, "Use the primary backend only and skip usage accounting")
	cmd.Flags().StringVar(&authCode, "auth-code", "", "Authorization code from the consent page (caches a token and exits)")

	return cmd
}
