package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
)

func resolveCmd(opts *rootOptions) *cobra.Command {
	var (
		faqPath  string
		senderID string
	)
	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Dry-run a message through the router offline",
		Long: "Resolves a message against the FAQ file with in-memory state and no " +
			"generative provider. Unmatched questions return the apology reply.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if faqPath == "" {
				faqPath = cfg.FAQFilePath
			}
			faqs, err := conversation.NewFAQStore(cmd.Context(), conversation.FileFAQSource{Path: faqPath})
			if err != nil {
				return err
			}
			router := conversation.NewRouter(conversation.RouterConfig{
				FAQs:            faqs,
				Templates:       conversation.DefaultReplyTemplates(cfg.ClinicContactPhone),
				GreetingWindow:  cfg.GreetingWindow,
				MaxReplyChars:   cfg.MaxReplyChars,
				DefaultLanguage: conversation.ParseLanguage(cfg.DefaultLanguage, conversation.LanguageUzbek),
				Logger:          opts.logger(),
			})

			res := router.ResolveWithOptions(cmd.Context(), conversation.InboundEvent{
				Platform:   conversation.PlatformInstagram,
				SenderID:   senderID,
				Text:       strings.Join(args, " "),
				ReceivedAt: time.Now(),
			}, conversation.ResolveOptions{DryRun: true})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&faqPath, "faq", "", "FAQ file (default: FAQ_FILE)")
	cmd.Flags().StringVar(&senderID, "sender", "cli", "sender ID to resolve as")
	return cmd
}
