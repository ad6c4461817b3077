package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
)

func faqCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faq",
		Short: "Inspect and publish FAQ documents",
	}
	cmd.AddCommand(faqValidateCmd())
	cmd.AddCommand(faqImportCmd(opts))
	return cmd
}

// faqReport summarizes problems found in an FAQ document.
type faqReport struct {
	Entries           int
	DuplicateKeywords map[string][]string
	MissingDefault    []string
	IndexErr          error
}

func (r faqReport) ok() bool {
	return r.IndexErr == nil && len(r.DuplicateKeywords) == 0 && len(r.MissingDefault) == 0
}

func (r faqReport) write(w io.Writer) {
	fmt.Fprintf(w, "entries: %d\n", r.Entries)
	for kw, ids := range r.DuplicateKeywords {
		fmt.Fprintf(w, "duplicate keyword %q in: %s\n", kw, strings.Join(ids, ", "))
	}
	for _, id := range r.MissingDefault {
		fmt.Fprintf(w, "missing default-language answer: %s\n", id)
	}
	if r.IndexErr != nil {
		fmt.Fprintf(w, "invalid: %v\n", r.IndexErr)
	}
	if r.ok() {
		fmt.Fprintln(w, "ok")
	}
}

func validateFAQ(entries []conversation.FAQEntry, defaultLang conversation.Language) faqReport {
	report := faqReport{Entries: len(entries), DuplicateKeywords: map[string][]string{}}
	owners := map[string][]string{}
	for _, entry := range entries {
		seen := map[string]bool{}
		for _, kw := range entry.Keywords {
			norm := strings.ToLower(strings.TrimSpace(kw))
			if norm == "" || seen[norm] {
				continue
			}
			seen[norm] = true
			owners[norm] = append(owners[norm], entry.ID)
		}
		if strings.TrimSpace(entry.Answers[defaultLang]) == "" {
			report.MissingDefault = append(report.MissingDefault, entry.ID)
		}
	}
	for kw, ids := range owners {
		if len(ids) > 1 {
			report.DuplicateKeywords[kw] = ids
		}
	}
	_, report.IndexErr = conversation.NewFAQIndex(entries)
	return report
}

func faqValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check an FAQ file for duplicate keywords and missing answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := conversation.FileFAQSource{Path: args[0]}.LoadFAQ(cmd.Context())
			if err != nil {
				return err
			}
			cfg := loadConfig()
			report := validateFAQ(entries, conversation.ParseLanguage(cfg.DefaultLanguage, conversation.LanguageUzbek))
			report.write(cmd.OutOrStdout())
			if !report.ok() {
				return errors.New("faq document has problems")
			}
			return nil
		},
	}
}

func faqImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Upsert an FAQ file into the faq_entries table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := conversation.FileFAQSource{Path: args[0]}.LoadFAQ(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := conversation.NewFAQIndex(entries); err != nil {
				return err
			}

			dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
			if dsn == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			n, err := importFAQ(cmd, conversation.NewPostgresFAQSource(db), entries)
			if err != nil {
				return err
			}
			opts.logger().Info("faq imported", "entries", n)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return nil
		},
	}
}

type faqSaver interface {
	SaveFAQEntry(ctx context.Context, position int, entry conversation.FAQEntry) error
}

func importFAQ(cmd *cobra.Command, store faqSaver, entries []conversation.FAQEntry) (int, error) {
	for i, entry := range entries {
		if err := store.SaveFAQEntry(cmd.Context(), i+1, entry); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
