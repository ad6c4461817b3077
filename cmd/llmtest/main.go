// Command llmtest sends one question through the configured generative
// provider chain and prints the answer with its latency.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/hijama-dm-responder/cmd/mainconfig"
	"github.com/wolfman30/hijama-dm-responder/internal/app/bootstrap"
	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

const defaultQuestion = "Hijomadan keyin nima qilish kerak?"

func main() {
	if err := mainconfig.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerativeTimeout+10*time.Second)
	defer cancel()

	backends := bootstrap.NewBackends(cfg, mainconfig.LoadAWSConfig, logger)
	defer backends.Close()

	gen, err := bootstrap.BuildGenerator(ctx, cfg, backends, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build generator: %v\n", err)
		os.Exit(1)
	}

	if !probe(ctx, os.Stdout, gen, cfg, os.Args[1:]) {
		os.Exit(1)
	}
}

// probe runs one generation and reports whether it produced usable text.
func probe(ctx context.Context, w io.Writer, gen conversation.Generator, cfg *appconfig.Config, args []string) bool {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		question = defaultQuestion
	}
	lang := conversation.ParseLanguage(cfg.DefaultLanguage, conversation.LanguageUzbek)

	fmt.Fprintf(w, "provider: %s\n", cfg.GenerativeProvider)
	fmt.Fprintf(w, "question: %s\n", question)

	start := time.Now()
	res := gen.Generate(ctx, conversation.GenerateRequest{
		Message:  question,
		Language: lang,
		MaxChars: cfg.MaxReplyChars,
	})
	elapsed := time.Since(start).Round(time.Millisecond)

	if !res.OK() {
		fmt.Fprintf(w, "failed after %v: %v\n", elapsed, res.Err)
		return false
	}
	fmt.Fprintf(w, "answer (%v, %d chars):\n%s\n", elapsed, len([]rune(res.Text)), res.Text)
	return true
}
