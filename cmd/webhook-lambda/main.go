package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

const webhookPath = "/webhooks/instagram"

// forwardedHeaders are passed upstream so the responder can verify the
// delivery exactly as Meta sent it.
var forwardedHeaders = []string{"Content-Type", "X-Hub-Signature-256"}

type config struct {
	upstream string
	timeout  time.Duration
}

func loadConfig() (config, error) {
	cfg := config{
		upstream: strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/"),
		timeout:  5 * time.Second,
	}
	if cfg.upstream == "" {
		return config{}, errors.New("UPSTREAM_BASE_URL is required")
	}
	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.timeout = d
	}
	return cfg, nil
}

func main() {
	logger := logging.New(os.Getenv("LOG_LEVEL"))
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid lambda configuration", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: cfg.timeout}
	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, cfg, client, logger, evt)
	})
}

// handle forwards a Meta webhook delivery to the responder unchanged so the
// signature check still runs against the original body.
func handle(ctx context.Context, cfg config, client *http.Client, logger *logging.Logger, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	if path == "/health" || path == "/_health" {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
	}
	if path != webhookPath {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
	if method != http.MethodGet && method != http.MethodPost {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
	}

	body := []byte(evt.Body)
	if evt.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(evt.Body)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
		}
		body = decoded
	}

	upstreamURL := cfg.upstream + path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		upstreamURL += "?" + qs
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var reader io.Reader
	if method == http.MethodPost {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, upstreamURL, reader)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}, nil
	}

	in := inboundHeaders(evt.Headers)
	for _, name := range forwardedHeaders {
		if v := in.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("upstream webhook call failed", "error", err)
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadGateway, Body: "upstream error"}, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Headers:    map[string]string{},
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		out.Headers["content-type"] = ct
	}
	return out, nil
}

// inboundHeaders canonicalizes API Gateway's lower-cased header map.
func inboundHeaders(raw map[string]string) http.Header {
	h := make(http.Header, len(raw))
	for k, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			h.Set(k, v)
		}
	}
	return h
}
