package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, metrics := setupMetrics()
	if handler == nil || metrics == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	metrics.ObserveEvent("admitted")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `hijama_responder_events_total{outcome="admitted"} 1`) {
		t.Fatalf("expected events counter to be exported")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collectors to be registered")
	}
}

func TestBuildDispatchersWithoutToken(t *testing.T) {
	dispatchers := buildDispatchers(&appconfig.Config{}, logging.New("error"))
	if len(dispatchers) != 0 {
		t.Fatalf("expected no dispatchers without a page token")
	}
}

func TestBuildDispatchersWithToken(t *testing.T) {
	cfg := &appconfig.Config{
		InstagramPageAccessToken: "token",
		InstagramGraphAPIBase:    "https://graph.facebook.com/v18.0",
	}
	dispatchers := buildDispatchers(cfg, logging.New("error"))
	if _, ok := dispatchers[conversation.PlatformInstagram]; !ok {
		t.Fatalf("expected instagram dispatcher")
	}
}
