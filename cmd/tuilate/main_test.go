package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranslateFailurePrintedOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/languages":
			_, _ = w.Write([]byte(`{"en-fr":{"name":"English to French","source":"en","target":"fr"}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid language pair"}`))
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("TUILATE_SERVER_URL", srv.URL)
	t.Setenv("TUILATE_LOG_LEVEL", "error")

	var stdout, stderr bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"translate", "--no-history", "Hello"})

	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected translate to fail")
	}
	if got := strings.Count(stderr.String(), "Invalid language pair"); got != 1 {
		t.Fatalf("expected the failure once, got %d in %q", got, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("unexpected output %q", stdout.String())
	}
}
