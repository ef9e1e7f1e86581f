package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithTimeout(2*time.Second))
}

func TestTranslateSuccess(t *testing.T) {
	var got TranslateRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/translate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"translated_text":"Bonjour","translation_time":"0.52"}`))
	})

	resp, err := client.Translate(context.Background(), "Hello", "en-fr")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got.Text != "Hello" || got.LangPair != "en-fr" {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if resp.TranslatedText != "Bonjour" {
		t.Fatalf("unexpected text: %q", resp.TranslatedText)
	}
	if !resp.TranslationTime.Valid || resp.TranslationTime.Value != 520*time.Millisecond {
		t.Fatalf("unexpected translation time: %+v", resp.TranslationTime)
	}
}

func TestTranslateNumericTimeAndMissingTime(t *testing.T) {
	var s Seconds
	if err := json.Unmarshal([]byte(`1.5`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !s.Valid || s.Value != 1500*time.Millisecond {
		t.Fatalf("unexpected seconds: %+v", s)
	}
	var resp TranslateResponse
	if err := json.Unmarshal([]byte(`{"translated_text":"x"}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.TranslationTime.Valid {
		t.Fatalf("missing translation_time must be invalid")
	}
	if err := json.Unmarshal([]byte(`{"translation_time":"soon"}`), &resp); err != nil {
		t.Fatalf("unparseable time must not fail decoding: %v", err)
	}
	if resp.TranslationTime.Valid {
		t.Fatalf("unparseable translation_time must be invalid")
	}
	for _, raw := range []string{`"inf"`, `"NaN"`, `"1e12"`, `1e300`, `"-Inf"`} {
		var v Seconds
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if v.Valid {
			t.Fatalf("expected %s to be invalid, got %v", raw, v.Value)
		}
	}
}

func TestTranslateServerReportedError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid language pair"}`))
	})

	_, err := client.Translate(context.Background(), "Hello", "xx-yy")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serverErr.Message != "Invalid language pair" || serverErr.Status != http.StatusBadRequest {
		t.Fatalf("unexpected server error: %+v", serverErr)
	}
}

func TestTranslateErrorFieldWithOKStatus(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	})
	_, err := client.Translate(context.Background(), "Hello", "en-fr")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.Error() != "model crashed" {
		t.Fatalf("expected model crashed server error, got %v", err)
	}
}

func TestTranslateHTTPFailureWithoutBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := client.Translate(context.Background(), "Hello", "en-fr")
	var serverErr *ServerError
	if !errors.As(err, &serverErr) || serverErr.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 server error, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, WithTimeout(time.Second))
	_, err := client.ModelStatus(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestModelStatusAndLanguages(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/model_status":
			_, _ = w.Write([]byte(`{"loaded_models":["opus-mt-en-fr"],"preloading_models":[],"gpu_available":true}`))
		case "/languages":
			_, _ = w.Write([]byte(`{"en-fr":{"name":"English to French","source":"en","target":"fr"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	status, err := client.ModelStatus(context.Background())
	if err != nil {
		t.Fatalf("model status: %v", err)
	}
	if !status.GPUAvailable || len(status.LoadedModels) != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}

	catalog, err := client.Languages(context.Background())
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if catalog.Label("en-fr") != "English to French" {
		t.Fatalf("unexpected catalog: %+v", catalog)
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	WithRateLimit(0.001, 1)(client)

	if _, err := client.Languages(context.Background()); err != nil {
		t.Fatalf("first request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Languages(ctx)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected limiter to fail with NetworkError, got %v", err)
	}
}
