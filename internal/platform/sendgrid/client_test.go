package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

func TestNewWithoutKeyIsNoop(t *testing.T) {
	c, err := New(logger.Nop(), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	if err := c.Send(context.Background(), Message{ToEmail: "a@b.c"}); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}

func TestSendPostsMail(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != sendEndpoint || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing auth header")
		}
		var body struct {
			Personalizations []struct {
				To      []struct{ Email string } `json:"to"`
				Subject string                   `json:"subject"`
			} `json:"personalizations"`
			From struct{ Email string } `json:"from"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.From.Email != "noreply@knowtopia.test" || len(body.Personalizations) != 1 ||
			body.Personalizations[0].To[0].Email != "student@x.io" || body.Personalizations[0].Subject != "Hi" {
			t.Errorf("unexpected body %+v", body)
		}
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, FromEmail: "noreply@knowtopia.test", MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.(*client).retryBase = time.Millisecond
	if err := c.Send(context.Background(), Message{ToEmail: "student@x.io", Subject: "Hi", Text: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected a retry, got %d calls", calls)
	}
}

func TestSendGivesUpOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := New(logger.Nop(), Config{APIKey: "key", BaseURL: srv.URL, FromEmail: "noreply@knowtopia.test"})
	if err := c.Send(context.Background(), Message{ToEmail: "student@x.io", Subject: "Hi"}); err == nil {
		t.Fatalf("expected error")
	}
}
