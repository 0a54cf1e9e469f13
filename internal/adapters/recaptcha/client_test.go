package recaptcha_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"meiras_yachting/internal/adapters/recaptcha"
)

func TestClient_Verify_PostsFormAndDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("secret") != "s3cret" || r.PostForm.Get("response") != "tok" || r.PostForm.Get("remoteip") != "9.9.9.9" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true, "score": 0.51, "action": "contact", "hostname": "meirasyachting.com",
		})
	}))
	defer ts.Close()

	cl, err := recaptcha.New(ts.URL, "s3cret", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := cl.Verify(ctx, "tok", "9.9.9.9")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !v.Success || v.Score != 0.51 || v.Action != "contact" {
		t.Fatalf("unexpected verification: %+v", v)
	}
}

func TestClient_Verify_ErrorCodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer ts.Close()

	cl, _ := recaptcha.New(ts.URL, "s3cret", 100)
	v, err := cl.Verify(context.Background(), "bad", "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Success || len(v.ErrorCodes) != 1 || v.ErrorCodes[0] != "invalid-input-response" {
		t.Fatalf("unexpected verification: %+v", v)
	}
}

func TestClient_Verify_NoRetryOn5xx(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cl, _ := recaptcha.New(ts.URL, "s3cret", 100)
	if _, err := cl.Verify(context.Background(), "tok", ""); err == nil {
		t.Fatalf("expected error for 502")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	if _, err := recaptcha.New("", "", 5); !errors.Is(err, recaptcha.ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}
