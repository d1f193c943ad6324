package deviceauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/craftling/craftling/internals/merrors"
)

func newTestSession(tokenURL string) *Session {
	return &Session{
		ClientID:   "test-client",
		TokenURL:   tokenURL,
		DeviceCode: "device-123",
		UserCode:   "ABCD-1234",
		Interval:   time.Millisecond,
	}
}

func TestRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("client_id") != "test-client" {
			t.Errorf("unexpected client_id %q", r.Form.Get("client_id"))
		}
		if r.Form.Get("scope") != "openid offline_access" {
			t.Errorf("unexpected scope %q", r.Form.Get("scope"))
		}
		fmt.Fprint(w, `{
			"device_code": "device-123",
			"user_code": "ABCD-1234",
			"verification_uri": "https://example.com/link",
			"expires_in": 900
		}`)
	}))
	defer srv.Close()

	session, err := Request(context.Background(), srv.Client(), srv.URL, srv.URL+"/token", "test-client", []string{"openid", "offline_access"})
	if err != nil {
		t.Fatal(err)
	}
	if session.UserCode != "ABCD-1234" {
		t.Errorf("unexpected user code %q", session.UserCode)
	}
	if session.VerificationURI != "https://example.com/link" {
		t.Errorf("unexpected verification uri %q", session.VerificationURI)
	}
	// missing interval falls back to the RFC default
	if session.Interval != 5*time.Second {
		t.Errorf("expected the 5s default interval, got %s", session.Interval)
	}
}

func TestPollPendingThenSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("grant_type") != "urn:ietf:params:oauth:grant-type:device_code" {
			t.Errorf("unexpected grant_type %q", r.Form.Get("grant_type"))
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "authorization_pending"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "at", "refresh_token": "rt", "token_type": "Bearer", "expires_in": 3600}`)
	}))
	defer srv.Close()

	token, err := newTestSession(srv.URL).Poll(context.Background(), srv.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if token.AccessToken != "at" || token.RefreshToken != "rt" {
		t.Errorf("unexpected token %+v", token)
	}
	if calls != 3 {
		t.Errorf("expected 3 polls, got %d", calls)
	}
}

func TestPollAccessDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "access_denied"}`)
	}))
	defer srv.Close()

	_, err := newTestSession(srv.URL).Poll(context.Background(), srv.Client(), nil)
	if !errors.Is(err, merrors.ErrInvalid) {
		t.Fatalf("expected an invalid error, got %v", err)
	}
}

func TestPollSlowDownBacksOff(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "slow_down"}`)
			return
		}
		fmt.Fprint(w, `{"access_token": "at", "token_type": "Bearer"}`)
	}))
	defer srv.Close()

	session := newTestSession(srv.URL)
	start := time.Now()
	if _, err := session.Poll(context.Background(), srv.Client(), nil); err != nil {
		t.Fatal(err)
	}
	// the second poll has to wait the extra 5s the endpoint asked for
	if elapsed := time.Since(start); elapsed < 5*time.Second {
		t.Errorf("expected at least a 5s back off, polls finished after %s", elapsed)
	}
}

func TestPollCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "authorization_pending"}`)
	}))
	defer srv.Close()

	var stop atomic.Bool
	done := make(chan error, 1)
	go func() {
		_, err := newTestSession(srv.URL).Poll(context.Background(), srv.Client(), stop.Load)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	stop.Store(true)

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("expected ErrCancelled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not notice the cancellation")
	}
}

func TestPollExpired(t *testing.T) {
	session := newTestSession("http://127.0.0.1:0")
	session.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := session.Poll(context.Background(), http.DefaultClient, nil)
	if !errors.Is(err, merrors.ErrInvalid) {
		t.Fatalf("expected an invalid error for the expired session, got %v", err)
	}
}
