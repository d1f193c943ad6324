package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/craftling/craftling/internals/merrors"
)

func newSkinSite(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// the website root points clients at the api
		w.Header().Set("X-Authlib-Injector-Api-Location", "/api/yggdrasil")
		fmt.Fprint(w, "<html>skin site</html>")
	})
	mux.HandleFunc("/api/yggdrasil", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"meta": {
				"serverName": "Example Skins",
				"feature.non_email_login": true,
				"links": {"homepage": "https://example.com"}
			}
		}`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAddAuthServer(t *testing.T) {
	site := newSkinSite(t)
	service, store, _ := newTestService(t, Options{HTTP: site.Client()})

	server, err := service.AddAuthServer(context.Background(), site.URL)
	if err != nil {
		t.Fatal(err)
	}
	if server.AuthURL != site.URL+"/api/yggdrasil" {
		t.Errorf("expected the api location followed, got %q", server.AuthURL)
	}
	if server.Name != "Example Skins" {
		t.Errorf("unexpected name %q", server.Name)
	}
	if !server.NonEmailLogin {
		t.Error("the non email login flag should carry over")
	}
	if len(store.state.AuthServers) != 1 {
		t.Error("the server must be persisted")
	}

	// the canonical url is the dedup key, adding the site again is a
	// duplicate even though the raw input differs
	if _, err := service.AddAuthServer(context.Background(), site.URL+"/"); !errors.Is(err, merrors.ErrDuplicate) {
		t.Fatalf("expected a duplicate error, got %v", err)
	}
}

func TestFetchAuthServerDoesNotRegister(t *testing.T) {
	site := newSkinSite(t)
	service, store, _ := newTestService(t, Options{HTTP: site.Client()})

	if _, err := service.FetchAuthServer(context.Background(), site.URL); err != nil {
		t.Fatal(err)
	}
	if len(store.state.AuthServers) != 0 {
		t.Error("a fetch must not register anything")
	}
}

func TestDeleteAuthServerNotFound(t *testing.T) {
	service, _, _ := newTestService(t, Options{})
	if err := service.DeleteAuthServer("https://nope.example.com"); !errors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("expected a not found error, got %v", err)
	}
}
