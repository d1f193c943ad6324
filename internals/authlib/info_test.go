package authlib

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAuthURLDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	got, err := FetchAuthURL(context.Background(), srv.Client(), srv.URL+"/api/yggdrasil/")
	if err != nil {
		t.Fatal(err)
	}
	if got != srv.URL+"/api/yggdrasil" {
		t.Errorf("expected the trimmed url back, got %q", got)
	}
}

func TestFetchAuthURLFollowsHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Authlib-Injector-Api-Location", "/api/yggdrasil")
		fmt.Fprint(w, `<html>welcome</html>`)
	}))
	defer srv.Close()

	got, err := FetchAuthURL(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got != srv.URL+"/api/yggdrasil" {
		t.Errorf("expected the api location resolved, got %q", got)
	}
}

func TestFetchServerInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"meta": {
				"serverName": "Example Skins",
				"feature.non_email_login": true,
				"feature.openid_configuration_url": "https://example.com/.well-known/openid-configuration",
				"feature.openid_client_id": "launcher",
				"links": {"homepage": "https://example.com"}
			},
			"skinDomains": ["example.com"]
		}`)
	}))
	defer srv.Close()

	info, err := FetchServerInfo(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if info.AuthURL != srv.URL {
		t.Errorf("unexpected auth url %q", info.AuthURL)
	}
	if info.Meta.ServerName != "Example Skins" {
		t.Errorf("unexpected server name %q", info.Meta.ServerName)
	}
	if !info.Meta.NonEmailLogin {
		t.Error("the non email login flag should be set")
	}
	if info.Meta.OpenIDConfigurationURL == "" || info.Meta.ClientID != "launcher" {
		t.Errorf("unexpected openid metadata %+v", info.Meta)
	}
}

func TestFetchServerInfoBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := FetchServerInfo(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected an error for the bad status")
	}
}
