package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/craftling/craftling/internals/merrors"
)

// identityServer is a minimal fake yggdrasil server for the password
// flow tests
type identityServer struct {
	srv *httptest.Server

	// profiles offered on authenticate; selected marks the single
	// bound one, empty means all come back unbound
	profiles []string
	selected string

	refreshed []string
}

func newIdentityServer(t *testing.T) *identityServer {
	t.Helper()
	is := &identityServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/authserver/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var login struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
			t.Fatal(err)
		}
		if login.Password != "hunter2" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error": "ForbiddenOperationException", "errorMessage": "Invalid credentials."}`)
			return
		}

		type profile struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		response := map[string]interface{}{"accessToken": "unbound-token"}
		available := make([]profile, 0, len(is.profiles))
		for _, name := range is.profiles {
			available = append(available, profile{ID: "uuid-" + name, Name: name})
		}
		if is.selected != "" {
			response["accessToken"] = "bound-token"
			response["selectedProfile"] = profile{ID: "uuid-" + is.selected, Name: is.selected}
		} else {
			response["availableProfiles"] = available
		}
		json.NewEncoder(w).Encode(response)
	})
	mux.HandleFunc("/authserver/refresh", func(w http.ResponseWriter, r *http.Request) {
		var refresh struct {
			AccessToken     string `json:"accessToken"`
			SelectedProfile *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"selectedProfile"`
		}
		if err := json.NewDecoder(r.Body).Decode(&refresh); err != nil {
			t.Fatal(err)
		}
		if refresh.SelectedProfile == nil {
			t.Error("bind refresh must name a profile")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		is.refreshed = append(is.refreshed, refresh.SelectedProfile.Name)
		fmt.Fprintf(w, `{"accessToken": "bound-%s"}`, refresh.SelectedProfile.Name)
	})
	mux.HandleFunc("/sessionserver/session/minecraft/profile/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		fmt.Fprintf(w, `{"id": "%s", "name": "%s"}`, id, strings.TrimPrefix(id, "uuid-"))
	})

	is.srv = httptest.NewServer(mux)
	t.Cleanup(is.srv.Close)
	return is
}

func newPasswordService(t *testing.T, is *identityServer) (*Service, *memoryStore, *memoryConfig) {
	t.Helper()
	store := &memoryStore{state: State{
		AuthServers: []AuthServer{{Name: "Example", AuthURL: is.srv.URL}},
	}}
	return newTestService(t, Options{Store: store, HTTP: is.srv.Client()})
}

func TestAddPasswordPlayerSingleProfile(t *testing.T) {
	is := newIdentityServer(t)
	is.selected = "Alex"
	service, store, cfg := newPasswordService(t, is)

	candidates, err := service.AddPasswordPlayer(context.Background(), is.srv.URL, "alex@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if candidates != nil {
		t.Fatalf("a single profile must insert directly, got candidates %+v", candidates)
	}

	players := store.state.Players
	if len(players) != 1 {
		t.Fatalf("expected one persisted player, got %d", len(players))
	}
	if players[0].Name != "Alex" || players[0].Type != ThirdParty {
		t.Errorf("unexpected player %+v", players[0])
	}
	if players[0].AccessToken != "bound-token" {
		t.Errorf("a pre-bound token must be kept, got %q", players[0].AccessToken)
	}
	if players[0].AuthAccount != "alex@example.com" {
		t.Errorf("the login name must be remembered, got %q", players[0].AuthAccount)
	}
	if selectedID(cfg) != players[0].ID {
		t.Error("the inserted player must be selected")
	}
	if len(is.refreshed) != 0 {
		t.Error("a pre-bound token must not be refreshed")
	}
}

func TestAddPasswordPlayerUnboundSingleProfile(t *testing.T) {
	is := newIdentityServer(t)
	is.profiles = []string{"Alex"}
	service, store, _ := newPasswordService(t, is)

	if _, err := service.AddPasswordPlayer(context.Background(), is.srv.URL, "alex@example.com", "hunter2"); err != nil {
		t.Fatal(err)
	}

	// the unbound token has to be bound before the insert
	if len(is.refreshed) != 1 || is.refreshed[0] != "Alex" {
		t.Fatalf("expected one bind refresh for Alex, got %v", is.refreshed)
	}
	if store.state.Players[0].AccessToken != "bound-Alex" {
		t.Errorf("unexpected token %q", store.state.Players[0].AccessToken)
	}
}

func TestAddPasswordPlayerDisambiguation(t *testing.T) {
	is := newIdentityServer(t)
	is.profiles = []string{"Alex", "Steve"}
	service, store, cfg := newPasswordService(t, is)

	candidates, err := service.AddPasswordPlayer(context.Background(), is.srv.URL, "both@example.com", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both candidates back, got %d", len(candidates))
	}
	if len(store.state.Players) != 0 {
		t.Error("a disambiguation must not mutate the roster")
	}
	if selectedID(cfg) != "" {
		t.Error("a disambiguation must not select anything")
	}

	// candidates still carry the token so the pick can be completed
	if candidates[0].AccessToken == "" {
		t.Error("candidates must keep their token for AddFromSelection")
	}

	if err := service.AddFromSelection(context.Background(), candidates[1]); err != nil {
		t.Fatal(err)
	}
	players := store.state.Players
	if len(players) != 1 || players[0].Name != "Steve" {
		t.Fatalf("expected Steve inserted, got %+v", players)
	}
	if players[0].AccessToken != "bound-Steve" {
		t.Errorf("the picked candidate must get a bound token, got %q", players[0].AccessToken)
	}
	if selectedID(cfg) != players[0].ID {
		t.Error("the picked candidate must be selected")
	}
}

func TestAddPasswordPlayerAllDuplicates(t *testing.T) {
	is := newIdentityServer(t)
	is.profiles = []string{"Alex", "Steve"}
	service, store, _ := newPasswordService(t, is)

	store.state.Players = []Player{
		{ID: PlayerID(ThirdParty, "uuid-Alex", is.srv.URL), Type: ThirdParty, AuthServerURL: is.srv.URL},
		{ID: PlayerID(ThirdParty, "uuid-Steve", is.srv.URL), Type: ThirdParty, AuthServerURL: is.srv.URL},
	}
	service.state = store.state

	_, err := service.AddPasswordPlayer(context.Background(), is.srv.URL, "both@example.com", "hunter2")
	if !errors.Is(err, merrors.ErrDuplicate) {
		t.Fatalf("expected a duplicate error, got %v", err)
	}
}

func TestAddPasswordPlayerBadCredentials(t *testing.T) {
	is := newIdentityServer(t)
	is.selected = "Alex"
	service, _, _ := newPasswordService(t, is)

	_, err := service.AddPasswordPlayer(context.Background(), is.srv.URL, "alex@example.com", "wrong")
	if !errors.Is(err, merrors.ErrInvalid) {
		t.Fatalf("expected an invalid error, got %v", err)
	}
}

func TestAddPasswordPlayerUnregisteredServer(t *testing.T) {
	is := newIdentityServer(t)
	service, _, _ := newPasswordService(t, is)

	_, err := service.AddPasswordPlayer(context.Background(), "https://other.example.com", "a@b.c", "hunter2")
	if !errors.Is(err, merrors.ErrNotFound) {
		t.Fatalf("expected a not found error, got %v", err)
	}
}

func TestRefreshThirdPartyPasswordPlayer(t *testing.T) {
	is := newIdentityServer(t)
	service, store, _ := newPasswordService(t, is)

	alexID := PlayerID(ThirdParty, "uuid-Alex", is.srv.URL)
	store.state.Players = []Player{{
		ID:            alexID,
		Name:          "Alex",
		UUID:          "uuid-Alex",
		Type:          ThirdParty,
		AccessToken:   "stale",
		AuthServerURL: is.srv.URL,
	}}
	service.state = store.state

	if err := service.RefreshPlayer(context.Background(), alexID); err != nil {
		t.Fatal(err)
	}

	// no refresh token stored, so the yggdrasil token is renewed
	if len(is.refreshed) != 1 || is.refreshed[0] != "Alex" {
		t.Fatalf("expected one yggdrasil refresh for Alex, got %v", is.refreshed)
	}
	if store.state.Players[0].AccessToken != "bound-Alex" {
		t.Errorf("unexpected token %q", store.state.Players[0].AccessToken)
	}
}

func TestRefreshOfflinePlayer(t *testing.T) {
	service, _, _ := newTestService(t, Options{})
	player, err := service.AddOfflinePlayer("Steve", "")
	if err != nil {
		t.Fatal(err)
	}

	if err := service.RefreshPlayer(context.Background(), player.ID); !errors.Is(err, merrors.ErrInvalid) {
		t.Fatalf("expected an invalid error, got %v", err)
	}
}

func TestReloginPasswordPlayer(t *testing.T) {
	is := newIdentityServer(t)
	is.profiles = []string{"Alex", "Steve"}
	service, store, cfg := newPasswordService(t, is)

	steveID := PlayerID(ThirdParty, "uuid-Steve", is.srv.URL)
	store.state.Players = []Player{{
		ID:            steveID,
		Name:          "Steve",
		UUID:          "uuid-Steve",
		Type:          ThirdParty,
		AccessToken:   "stale",
		AuthServerURL: is.srv.URL,
		AuthAccount:   "both@example.com",
	}}
	service.state = store.state
	cfg.Set("players.selected", steveID)

	if err := service.ReloginPasswordPlayer(context.Background(), steveID, "hunter2"); err != nil {
		t.Fatal(err)
	}

	player := store.state.Players[0]
	if player.AccessToken != "bound-Steve" {
		t.Errorf("expected a fresh bound token, got %q", player.AccessToken)
	}
	if selectedID(cfg) != steveID {
		t.Error("relogin must not move the selection")
	}
}
