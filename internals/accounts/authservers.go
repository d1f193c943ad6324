package accounts

import (
	"context"

	"github.com/craftling/craftling/internals/authlib"
	"github.com/craftling/craftling/internals/config"
	"github.com/craftling/craftling/internals/merrors"
)

// AuthServers returns a snapshot of the registered third party
// identity servers
func (s *Service) AuthServers() []AuthServer {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers := make([]AuthServer, len(s.state.AuthServers))
	copy(servers, s.state.AuthServers)
	return servers
}

// FetchAuthServer resolves and downloads the metadata of a server
// without registering it. Already registered servers are reported as
// Duplicate so the caller can skip the confirmation step.
func (s *Service) FetchAuthServer(ctx context.Context, rawURL string) (*AuthServer, error) {
	authURL, err := authlib.FetchAuthURL(ctx, s.http, rawURL)
	if err != nil {
		return nil, err
	}
	if _, err := s.authServerSnapshot(authURL); err == nil {
		return nil, merrors.ErrDuplicate.Because("this auth server is already registered")
	}

	info, err := authlib.FetchServerInfo(ctx, s.http, authURL)
	if err != nil {
		return nil, err
	}
	server := authServerFromInfo(info)
	return &server, nil
}

// AddAuthServer fetches a server's metadata and registers it. The
// canonical url is the dedup key.
func (s *Service) AddAuthServer(ctx context.Context, rawURL string) (*AuthServer, error) {
	server, err := s.FetchAuthServer(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// re-check under the lock, a concurrent add may have won
	if s.findAuthServerLocked(server.AuthURL) != nil {
		return nil, merrors.ErrDuplicate.Because("this auth server is already registered")
	}

	next := s.cloneState()
	next.AuthServers = append(next.AuthServers, *server)
	if err := s.commit(next, nil); err != nil {
		return nil, err
	}
	return server, nil
}

// DeleteAuthServer removes a registered server. The delete cascades:
// every player whose origin is this server is removed too, and the
// selection is repaired when it pointed at one of them.
func (s *Service) DeleteAuthServer(authURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	keptServers := next.AuthServers[:0]
	for _, server := range next.AuthServers {
		if server.AuthURL != authURL {
			keptServers = append(keptServers, server)
		}
	}
	if len(keptServers) == len(next.AuthServers) {
		return merrors.ErrNotFound.Because("no auth server with url %s", authURL)
	}
	next.AuthServers = keptServers

	selected := s.config.Get(config.KeySelectedPlayer)
	selectionLost := false
	keptPlayers := next.Players[:0]
	for _, player := range next.Players {
		if player.AuthServerURL == authURL {
			if player.ID == selected {
				selectionLost = true
			}
			continue
		}
		keptPlayers = append(keptPlayers, player)
	}
	next.Players = keptPlayers

	var newSelection *string
	if selectionLost {
		reselected := ""
		if len(next.Players) > 0 {
			reselected = next.Players[0].ID
		}
		newSelection = &reselected
	}
	return s.commit(next, newSelection)
}

// authServerSnapshot copies the registered server with the given url
func (s *Service) authServerSnapshot(authURL string) (AuthServer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	server := s.findAuthServerLocked(authURL)
	if server == nil {
		return AuthServer{}, merrors.ErrNotFound.Because("no auth server with url %s", authURL)
	}
	return *server, nil
}

func (s *Service) findAuthServerLocked(authURL string) *AuthServer {
	for i := range s.state.AuthServers {
		if s.state.AuthServers[i].AuthURL == authURL {
			return &s.state.AuthServers[i]
		}
	}
	return nil
}

// ensureAuthServerLocked registers a minimal server record when the
// url is not known yet. Third party players must always reference a
// registered server; the campus identity server gets registered this
// way on its first login.
func (s *Service) ensureAuthServerLocked(next *State, authURL string, name string) {
	for i := range next.AuthServers {
		if next.AuthServers[i].AuthURL == authURL {
			return
		}
	}
	next.AuthServers = append(next.AuthServers, AuthServer{Name: name, AuthURL: authURL})
}

func authServerFromInfo(info *authlib.ServerInfo) AuthServer {
	name := info.Meta.ServerName
	if name == "" {
		name = info.AuthURL
	}
	return AuthServer{
		Name:                   name,
		AuthURL:                info.AuthURL,
		ClientID:               info.Meta.ClientID,
		OpenIDConfigurationURL: info.Meta.OpenIDConfigurationURL,
		NonEmailLogin:          info.Meta.NonEmailLogin,
		Homepage:               info.Meta.Links.Homepage,
		Register:               info.Meta.Links.Register,
	}
}
