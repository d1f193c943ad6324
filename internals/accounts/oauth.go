package accounts

import (
	"context"

	"github.com/craftling/craftling/internals/authlib"
	"github.com/craftling/craftling/internals/merrors"
)

// OAuthPrompt is what the caller has to show to the user while a
// device flow is pending
type OAuthPrompt struct {
	// Handle identifies the flow in the follow-up CompleteOAuth or
	// ReloginOAuth call
	Handle          string
	UserCode        string
	VerificationURI string
}

// BeginOAuth starts a device authorization for the vendor login or a
// registered third party server and returns the code the user has to
// enter in their browser
func (s *Service) BeginOAuth(ctx context.Context, serverType PlayerType, authServerURL string) (*OAuthPrompt, error) {
	flow := &oauthFlow{serverType: serverType, authServerURL: authServerURL}

	switch serverType {
	case Microsoft:
		session, err := s.microsoft.DeviceAuthorization(ctx)
		if err != nil {
			return nil, err
		}
		flow.session = session

	case ThirdParty:
		server, err := s.authServerSnapshot(authServerURL)
		if err != nil {
			return nil, err
		}
		session, err := authlib.DeviceAuthorization(ctx, s.http, server.OpenIDConfigurationURL, server.ClientID)
		if err != nil {
			return nil, err
		}
		flow.session = session

	case Offline:
		return nil, merrors.ErrInvalid.Because("offline players have no oauth login")
	default:
		return nil, merrors.ErrInvalid.Because("unknown player type %q", serverType)
	}

	s.pollCancelled.Store(false)
	handle := s.flows.putOAuth(flow)
	return &OAuthPrompt{
		Handle:          handle,
		UserCode:        flow.session.UserCode,
		VerificationURI: flow.session.VerificationURI,
	}, nil
}

// CompleteOAuth polls the device flow to its end and inserts the
// resulting player. OAuth logins always produce exactly one identity,
// so no disambiguation can occur here.
func (s *Service) CompleteOAuth(ctx context.Context, handle string) (*Player, error) {
	player, err := s.finishOAuth(ctx, handle)
	if err != nil {
		return nil, err
	}
	if err := s.insertAndSelect(*player); err != nil {
		return nil, err
	}
	return player, nil
}

// ReloginOAuth polls the device flow to its end and replaces the
// stored record of an existing player. Selection is untouched.
func (s *Service) ReloginOAuth(ctx context.Context, playerID string, handle string) error {
	old, err := s.playerSnapshot(playerID)
	if err != nil {
		return err
	}
	if old.Type == Offline {
		return merrors.ErrInvalid.Because("offline players have no oauth login")
	}

	player, err := s.finishOAuth(ctx, handle)
	if err != nil {
		return err
	}
	return s.replacePlayer(playerID, *player)
}

// CancelOAuth aborts all in-flight device code polling. The poll
// loops check the flag between polls and exit without touching the
// roster.
func (s *Service) CancelOAuth() {
	s.pollCancelled.Store(true)
}

func (s *Service) finishOAuth(ctx context.Context, handle string) (*Player, error) {
	flow, err := s.flows.takeOAuth(handle)
	if err != nil {
		return nil, err
	}
	cancelled := func() bool { return s.pollCancelled.Load() }

	switch flow.serverType {
	case Microsoft:
		creds, err := s.microsoft.Login(ctx, flow.session, cancelled)
		if err != nil {
			return nil, err
		}
		return s.playerFromMicrosoft(creds), nil

	case ThirdParty:
		token, profile, err := authlib.OAuthLogin(ctx, s.http, flow.authServerURL, flow.session, cancelled)
		if err != nil {
			return nil, err
		}
		return s.playerFromThirdPartyOAuth(ctx, flow.authServerURL, token, profile)

	default:
		return nil, merrors.ErrInvalid.Because("unknown player type %q", flow.serverType)
	}
}

// RefreshPlayer renews the stored credentials of a player without
// user interaction. A rejected refresh surfaces as Invalid, meaning
// the user has to log in interactively again.
func (s *Service) RefreshPlayer(ctx context.Context, playerID string) error {
	player, err := s.playerSnapshot(playerID)
	if err != nil {
		return err
	}

	var refreshed *Player
	switch player.Type {
	case Offline:
		return merrors.ErrInvalid.Because("offline players have no credentials to refresh")

	case Microsoft:
		creds, err := s.microsoft.Refresh(ctx, player.RefreshToken)
		if err != nil {
			return err
		}
		refreshed = s.playerFromMicrosoft(creds)

	case ThirdParty:
		refreshed, err = s.refreshThirdParty(ctx, player)
		if err != nil {
			return err
		}

	default:
		return merrors.ErrInvalid.Because("unknown player type %q", player.Type)
	}

	return s.replacePlayer(playerID, *refreshed)
}

func (s *Service) refreshThirdParty(ctx context.Context, player Player) (*Player, error) {
	server, err := s.authServerSnapshot(player.AuthServerURL)
	if err != nil {
		return nil, err
	}

	// oauth players carry a refresh token, password players renew
	// their yggdrasil access token instead
	if player.RefreshToken != "" {
		token, profile, err := authlib.OAuthRefresh(ctx, s.http, server.AuthURL, server.OpenIDConfigurationURL, server.ClientID, player.RefreshToken)
		if err != nil {
			return nil, err
		}
		return s.playerFromThirdPartyOAuth(ctx, server.AuthURL, token, profile)
	}

	ygg := yggProfileRef(player)
	accessToken, err := authlib.YggdrasilRefresh(ctx, s.http, server.AuthURL, player.AccessToken, &ygg)
	if err != nil {
		return nil, err
	}
	return s.resolveThirdPartyPlayer(ctx, server.AuthURL, player.UUID, accessToken, "", player.AuthAccount)
}
