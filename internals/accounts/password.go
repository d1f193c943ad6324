package accounts

import (
	"context"

	"github.com/craftling/craftling/internals/authlib"
	"github.com/craftling/craftling/internals/merrors"
	"github.com/craftling/craftling/internals/yggdrasil"
)

// AddPasswordPlayer logs into a registered third party server with
// username and password. An account can own several profiles: with
// exactly one fresh candidate it is bound and inserted right away
// (nil return); with several, the candidates come back for the user
// to pick one via AddFromSelection.
func (s *Service) AddPasswordPlayer(ctx context.Context, authServerURL string, username string, password string) ([]Player, error) {
	server, err := s.authServerSnapshot(authServerURL)
	if err != nil {
		return nil, err
	}

	profiles, accessToken, tokenBound, err := authlib.PasswordLogin(ctx, s.http, server.AuthURL, username, password)
	if err != nil {
		return nil, err
	}

	candidates := make([]Player, 0, len(profiles))
	for _, profile := range profiles {
		candidates = append(candidates, Player{
			ID:            PlayerID(ThirdParty, profile.ID, server.AuthURL),
			Name:          profile.Name,
			UUID:          profile.ID,
			Type:          ThirdParty,
			AccessToken:   accessToken,
			AuthServerURL: server.AuthURL,
			AuthAccount:   username,
		})
	}

	fresh := s.withoutExisting(candidates)
	switch len(fresh) {
	case 0:
		return nil, merrors.ErrDuplicate
	case 1:
		// a password login with one profile is only complete once the
		// token is bound to it; a failed bind fails the whole login
		player := fresh[0]
		if !tokenBound {
			bound, err := authlib.BindToken(ctx, s.http, server.AuthURL, accessToken, &yggdrasil.Profile{ID: player.UUID, Name: player.Name})
			if err != nil {
				return nil, err
			}
			player.AccessToken = bound
		}
		resolved, err := s.resolveThirdPartyPlayer(ctx, server.AuthURL, player.UUID, player.AccessToken, "", username)
		if err != nil {
			return nil, err
		}
		return nil, s.insertAndSelect(*resolved)
	default:
		return fresh, nil
	}
}

// ReloginPasswordPlayer renews the credentials of an existing third
// party player with a fresh password login. The profile matching the
// stored uuid is picked automatically; selection is untouched.
func (s *Service) ReloginPasswordPlayer(ctx context.Context, playerID string, password string) error {
	old, err := s.playerSnapshot(playerID)
	if err != nil {
		return err
	}
	if old.Type != ThirdParty {
		return merrors.ErrInvalid.Because("password relogin only applies to third party players")
	}

	server, err := s.authServerSnapshot(old.AuthServerURL)
	if err != nil {
		return err
	}

	profiles, accessToken, tokenBound, err := authlib.PasswordLogin(ctx, s.http, server.AuthURL, old.AuthAccount, password)
	if err != nil {
		return err
	}

	var match *yggdrasil.Profile
	for i := range profiles {
		if sameUUID(profiles[i].ID, old.UUID) {
			match = &profiles[i]
			break
		}
	}
	if match == nil {
		return merrors.ErrNotFound.Because("this account no longer owns profile %s", old.UUID)
	}

	if !tokenBound {
		accessToken, err = authlib.BindToken(ctx, s.http, server.AuthURL, accessToken, match)
		if err != nil {
			return err
		}
	}

	refreshed, err := s.resolveThirdPartyPlayer(ctx, server.AuthURL, match.ID, accessToken, "", old.AuthAccount)
	if err != nil {
		return err
	}
	return s.replacePlayer(playerID, *refreshed)
}

// AddFromSelection resolves a candidate the user picked from an
// earlier disambiguation into a stored player. The token is bound to
// the chosen profile before insertion.
func (s *Service) AddFromSelection(ctx context.Context, candidate Player) error {
	if candidate.Type != ThirdParty {
		return merrors.ErrInvalid.Because("only third party candidates need a selection step")
	}

	accessToken, err := authlib.BindToken(ctx, s.http, candidate.AuthServerURL, candidate.AccessToken, &yggdrasil.Profile{ID: candidate.UUID, Name: candidate.Name})
	if err != nil {
		return err
	}

	player, err := s.resolveThirdPartyPlayer(ctx, candidate.AuthServerURL, candidate.UUID, accessToken, "", candidate.AuthAccount)
	if err != nil {
		return err
	}
	return s.insertAndSelect(*player)
}
