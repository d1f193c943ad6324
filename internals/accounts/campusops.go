package accounts

import (
	"context"
	"errors"

	"github.com/craftling/craftling/internals/authlib"
	"github.com/craftling/craftling/internals/merrors"
	"github.com/craftling/craftling/internals/yggdrasil"
)

// CampusLogin opens a campus web session with the student number and
// portal password. It reports whether the account still needs a
// player name bound before it can authenticate.
func (s *Service) CampusLogin(ctx context.Context, externalID string, password string) (requiresBind bool, err error) {
	if s.campus == nil {
		return false, merrors.ErrInvalid.Because("campus login is not configured")
	}

	state, err := s.campus.Login(ctx, externalID, password)
	if err != nil {
		return false, err
	}

	s.flows.putCampus(state)
	return state.RequiresBind, nil
}

// CampusBindPlayerName binds a player name to the campus account of
// the pending session. Only valid between CampusLogin and
// CampusAuthenticate.
func (s *Service) CampusBindPlayerName(ctx context.Context, playerName string) error {
	state, err := s.flows.campusState()
	if err != nil {
		return err
	}
	return s.campus.BindPlayerName(ctx, state, playerName)
}

// CampusAuthenticate turns the pending campus session into a roster
// player by logging into the campus yggdrasil endpoint with the same
// password. With exactly one fresh profile it is inserted and
// selected (nil return); with several, the candidates come back for
// AddFromSelection.
//
// The pending session is consumed on every terminal outcome: success,
// a candidate list, or any failure. It stays pending only on a
// duplicate or not found outcome, so the user can retry with another
// account without logging in again.
func (s *Service) CampusAuthenticate(ctx context.Context, password string) ([]Player, error) {
	state, err := s.flows.campusState()
	if err != nil {
		return nil, err
	}

	profiles, accessToken, alreadySelected, err := s.campus.Authenticate(ctx, state, password)
	if err != nil {
		return nil, s.settleCampus(err)
	}

	authURL := s.campus.YggdrasilURL()

	if alreadySelected {
		player, err := s.playerFromProfile(&profiles[0], accessToken, "", authURL, state.ExternalID)
		if err != nil {
			return nil, s.settleCampus(err)
		}
		return nil, s.settleCampus(s.insertAndSelect(*player))
	}

	candidates := make([]Player, 0, len(profiles))
	for i := range profiles {
		candidate, err := s.playerFromProfile(&profiles[i], accessToken, "", authURL, state.ExternalID)
		if err != nil {
			return nil, s.settleCampus(err)
		}
		candidates = append(candidates, *candidate)
	}

	fresh := s.withoutExisting(candidates)
	switch len(fresh) {
	case 0:
		// the duplicate keeps the session so another account can be
		// tried without a fresh portal login
		return nil, merrors.ErrDuplicate
	case 1:
		player := fresh[0]
		bound, err := authlib.BindToken(ctx, s.http, authURL, accessToken, &yggdrasil.Profile{ID: player.UUID, Name: player.Name})
		if err != nil {
			return nil, s.settleCampus(err)
		}
		player.AccessToken = bound
		return nil, s.settleCampus(s.insertAndSelect(player))
	default:
		s.flows.clearCampus()
		return fresh, nil
	}
}

// settleCampus concludes the finalize step: the pending session is
// cleared on success and on every terminal error. Only a duplicate or
// not found outcome keeps it for a retry.
func (s *Service) settleCampus(err error) error {
	if err != nil && (errors.Is(err, merrors.ErrDuplicate) || errors.Is(err, merrors.ErrNotFound)) {
		return err
	}
	s.flows.clearCampus()
	return err
}

// CampusCancel drops the pending campus session, if any.
func (s *Service) CampusCancel() {
	s.flows.clearCampus()
}
