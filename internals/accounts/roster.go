package accounts

import (
	"github.com/craftling/craftling/internals/config"
	"github.com/craftling/craftling/internals/merrors"
	"github.com/craftling/craftling/internals/offline"
)

// Players returns a snapshot of the roster. Tokens are stripped:
// listings never cross the caller boundary with credentials.
func (s *Service) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make([]Player, 0, len(s.state.Players))
	for _, player := range s.state.Players {
		players = append(players, player.Redacted())
	}
	return players
}

// SelectedPlayerID returns the id of the currently selected player,
// empty when none is selected
func (s *Service) SelectedPlayerID() string {
	return s.config.Get(config.KeySelectedPlayer)
}

// SelectPlayer marks an existing player as selected
func (s *Service) SelectPlayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findPlayer(id) == nil {
		return merrors.ErrNotFound.Because("no player with id %s", id)
	}
	return s.saveSelection(id)
}

// AddOfflinePlayer creates and inserts a local pseudo identity. An
// empty uuid derives the deterministic offline uuid from the name.
func (s *Service) AddOfflinePlayer(name string, rawUUID string) (*Player, error) {
	identity, err := offline.Login(name, rawUUID)
	if err != nil {
		return nil, err
	}

	skin, err := offline.LoadPresetSkin("steve")
	if err != nil {
		return nil, err
	}
	player := Player{
		ID:      PlayerID(Offline, identity.UUID, ""),
		Name:    identity.Name,
		UUID:    identity.UUID,
		Type:    Offline,
		Texture: &Texture{Model: skin.Model, Preset: skin.Role},
	}

	if _, err := s.addOrDisambiguate([]Player{player}); err != nil {
		return nil, err
	}
	return &player, nil
}

// UpdateOfflineSkinPreset overwrites the texture of an offline player
// with one of the bundled preset skins
func (s *Service) UpdateOfflineSkinPreset(id string, presetRole string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.findPlayer(id)
	if player == nil {
		return merrors.ErrNotFound.Because("no player with id %s", id)
	}
	if player.Type != Offline {
		return merrors.ErrInvalid.Because("preset skins only apply to offline players")
	}

	skin, err := offline.LoadPresetSkin(presetRole)
	if err != nil {
		return err
	}

	next := s.cloneState()
	for i := range next.Players {
		if next.Players[i].ID == id {
			next.Players[i].Texture = &Texture{Model: skin.Model, Preset: skin.Role}
		}
	}
	return s.commit(next, nil)
}

// DeletePlayer removes a player. When the removed player was
// selected, selection moves to the first remaining player or becomes
// unset.
func (s *Service) DeletePlayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cloneState()
	kept := next.Players[:0]
	for _, player := range next.Players {
		if player.ID != id {
			kept = append(kept, player)
		}
	}
	if len(kept) == len(next.Players) {
		return merrors.ErrNotFound.Because("no player with id %s", id)
	}
	next.Players = kept

	var newSelection *string
	if s.config.Get(config.KeySelectedPlayer) == id {
		selected := ""
		if len(next.Players) > 0 {
			selected = next.Players[0].ID
		}
		newSelection = &selected
	}
	return s.commit(next, newSelection)
}

// addOrDisambiguate applies the uniform roster policy to candidate
// identities: candidates already present are dropped; none left means
// Duplicate; exactly one left is inserted, selected and persisted;
// several are handed back untouched for the user to pick one, the
// choice re-enters through AddFromSelection.
func (s *Service) addOrDisambiguate(candidates []Player) ([]Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := s.withoutExistingLocked(candidates)
	switch len(fresh) {
	case 0:
		return nil, merrors.ErrDuplicate
	case 1:
		return nil, s.insertAndSelectLocked(fresh[0])
	default:
		return fresh, nil
	}
}

// withoutExisting drops candidates whose id is already rostered.
// Dedup is by id, never by name or uuid alone.
func (s *Service) withoutExisting(candidates []Player) []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withoutExistingLocked(candidates)
}

func (s *Service) withoutExistingLocked(candidates []Player) []Player {
	fresh := make([]Player, 0, len(candidates))
	for _, candidate := range candidates {
		if s.findPlayer(candidate.ID) == nil {
			fresh = append(fresh, candidate)
		}
	}
	return fresh
}

func (s *Service) insertAndSelect(player Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertAndSelectLocked(player)
}

func (s *Service) insertAndSelectLocked(player Player) error {
	// the roster may have changed while the adapter was on the wire
	if s.findPlayer(player.ID) != nil {
		return merrors.ErrDuplicate
	}

	next := s.cloneState()
	if player.Type == ThirdParty {
		// third party players must reference a registered server; the
		// campus identity server registers itself on first login
		s.ensureAuthServerLocked(&next, player.AuthServerURL, player.AuthServerURL)
	}
	next.Players = append(next.Players, player)
	selected := player.ID
	return s.commit(next, &selected)
}

// replacePlayer swaps the stored record for id. Used by refresh and
// relogin; selection is untouched. The replacement must carry the
// same id: a relogin that produced a different identity would leave
// the selection dangling and could collide with another roster entry.
func (s *Service) replacePlayer(id string, player Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if player.ID != id {
		return merrors.ErrInvalid.Because("logged in as %s, not the stored account", player.Name)
	}

	next := s.cloneState()
	found := false
	for i := range next.Players {
		if next.Players[i].ID == id {
			next.Players[i] = player
			found = true
		}
	}
	if !found {
		return merrors.ErrNotFound.Because("no player with id %s", id)
	}
	return s.commit(next, nil)
}

// findPlayer returns the stored player with id, nil when absent.
// Callers must hold the roster lock.
func (s *Service) findPlayer(id string) *Player {
	for i := range s.state.Players {
		if s.state.Players[i].ID == id {
			return &s.state.Players[i]
		}
	}
	return nil
}

// playerSnapshot copies one player out of the roster
func (s *Service) playerSnapshot(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := s.findPlayer(id)
	if player == nil {
		return Player{}, merrors.ErrNotFound.Because("no player with id %s", id)
	}
	return *player, nil
}

func (s *Service) cloneState() State {
	next := State{
		Players:     make([]Player, len(s.state.Players)),
		AuthServers: make([]AuthServer, len(s.state.AuthServers)),
	}
	copy(next.Players, s.state.Players)
	copy(next.AuthServers, s.state.AuthServers)
	return next
}

// commit persists the next state (and, when given, the new selection)
// before making it visible. A failed save leaves the in-memory state
// untouched, so no partial mutation can be observed.
func (s *Service) commit(next State, newSelection *string) error {
	if err := s.store.Save(&next); err != nil {
		return err
	}
	if newSelection != nil {
		if err := s.saveSelection(*newSelection); err != nil {
			return err
		}
	}
	s.state = next
	return nil
}

func (s *Service) saveSelection(id string) error {
	s.config.Set(config.KeySelectedPlayer, id)
	return s.config.Save()
}
