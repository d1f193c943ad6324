package accounts

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/craftling/craftling/internals/authlib"
	"github.com/craftling/craftling/internals/config"
	"github.com/craftling/craftling/internals/downloadmgr"
	"github.com/craftling/craftling/internals/minecraft/microsoft"
	"github.com/craftling/craftling/internals/yggdrasil"
	"golang.org/x/oauth2"
)

// playerFromMicrosoft converts finished vendor credentials into a
// roster record
func (s *Service) playerFromMicrosoft(creds *microsoft.Credentials) *Player {
	player := &Player{
		ID:           PlayerID(Microsoft, creds.GetUUID(), ""),
		Name:         creds.GetPlayerName(),
		UUID:         creds.GetUUID(),
		Type:         Microsoft,
		AccessToken:  creds.GetAccessToken(),
		RefreshToken: creds.GetRefreshToken(),
	}
	if url, variant := creds.MinecraftProfile.ActiveSkin(); url != "" {
		model := ""
		if strings.EqualFold(variant, "SLIM") {
			model = "slim"
		}
		player.Texture = &Texture{URL: url, Model: model}
		s.cacheTexture(player.UUID, url)
	}
	return player
}

// playerFromThirdPartyOAuth resolves an oauth token + selected
// profile into a roster record, pulling the full profile for its
// textures
func (s *Service) playerFromThirdPartyOAuth(ctx context.Context, authURL string, token *oauth2.Token, profile *authlib.MinecraftProfile) (*Player, error) {
	return s.resolveThirdPartyPlayer(ctx, authURL, profile.ID, token.AccessToken, token.RefreshToken, "")
}

// resolveThirdPartyPlayer fetches the full profile from the identity
// server and builds the roster record from it
func (s *Service) resolveThirdPartyPlayer(ctx context.Context, authURL string, uuid string, accessToken string, refreshToken string, authAccount string) (*Player, error) {
	profile, err := authlib.FullProfile(ctx, s.http, authURL, uuid)
	if err != nil {
		return nil, err
	}
	return s.playerFromProfile(profile, accessToken, refreshToken, authURL, authAccount)
}

// playerFromProfile builds a third party roster record from a full
// yggdrasil profile
func (s *Service) playerFromProfile(profile *yggdrasil.Profile, accessToken string, refreshToken string, authURL string, authAccount string) (*Player, error) {
	player := &Player{
		ID:            PlayerID(ThirdParty, profile.ID, authURL),
		Name:          profile.Name,
		UUID:          profile.ID,
		Type:          ThirdParty,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AuthServerURL: authURL,
		AuthAccount:   authAccount,
	}

	textures, err := profile.Textures()
	if err != nil {
		return nil, err
	}
	if textures.SkinURL != "" {
		player.Texture = &Texture{URL: textures.SkinURL, Model: textures.Model}
		s.cacheTexture(player.UUID, textures.SkinURL)
	}
	return player, nil
}

// cacheTexture enqueues the skin file into the download cache. Best
// effort: without a cache dir or download manager nothing happens.
func (s *Service) cacheTexture(uuid string, url string) {
	if s.downloads == nil {
		return
	}
	cacheDir := s.config.Get(config.KeyCacheDir)
	if cacheDir == "" {
		return
	}
	target := filepath.Join(cacheDir, "skins", sameCaseUUID(uuid)+".png")
	s.downloads.Enqueue("textures", downloadmgr.NewHTTPItem(url, target))
}

// TextureDownloads returns the progress handle for pending skin
// fetches, nil when no download manager is wired
func (s *Service) TextureDownloads() *downloadmgr.Group {
	if s.downloads == nil {
		return nil
	}
	return s.downloads.Enqueue("textures")
}

// sameUUID compares uuids ignoring case and dashes
func sameUUID(a string, b string) bool {
	return sameCaseUUID(a) == sameCaseUUID(b)
}

func sameCaseUUID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// yggProfileRef builds the minimal profile reference the refresh
// endpoint expects
func yggProfileRef(player Player) yggdrasil.Profile {
	return yggdrasil.Profile{ID: player.UUID, Name: player.Name}
}
