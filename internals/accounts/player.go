// Package accounts owns the player roster: the data model, the
// mutation policy and the orchestration of the four login protocols.
package accounts

import "strings"

// PlayerType is the login protocol a player belongs to. The set is
// closed; every protocol sensitive operation switches over it
// exhaustively.
type PlayerType string

const (
	Offline    PlayerType = "offline"
	Microsoft  PlayerType = "microsoft"
	ThirdParty PlayerType = "3rdparty"
)

// Player is one stored identity
type Player struct {
	// ID is unique within the roster, derived from type, uuid and
	// (for third party players) the origin server
	ID   string     `json:"id"`
	Name string     `json:"name"`
	UUID string     `json:"uuid"`
	Type PlayerType `json:"playerType"`

	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`

	// AuthServerURL is the origin identity server of a third party
	// player. It must reference a registered auth server.
	AuthServerURL string `json:"authServerUrl,omitempty"`
	// AuthAccount is the login name at the identity server when it
	// differs from the display name (e.g. an email or student number)
	AuthAccount string `json:"authAccount,omitempty"`

	Texture *Texture `json:"texture,omitempty"`
}

// Texture is a player's skin reference
type Texture struct {
	// URL of the remote skin file, empty for preset skins
	URL string `json:"url,omitempty"`
	// Model is "slim" for the 3px arm model
	Model string `json:"model,omitempty"`
	// Preset names a bundled skin of an offline player
	Preset string `json:"preset,omitempty"`
}

// PlayerID derives the roster id of a player
func PlayerID(t PlayerType, uuid string, authServerURL string) string {
	id := string(t) + ":" + strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
	if t == ThirdParty {
		id += ":" + authServerURL
	}
	return id
}

// Redacted returns a copy safe to hand across the caller boundary:
// tokens never leave the core through listings
func (p Player) Redacted() Player {
	p.AccessToken = ""
	p.RefreshToken = ""
	return p
}

// AuthServer is a registered third party identity provider
type AuthServer struct {
	Name string `json:"name"`
	// AuthURL is the canonical API root and the dedup key
	AuthURL  string `json:"authUrl"`
	ClientID string `json:"clientId,omitempty"`
	// OpenIDConfigurationURL enables the device flow when present
	OpenIDConfigurationURL string `json:"openidConfigurationUrl,omitempty"`
	NonEmailLogin          bool   `json:"nonEmailLogin,omitempty"`
	Homepage               string `json:"homepage,omitempty"`
	Register               string `json:"register,omitempty"`
}

// State is the unit of persistence: the ordered player list and the
// auth server registry. The selected player id lives in the launcher
// config instead.
type State struct {
	Players     []Player     `json:"players"`
	AuthServers []AuthServer `json:"authServers"`
}

// Persister stores the account state durably. Every successful
// mutation saves before it becomes visible.
type Persister interface {
	Load() (*State, error)
	Save(*State) error
}

// ConfigStore is the launcher configuration collaborator. It keeps
// the selected player id in sync with the roster.
type ConfigStore interface {
	Get(key string) string
	Set(key string, value string)
	Save() error
}
