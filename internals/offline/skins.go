package offline

import (
	"sort"

	"github.com/craftling/craftling/internals/merrors"
)

// PresetSkin is one of the bundled default skins an offline player
// can use
type PresetSkin struct {
	Role string
	// Model is "slim" for the 3px arm variants
	Model string
	// Ref locates the bundled texture
	Ref string
}

// presetModels is the fixed set of allowed preset roles and their arm
// model. These match the game's default player skins.
var presetModels = map[string]string{
	"steve":  "default",
	"alex":   "slim",
	"ari":    "slim",
	"efe":    "slim",
	"kai":    "default",
	"makena": "slim",
	"noor":   "slim",
	"sunny":  "default",
	"zuri":   "default",
}

// PresetRoles lists the allowed preset skin names in stable order
func PresetRoles() []string {
	roles := make([]string, 0, len(presetModels))
	for role := range presetModels {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// LoadPresetSkin validates the role name and returns the texture
// reference for it
func LoadPresetSkin(role string) (*PresetSkin, error) {
	model, ok := presetModels[role]
	if !ok {
		return nil, merrors.ErrTexture.Because("unknown skin preset %q", role)
	}
	return &PresetSkin{
		Role:  role,
		Model: model,
		Ref:   "builtin:skins/" + role + ".png",
	}, nil
}
