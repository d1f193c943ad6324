package yggdrasil

import (
	"encoding/base64"
	"encoding/json"

	"github.com/craftling/craftling/internals/merrors"
)

// Profile is a player profile as returned by the authenticate and
// session server endpoints
type Profile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties []ProfileProperty `json:"properties,omitempty"`
}

// ProfileProperty is a signed key/value pair attached to a profile.
// The "textures" property carries the skin & cape URLs
type ProfileProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// AuthResponse is the response of a successful authenticate or
// refresh call
type AuthResponse struct {
	AccessToken       string    `json:"accessToken"`
	ClientToken       string    `json:"clientToken"`
	SelectedProfile   *Profile  `json:"selectedProfile"`
	AvailableProfiles []Profile `json:"availableProfiles"`
}

type yggAgent struct {
	Name    string `json:"name"`
	Version uint8  `json:"version"`
}

type yggLogin struct {
	Agent    yggAgent `json:"agent"`
	Username string   `json:"username"`
	Password string   `json:"password"`
}

type yggRefresh struct {
	AccessToken     string   `json:"accessToken"`
	ClientToken     string   `json:"clientToken,omitempty"`
	SelectedProfile *Profile `json:"selectedProfile,omitempty"`
}

type yggError struct {
	ErrorCode    string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause"`
}

func (y yggError) Error() string {
	if y.ErrorMessage != "" {
		return y.ErrorMessage
	}
	return y.ErrorCode
}

// Textures is the decoded content of the "textures" profile property
type Textures struct {
	SkinURL string
	CapeURL string
	// Model is "slim" for the 3px arm model, empty otherwise
	Model string
}

type texturesBlob struct {
	Textures map[string]struct {
		URL      string `json:"url"`
		Metadata struct {
			Model string `json:"model"`
		} `json:"metadata"`
	} `json:"textures"`
}

// Textures decodes the base64 "textures" property of the profile.
// A profile without the property yields an empty Textures value.
func (p *Profile) Textures() (*Textures, error) {
	for _, prop := range p.Properties {
		if prop.Name != "textures" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(prop.Value)
		if err != nil {
			return nil, merrors.ErrParse.With(err)
		}
		blob := texturesBlob{}
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, merrors.ErrParse.With(err)
		}
		textures := &Textures{}
		if skin, ok := blob.Textures["SKIN"]; ok {
			textures.SkinURL = skin.URL
			textures.Model = skin.Metadata.Model
		}
		if cape, ok := blob.Textures["CAPE"]; ok {
			textures.CapeURL = cape.URL
		}
		return textures, nil
	}
	return &Textures{}, nil
}
