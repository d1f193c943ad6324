// Package offline creates local pseudo identities. No network is
// involved: the UUID is either supplied by the caller or derived the
// same way the game does it for offline servers.
package offline

import (
	"crypto/md5"
	"strings"

	"github.com/craftling/craftling/internals/merrors"
	"github.com/google/uuid"
)

// Identity is an offline player candidate
type Identity struct {
	Name string
	UUID string
}

// Login produces exactly one offline identity. An empty rawUUID
// derives the deterministic offline UUID from the name.
func Login(name string, rawUUID string) (*Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, merrors.ErrInvalid.Because("player name must not be empty")
	}

	if rawUUID == "" {
		return &Identity{Name: name, UUID: UUID(name)}, nil
	}

	parsed, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, merrors.ErrInvalid.Because("%q is not a valid uuid", rawUUID)
	}
	return &Identity{Name: name, UUID: parsed.String()}, nil
}

// UUID derives the offline UUID for a player name. This mirrors
// Java's UUID.nameUUIDFromBytes over "OfflinePlayer:<name>": a plain
// md5 with version 3 and the RFC 4122 variant patched in.
func UUID(name string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}
