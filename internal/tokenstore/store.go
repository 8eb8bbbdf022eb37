package tokenstore

import (
	"context"
	"encoding/json"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

// Fixed keys shared by every backend.
const (
	KeyToken = "auth_token"
	KeyUser  = "user_data"
)

// Credentials is the persisted session pair.
type Credentials struct {
	Token string
	User  *model.User
}

// Valid reports whether both halves of the pair are present.
func (c Credentials) Valid() bool {
	return c.Token != "" && c.User != nil
}

// Store persists exactly one credential pair.
//
// Load returns ok=false when nothing is stored, or when only one of the two
// keys is present. Clear is idempotent. Medium failures are returned as
// errors.KindStorage.
type Store interface {
	Save(ctx context.Context, creds Credentials) error
	Load(ctx context.Context) (Credentials, bool, error)
	Clear(ctx context.Context) error
}

// Closer is implemented by backends holding a connection.
type Closer interface {
	Close() error
}

func encodeUser(u *model.User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, errors.Storage("failed to encode user profile", err)
	}
	return data, nil
}

// decodePair rebuilds credentials from raw key values; a torn or unreadable
// pair is reported as absent.
func decodePair(token string, userData []byte) (Credentials, bool) {
	if token == "" || len(userData) == 0 {
		return Credentials{}, false
	}
	var u model.User
	if err := json.Unmarshal(userData, &u); err != nil {
		return Credentials{}, false
	}
	return Credentials{Token: token, User: &u}, true
}

func checkSave(creds Credentials) error {
	if !creds.Valid() {
		return errors.Storage("refusing to save incomplete credentials", nil)
	}
	return nil
}
