package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/security"
)

// FileStore keeps both keys in one JSON document. Writes go to a temp file
// in the same directory and are renamed over the old one. With an encryptor
// the document is sealed before it touches disk.
type FileStore struct {
	path      string
	encryptor security.Encryptor
	mu        sync.Mutex
}

type FileOption func(*FileStore)

func WithEncryptor(enc security.Encryptor) FileOption {
	return func(s *FileStore) {
		s.encryptor = enc
	}
}

type fileDocument struct {
	Token    string          `json:"auth_token,omitempty"`
	UserData json.RawMessage `json:"user_data,omitempty"`
}

func NewFileStore(path string, opts ...FileOption) *FileStore {
	s := &FileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(ctx context.Context, creds Credentials) error {
	if err := checkSave(creds); err != nil {
		return err
	}
	userData, err := encodeUser(creds.User)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fileDocument{Token: creds.Token, UserData: userData})
	if err != nil {
		return errors.Storage("failed to encode credentials", err)
	}
	if s.encryptor != nil {
		if data, err = s.encryptor.Encrypt(data); err != nil {
			return errors.Storage("failed to encrypt credentials", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return errors.Storage("", err)
	}
	return s.writeAtomic(data)
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Storage("failed to create credential directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return errors.Storage("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Storage("failed to write credentials", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Storage("failed to sync credentials", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Storage("failed to write credentials", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Storage("failed to set credential file mode", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Storage("failed to replace credential file", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Credentials{}, false, errors.Storage("", err)
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, errors.Storage("failed to read credentials", err)
	}
	if s.encryptor != nil {
		// a document sealed with another key is as good as absent
		if data, err = s.encryptor.Decrypt(data); err != nil {
			return Credentials{}, false, nil
		}
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		// unreadable document is treated like a torn pair
		return Credentials{}, false, nil
	}
	creds, ok := decodePair(doc.Token, doc.UserData)
	return creds, ok, nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Storage("failed to remove credentials", err)
	}
	return nil
}
