package keystore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github/chapool/go-hwsigner/internal/util"
)

// ErrKeystoreExists is returned when creating over an existing keystore file.
var ErrKeystoreExists = errors.New("keystore already exists")

const (
	keystoreFileMode = 0o600
	keystoreDirMode  = 0o700
)

type service struct {
	path   string
	params *ScryptParams
}

// NewService creates a new KeystoreService storing the keystore at path
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(path string, params *ScryptParams) (Service, error) {
	if path == "" {
		return nil, errors.New("keystore path is required")
	}
	if params == nil {
		params = DefaultScryptParams()
	}

	return &service{
		path:   path,
		params: params,
	}, nil
}

// CreateKeystore encrypts a mnemonic and writes it to the keystore file
func (s *service) CreateKeystore(ctx context.Context, mnemonic string, password string, address string) (*Keystore, error) {
	log := util.LogFromContext(ctx)

	// Check if keystore already exists
	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if exists {
		return nil, ErrKeystoreExists
	}

	// Encrypt mnemonic
	keystoreJSON, err := s.encryptMnemonic(mnemonic, password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encrypt mnemonic")
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}
	keystoreJSON.Address = address

	keystoreData, err := json.MarshalIndent(keystoreJSON, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore JSON")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), keystoreDirMode); err != nil {
		return nil, errors.Wrap(err, "failed to create keystore directory")
	}
	if err := os.WriteFile(s.path, keystoreData, keystoreFileMode); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to write keystore")
		return nil, errors.Wrap(err, "failed to write keystore")
	}

	log.Info().Str("path", s.path).Str("id", keystoreJSON.ID).Msg("Keystore created")
	return &Keystore{Path: s.path, JSON: keystoreJSON}, nil
}

// DecryptMnemonic decrypts mnemonic from keystore
func (s *service) DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error) {
	log := util.LogFromContext(ctx)

	mnemonic, err := s.decryptMnemonic(keystore.JSON, password)
	if err != nil {
		log.Debug().Err(err).Str("path", keystore.Path).Msg("Failed to decrypt mnemonic")
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return mnemonic, nil
}

// GetKeystore reads the keystore file
func (s *service) GetKeystore(_ context.Context) (*Keystore, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keystore")
	}

	var keystoreJSON KeystoreJSON
	if err := json.Unmarshal(data, &keystoreJSON); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal keystore JSON")
	}

	return &Keystore{Path: s.path, JSON: &keystoreJSON}, nil
}

// Exists checks if the keystore file exists
func (s *service) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to stat keystore")
}
