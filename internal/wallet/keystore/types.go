package keystore

import "context"

// Service provides keystore encryption and decryption functionality
type Service interface {
	// CreateKeystore encrypts a mnemonic and writes it to the keystore file
	CreateKeystore(ctx context.Context, mnemonic string, password string, address string) (*Keystore, error)

	// DecryptMnemonic decrypts mnemonic from keystore
	DecryptMnemonic(ctx context.Context, keystore *Keystore, password string) (string, error)

	// GetKeystore reads the keystore file
	GetKeystore(ctx context.Context) (*Keystore, error)

	// Exists checks if the keystore file exists
	Exists(ctx context.Context) (bool, error)
}

// Keystore is a keystore file loaded into memory
type Keystore struct {
	Path string
	JSON *KeystoreJSON
}

// KeystoreJSON represents the Ethereum keystore v3 JSON structure. The
// ciphertext holds a mnemonic instead of a private key; Address is the first
// account derived from it and is used to verify the password.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Address string `json:"address"`
	Version int    `json:"version"`
	ID      string `json:"id"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams defines scrypt KDF parameters
type ScryptParams struct {
	DKLen int // Derived key length (32 bytes)
	Salt  []byte
	N     int // CPU/memory cost parameter (262144)
	R     int // Block size parameter (8)
	P     int // Parallelization parameter (1)
}

// DefaultScryptParams returns default scrypt parameters for Ethereum keystore v3
func DefaultScryptParams() *ScryptParams {
	const (
		scryptDKLen = 32     // Derived key length (32 bytes)
		scryptN     = 262144 // CPU/memory cost parameter (2^18)
		scryptR     = 8      // Block size parameter
		scryptP     = 1      // Parallelization parameter
	)

	return &ScryptParams{
		DKLen: scryptDKLen,
		N:     scryptN,
		R:     scryptR,
		P:     scryptP,
	}
}

// LightScryptParams returns cheap parameters for development keystores and tests
func LightScryptParams() *ScryptParams {
	params := DefaultScryptParams()
	params.N = 4096
	params.P = 6
	return params
}
