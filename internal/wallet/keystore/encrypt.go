package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 3
	cipherName      = "aes-128-ctr"
	kdfName         = "scrypt"
)

// encryptMnemonic encrypts a mnemonic using Ethereum keystore v3 format
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func (s *service) encryptMnemonic(mnemonic string, password string) (*KeystoreJSON, error) {
	// Generate random salt and IV
	//nolint:mnd // 32 is the standard salt size for scrypt
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	//nolint:mnd // 16 is the standard IV size for AES-128-CTR
	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	// Derive encryption key using scrypt
	params := *s.params
	params.Salt = salt

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	// Encrypt mnemonic using AES-128-CTR with the first half of the key
	ciphertext, err := aes128CTR(derivedKey[:16], iv, []byte(mnemonic))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	// MAC is Keccak-256(derivedKey[16:32] + ciphertext)
	mac := calculateMAC(derivedKey[16:32], ciphertext)

	keystoreJSON := &KeystoreJSON{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
	}

	keystoreJSON.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	keystoreJSON.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	keystoreJSON.Crypto.Cipher = cipherName
	keystoreJSON.Crypto.KDF = kdfName
	keystoreJSON.Crypto.KDFParams.DKLen = params.DKLen
	keystoreJSON.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	keystoreJSON.Crypto.KDFParams.N = params.N
	keystoreJSON.Crypto.KDFParams.R = params.R
	keystoreJSON.Crypto.KDFParams.P = params.P
	keystoreJSON.Crypto.MAC = hex.EncodeToString(mac)

	return keystoreJSON, nil
}

// aes128CTR applies AES-128-CTR, which encrypts and decrypts alike
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func aes128CTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	out := make([]byte, len(in))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out, in)

	return out, nil
}

// calculateMAC calculates the keystore v3 MAC: Keccak-256(key + ciphertext)
func calculateMAC(key []byte, ciphertext []byte) []byte {
	return crypto.Keccak256(key, ciphertext)
}
