package keystore

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// ErrInvalidPassword is returned when the keystore MAC does not match.
var ErrInvalidPassword = errors.New("invalid password: MAC mismatch")

// decryptMnemonic decrypts a mnemonic from Ethereum keystore v3 format
func (s *service) decryptMnemonic(keystoreJSON *KeystoreJSON, password string) (string, error) {
	if keystoreJSON.Version != keystoreVersion {
		return "", errors.Errorf("unsupported keystore version %d", keystoreJSON.Version)
	}
	if keystoreJSON.Crypto.Cipher != cipherName || keystoreJSON.Crypto.KDF != kdfName {
		return "", errors.Errorf("unsupported cipher %q with kdf %q", keystoreJSON.Crypto.Cipher, keystoreJSON.Crypto.KDF)
	}

	// Decode hex strings
	salt, err := hex.DecodeString(keystoreJSON.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}

	//nolint:varnamelen // iv is a common abbreviation for initialization vector
	iv, err := hex.DecodeString(keystoreJSON.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}

	ciphertext, err := hex.DecodeString(keystoreJSON.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}

	expectedMAC, err := hex.DecodeString(keystoreJSON.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	// Derive encryption key using scrypt
	derivedKey, err := scrypt.Key(
		[]byte(password),
		salt,
		keystoreJSON.Crypto.KDFParams.N,
		keystoreJSON.Crypto.KDFParams.R,
		keystoreJSON.Crypto.KDFParams.P,
		keystoreJSON.Crypto.KDFParams.DKLen,
	)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}
	//nolint:mnd // the MAC key is the second half of a 32 byte derived key
	if len(derivedKey) < 32 {
		return "", errors.Errorf("derived key of %d bytes is too short", len(derivedKey))
	}

	// Verify MAC
	mac := calculateMAC(derivedKey[16:32], ciphertext)
	if subtle.ConstantTimeCompare(mac, expectedMAC) != 1 {
		return "", ErrInvalidPassword
	}

	// Decrypt mnemonic using AES-128-CTR
	plaintext, err := aes128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return string(plaintext), nil
}
