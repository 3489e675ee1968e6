package emulator

import (
	"crypto/ecdsa"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"github/chapool/go-hwsigner/internal/ledger/path"
)

// MnemonicEntropyBits is the entropy of generated mnemonics (24 words).
const MnemonicEntropyBits = 256

// ErrKeyringCleared is returned once the seed has been wiped.
var ErrKeyringCleared = errors.New("keyring: seed cleared")

// Keyring holds the emulated device's master seed and derives keys from it.
type Keyring struct {
	mu   sync.RWMutex
	seed []byte
}

// GenerateMnemonic creates a fresh BIP39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate mnemonic")
	}
	return mnemonic, nil
}

// NewKeyring validates mnemonic and derives the master seed from it.
func NewKeyring(mnemonic string, passphrase string) (*Keyring, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("keyring: invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, passphrase)

	return &Keyring{seed: seed}, nil
}

// ExtendedKey derives the BIP32 key at p.
func (k *Keyring) ExtendedKey(p path.Path) (*bip32.Key, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.seed == nil {
		return nil, ErrKeyringCleared
	}

	key, err := bip32.NewMasterKey(k.seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create master key")
	}

	for _, index := range p {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child key at index %d", index)
		}
	}
	return key, nil
}

// PrivateKey derives the signing key at p.
func (k *Keyring) PrivateKey(p path.Path) (*ecdsa.PrivateKey, error) {
	key, err := k.ExtendedKey(p)
	if err != nil {
		return nil, err
	}

	privateKey, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert to ECDSA private key")
	}
	return privateKey, nil
}

// Clear wipes the seed from memory.
func (k *Keyring) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for i := range k.seed {
		k.seed[i] = 0
	}
	k.seed = nil
}
