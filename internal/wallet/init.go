package wallet

import (
	"context"
	"fmt"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-hwsigner/internal/ledger/emulator"
	"github/chapool/go-hwsigner/internal/ledger/path"
	"github/chapool/go-hwsigner/internal/wallet/keystore"
	"golang.org/x/term"
)

const (
	// VerificationAddressIndex is the address index used for password verification
	VerificationAddressIndex = 0

	minPasswordLength = 8
)

// ErrPasswordMismatch is returned when the keystore decrypts to a mnemonic
// whose verification address differs from the stored one.
var ErrPasswordMismatch = errors.New("password verification failed: derived address does not match stored verification address")

// PasswordPrompt reads a password, typically from the terminal.
type PasswordPrompt func(prompt string) (string, error)

// StaticPassword returns a PasswordPrompt answering every prompt with password.
func StaticPassword(password string) PasswordPrompt {
	return func(string) (string, error) {
		return password, nil
	}
}

// InitializeKeystore creates the emulator keystore. A new 24 word mnemonic is
// generated when mnemonic is empty. The address at index 0 is stored in the
// keystore so later unlocks can verify the password.
func InitializeKeystore(ctx context.Context, keystoreService keystore.Service, mnemonic string, prompt PasswordPrompt) (*emulator.Keyring, error) {
	log := log.With().Str("component", "wallet_init").Logger()

	if mnemonic == "" {
		log.Info().Msg("Generating new mnemonic...")

		var err error
		mnemonic, err = emulator.GenerateMnemonic()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate mnemonic")
		}
	}

	keyring, err := emulator.NewKeyring(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize keyring")
	}

	password, err := prompt("Enter password for keystore (min 8 characters): ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password")
	}

	if len(password) < minPasswordLength {
		return nil, errors.New("password must be at least 8 characters")
	}

	// Confirm password
	passwordConfirm, err := prompt("Confirm password: ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password confirmation")
	}

	if password != passwordConfirm {
		return nil, errors.New("passwords do not match")
	}

	verificationAddress, err := deriveVerificationAddress(keyring)
	if err != nil {
		return nil, err
	}

	if _, err := keystoreService.CreateKeystore(ctx, mnemonic, password, verificationAddress.Hex()); err != nil {
		return nil, errors.Wrap(err, "failed to create keystore")
	}

	log.Info().Str("verification_address", verificationAddress.Hex()).Msg("Keystore created successfully")
	return keyring, nil
}

// UnlockKeystore decrypts the emulator keystore and verifies the password by
// comparing the derived verification address with the stored one.
func UnlockKeystore(ctx context.Context, keystoreService keystore.Service, prompt PasswordPrompt) (*emulator.Keyring, error) {
	log := log.With().Str("component", "wallet_init").Logger()

	exists, err := keystoreService.Exists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keystore existence")
	}
	if !exists {
		return nil, errors.New("keystore not found, run `app emulator init-keystore` first")
	}

	log.Info().Msg("Keystore found. Please enter password to unlock...")

	password, err := prompt("Enter keystore password: ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read password")
	}

	//nolint:varnamelen // ks is a common abbreviation for keystore
	ks, err := keystoreService.GetKeystore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get keystore")
	}

	mnemonic, err := keystoreService.DecryptMnemonic(ctx, ks, password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt keystore (invalid password?)")
	}

	keyring, err := emulator.NewKeyring(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize keyring")
	}

	if ks.JSON.Address == "" {
		log.Warn().Msg("No verification address stored, skipping password verification")
		return keyring, nil
	}

	derived, err := deriveVerificationAddress(keyring)
	if err != nil {
		keyring.Clear()
		return nil, err
	}

	if derived != common.HexToAddress(ks.JSON.Address) {
		log.Warn().
			Str("derived", derived.Hex()).
			Str("stored", ks.JSON.Address).
			Msg("Password verification failed: addresses do not match")
		keyring.Clear()
		return nil, ErrPasswordMismatch
	}

	log.Info().Msg("Password verification successful")
	return keyring, nil
}

func deriveVerificationAddress(keyring *emulator.Keyring) (common.Address, error) {
	p, err := path.Build(0, VerificationAddressIndex)
	if err != nil {
		return common.Address{}, err
	}

	key, err := keyring.PrivateKey(p)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to derive verification address")
	}

	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// PromptPassword prompts for password input (hides input)
//
//nolint:forbidigo // Password input requires direct terminal I/O
func PromptPassword(prompt string) (string, error) {
	//nolint:forbidigo // Password input requires direct terminal I/O
	fmt.Print(prompt)

	// Read password from terminal (hides input)
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password from terminal")
	}

	//nolint:forbidigo // Password input requires direct terminal I/O
	fmt.Println() // New line after password input

	return string(passwordBytes), nil
}
