package passcrypt

import (
	"errors"
	"fmt"

	"github.com/tink-crypto/tink-go/v2/daead/subtle"
)

var (
	// ErrAuthentication is returned by Open and Decrypt when the payload can't be verified.
	// A wrong passphrase and a tampered payload are indistinguishable.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrCipher wraps faults creating or running the cipher itself.
	ErrCipher = errors.New("cipher failure")
)

func newSIV(key Key, nonce Nonce) (*subtle.AESSIV, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrCipher, KeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", ErrCipher, NonceSize, len(nonce))
	}
	siv, err := subtle.NewAESSIV(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return siv, nil
}

// Seal encrypts the payload with the given Key, binding the Nonce as associated data.
// The output is the 16 byte synthetic IV, which is also the authentication tag, followed by the ciphertext.
func Seal(key Key, nonce Nonce, data Plaintext) (Encrypted, error) {
	siv, err := newSIV(key, nonce)
	if err != nil {
		return nil, err
	}
	out, err := siv.EncryptDeterministically(data, nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return out, nil
}

// Open verifies and decrypts a payload created by Seal with the same Key and Nonce.
func Open(key Key, nonce Nonce, data Encrypted) (Plaintext, error) {
	siv, err := newSIV(key, nonce)
	if err != nil {
		return nil, err
	}
	out, err := siv.DecryptDeterministically(data, nonce)
	if err != nil {
		return nil, ErrAuthentication
	}
	return out, nil
}

// Encrypt derives the Key and Nonce from the passphrase with HashDeriver and seals the payload.
func Encrypt(data Plaintext, pass Passphrase) (Encrypted, error) {
	return Seal(DeriveKey(pass), DeriveNonce(pass), data)
}

// Decrypt derives the Key and Nonce from the passphrase with HashDeriver and opens the payload.
// ErrAuthentication is the only indication that the passphrase is wrong.
func Decrypt(data Encrypted, pass Passphrase) (Plaintext, error) {
	return Open(DeriveKey(pass), DeriveNonce(pass), data)
}

// EncryptWith seals the payload with a Key and Nonce from the Deriver, creating a new Salt.
// The Salt must be stored with the payload to decrypt it later.
func EncryptWith(d Deriver, data Plaintext, pass Passphrase) (Encrypted, Salt, error) {
	salt, err := d.NewSalt()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create salt: %w", err)
	}
	key, nonce, err := d.Derive(pass, salt)
	if err != nil {
		return nil, nil, err
	}
	out, err := Seal(key, nonce, data)
	if err != nil {
		return nil, nil, err
	}
	return out, salt, nil
}

// DecryptWith opens a payload created by EncryptWith.
func DecryptWith(d Deriver, data Encrypted, salt Salt, pass Passphrase) (Plaintext, error) {
	key, nonce, err := d.Derive(pass, salt)
	if err != nil {
		return nil, err
	}
	return Open(key, nonce, data)
}
