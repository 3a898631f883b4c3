package passcrypt

import (
	"crypto/sha512"
	"errors"
	"fmt"
)

const (
	// KeySize is the AES-SIV key length, two AES-256 keys.
	KeySize = 64
	// NonceSize is the length of a derived Nonce.
	NonceSize = 12

	keyTag   = "password"
	nonceTag = "nonce"
)

var (
	ErrUnknownScheme = errors.New("unknown key derivation scheme")
	ErrInvalidSalt   = errors.New("unable to use salt")
)

// Key is an AES-SIV key that can be used to encrypt or decrypt an encrypted payload.
type Key []byte

// Nonce is bound to a payload as associated data when it's encrypted.
type Nonce []byte

// Salt is stored alongside an encrypted payload by salted schemes.
type Salt []byte

// Passphrase is a human-readable string used to derive a Key and Nonce.
type Passphrase []byte

// Encrypted is an encrypted payload.
type Encrypted []byte

// Plaintext is an unencrypted payload.
type Plaintext []byte

// Scheme identifies how a Key and Nonce were derived, and is persisted with each payload.
type Scheme uint8

const (
	SchemeHash Scheme = iota
	SchemeScrypt
	SchemeArgon2id
)

func (s Scheme) String() string {
	switch s {
	case SchemeHash:
		return "hash"
	case SchemeScrypt:
		return "scrypt"
	case SchemeArgon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme returns the Scheme with the given name, as returned by Scheme.String.
func ParseScheme(name string) (Scheme, error) {
	for _, s := range []Scheme{SchemeHash, SchemeScrypt, SchemeArgon2id} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownScheme, name)
}

// Deriver produces the Key and Nonce for a payload.
type Deriver interface {
	// Scheme is persisted with the payload to select a Deriver when decrypting.
	Scheme() Scheme
	// NewSalt creates the Salt for a new payload. Unsalted schemes return nil.
	NewSalt() (Salt, error)
	// Derive recovers the Key and Nonce for the passphrase and a Salt created by NewSalt.
	Derive(pass Passphrase, salt Salt) (Key, Nonce, error)
}

// DeriverFor returns a Deriver with default settings for the given Scheme.
func DeriverFor(scheme Scheme) (Deriver, error) {
	switch scheme {
	case SchemeHash:
		return HashDeriver{}, nil
	case SchemeScrypt:
		return NewScryptDeriver()
	case SchemeArgon2id:
		return NewArgon2Deriver()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
}

// DeriveKey hashes the passphrase into a Key. The same passphrase always produces the same Key.
func DeriveKey(pass Passphrase) Key {
	return Key(digest(pass, keyTag)[:KeySize])
}

// DeriveNonce hashes the passphrase into a Nonce. The same passphrase always produces the same Nonce.
func DeriveNonce(pass Passphrase) Nonce {
	return Nonce(digest(pass, nonceTag)[:NonceSize])
}

func digest(pass Passphrase, tag string) []byte {
	h := sha512.New()
	h.Write(pass)
	h.Write([]byte(tag))
	return h.Sum(nil)
}

var _ Deriver = HashDeriver{}

// HashDeriver derives the Key and Nonce from the passphrase alone, with DeriveKey and DeriveNonce.
type HashDeriver struct{}

func (HashDeriver) Scheme() Scheme {
	return SchemeHash
}

func (HashDeriver) NewSalt() (Salt, error) {
	return nil, nil
}

// Derive ignores the salt.
func (HashDeriver) Derive(pass Passphrase, _ Salt) (Key, Nonce, error) {
	return DeriveKey(pass), DeriveNonce(pass), nil
}

// splitMaterial divides KeySize+NonceSize bytes of derived material into a Key and Nonce.
func splitMaterial(material []byte) (Key, Nonce) {
	return Key(material[:KeySize]), Nonce(material[KeySize : KeySize+NonceSize])
}
