/*
Package passcrypt derives keys from passphrases and encrypts small payloads, such as stored passwords, with them.
This uses AES-SIV (RFC 5297) to encrypt and authenticate the provided data.

# How it works:

By default both the Key and the Nonce are derived from the passphrase alone, with no stored salt.
The Key is the SHA-512 digest of the passphrase followed by the tag "password", and the Nonce is the first 12 bytes of the SHA-512 digest of the passphrase followed by the tag "nonce".
The same passphrase always arrives at the same Key and Nonce, so nothing but the encrypted payload needs to be persisted.

The Nonce is bound into the synthetic IV as associated data, and the IV doubles as the authentication tag.
Decrypting with the wrong passphrase fails tag verification, and that failure is the only signal that the passphrase was wrong.

# General guidelines:
  - Reusing a passphrase across payloads reuses the Key and Nonce. AES-SIV is misuse resistant, so this only reveals whether two payloads are equal.
  - The default derivation is not iterated and is only as strong as the passphrase. Use a ScryptDeriver or Argon2Deriver when brute force resistance matters; they store a random Salt with their tuning parameters.
  - A Salt produced by NewSalt is self-describing, so any Deriver of the same Scheme can Derive from it.
*/
package passcrypt
