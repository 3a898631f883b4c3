/*
Package passtable is a table of named passwords, each encrypted under a passphrase of its own, that can be persisted as a single binary file.

# How it works:

Add encrypts a password with a Key and Nonce derived from the given passphrase (see package passcrypt), and stores the result under a unique name.
Password derives the same Key and Nonce again and decrypts; a passphrase other than the one used for Add fails authentication and returns ErrIncorrectPassphrase.
Metadata, the description and affiliated apps of an entry, is not encrypted so that it can be listed without any passphrase.

Save and Load round-trip the whole Table through a length-prefixed binary encoding, and SaveFile and LoadFile do the same with a file on disk.

# General guidelines:
  - A Table isn't safe for concurrent use. Wrap it in a Shared when more than one goroutine needs it.
  - The Table never persists itself, so call SaveFile after every change that should survive.
  - SaveFile refuses to overwrite a file saved after the Table was loaded, returning ErrStaleStore. This only guards against a stale Table in the same process or a careful second process; it isn't a lock.
*/
package passtable
