// Package encryption protects database backups at rest.
package encryption

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Encryptor seals backup streams to a public key. Opening them again needs
// the passphrase-protected private key, unlocked once per session.
type Encryptor interface {
	// Setup generates the key pair. It fails when keys already exist.
	Setup(passphrase string) error

	// Encrypt writes the sealed form of r to w. No passphrase is needed.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. A wrong passphrase is an error.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether the key files are present.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}

// ageMagic starts every age-format file.
var ageMagic = []byte("age-encryption.org/v1\n")

// IsSealed reports whether the file at path is in age format.
func IsSealed(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	head, err := bufio.NewReader(f).Peek(len(ageMagic))
	if err != nil {
		// shorter than the header, so not sealed
		return false, nil
	}
	return bytes.Equal(head, ageMagic), nil
}
