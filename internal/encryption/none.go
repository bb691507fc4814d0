package encryption

import (
	"fmt"
	"io"
)

// NoneEncryptor leaves backups in plaintext. It is selected with encryption.type = "none".
type NoneEncryptor struct{}

var _ Encryptor = (*NoneEncryptor)(nil)

func NewNoneEncryptor() *NoneEncryptor {
	return &NoneEncryptor{}
}

func (e *NoneEncryptor) Setup(string) error {
	return fmt.Errorf("encryption is disabled (encryption.type = \"none\")")
}

func (e *NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *NoneEncryptor) Unlock(string) (DecryptionContext, error) {
	return plainContext{}, nil
}

func (e *NoneEncryptor) IsConfigured() bool {
	return true
}

type plainContext struct{}

func (plainContext) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
