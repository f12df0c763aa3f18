// Package ageutil wraps filippo.io/age for content sources stored encrypted
// next to the configuration file.
package ageutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
)

// Ext is the suffix that marks a content source as age-encrypted.
const Ext = ".age"

// Key holds the credential used to decrypt age sources.
// Passphrase takes precedence over IdentityFile.
type Key struct {
	IdentityFile string // age identity file (secret key)
	Passphrase   string // scrypt passphrase
}

// IsEncrypted reports whether path names an age-encrypted source.
func IsEncrypted(path string) bool {
	return strings.HasSuffix(path, Ext)
}

// Decrypt returns a reader yielding the plaintext of the age stream src.
// The header is checked eagerly so a wrong key fails here rather than on
// the first read.
func (k *Key) Decrypt(src io.Reader) (io.Reader, error) {
	identities, err := k.identities()
	if err != nil {
		return nil, err
	}
	r, err := age.Decrypt(src, identities...)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	return r, nil
}

// Encrypt returns a writer that encrypts everything written to it into dst.
// The caller must Close the writer to flush the final chunk.
func (k *Key) Encrypt(dst io.Writer) (io.WriteCloser, error) {
	recipients, err := k.recipients()
	if err != nil {
		return nil, err
	}
	w, err := age.Encrypt(dst, recipients...)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	return w, nil
}

func (k *Key) recipients() ([]age.Recipient, error) {
	if k.Passphrase != "" {
		r, err := age.NewScryptRecipient(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt recipient: %w", err)
		}
		return []age.Recipient{r}, nil
	}

	identities, err := k.parseIdentityFile()
	if err != nil {
		return nil, err
	}
	var recipients []age.Recipient
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			recipients = append(recipients, x.Recipient())
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("no X25519 identities found in %s", k.IdentityFile)
	}
	return recipients, nil
}

func (k *Key) identities() ([]age.Identity, error) {
	if k.Passphrase != "" {
		id, err := age.NewScryptIdentity(k.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("create scrypt identity: %w", err)
		}
		return []age.Identity{id}, nil
	}
	return k.parseIdentityFile()
}

func (k *Key) parseIdentityFile() ([]age.Identity, error) {
	if k.IdentityFile == "" {
		return nil, fmt.Errorf("no age identity configured; set age.identity in localenv.yaml or LOCALENV_AGE_IDENTITY")
	}
	f, err := os.Open(k.IdentityFile)
	if err != nil {
		return nil, fmt.Errorf("open identity file: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse identities: %w", err)
	}
	return identities, nil
}
