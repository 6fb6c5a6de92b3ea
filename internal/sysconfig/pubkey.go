package sysconfig

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// AddPubKey registers an SSH public key in authorized_keys format.
// A comment overrides the one embedded in the key line. Keys that are
// already registered are ignored.
func AddPubKey(sc *SystemConfig, value, comment string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("public key: empty %w", ErrInvalidValue)
	}

	key, embedded, _, _, err := ssh.ParseAuthorizedKey([]byte(value))
	if err != nil {
		return fmt.Errorf("public key: %w: %v", ErrInvalidValue, err)
	}
	if comment == "" {
		comment = embedded
	}

	fp := ssh.FingerprintSHA256(key)
	for _, pk := range sc.PublicKeys {
		if pk.Fingerprint == fp {
			return nil
		}
	}

	sc.PublicKeys = append(sc.PublicKeys, PublicKey{
		Value:       value,
		Comment:     comment,
		Fingerprint: fp,
	})
	return nil
}
