package opennebula

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// instanceNamespace scopes the name-based UUIDs derived from context digests.
var instanceNamespace = uuid.MustParse("6f0b8e0e-8a2d-5c1e-9f43-0b6e6e5a1c70")

// OpenNebula does not hand out an instance id, so one is derived from the
// context content. Any change to the context yields a new identity.

// Identity returns the hex SHA-256 digest of everything read from r.
func Identity(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IdentityFile returns the digest of the file at path.
func IdentityFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	id, err := Identity(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return id, nil
}

// InstanceUUID maps an identity digest onto a stable UUID for consumers
// that want one.
func InstanceUUID(id string) uuid.UUID {
	return uuid.NewSHA1(instanceNamespace, []byte(id))
}
