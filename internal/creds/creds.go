// ABOUTME: Credential store backed by a JSON file of username/bcrypt-hash pairs
// ABOUTME: Verifies login attempts; the file is written by `sqlpeek init-auth`

package creds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// ErrConfigMissing is returned when the credential file does not exist.
// Callers should tell the operator to run `sqlpeek init-auth`.
var ErrConfigMissing = errors.New("credential file missing")

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// dummyHash is compared against when the username is unknown so that login
// timing does not reveal which usernames exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Credential is one authorized username/password-hash pair.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"` // bcrypt hash
}

// credentialFile is the on-disk shape produced by `sqlpeek init-auth`.
type credentialFile struct {
	Users []Credential `json:"users"`
}

// Store verifies login attempts against a credential file.
//
// The file is re-read on every Verify call. Logins are infrequent and the
// file is tiny, so this keeps the store stateless and picks up edits
// without a restart.
type Store struct {
	path string
}

// New returns a Store reading credentials from the given path.
func New(path string) *Store {
	return &Store{path: path}
}

// Verify checks a submitted username/password pair and returns the
// authenticated username on success. The first credential matching the
// username wins; duplicate usernames are not rejected (single-admin use).
func (s *Store) Verify(username, password string) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrConfigMissing
		}
		return "", fmt.Errorf("reading credential file: %w", err)
	}

	var f credentialFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing credential file: %w", err)
	}

	var match *Credential
	for i := range f.Users {
		if f.Users[i].Username == username {
			match = &f.Users[i]
			break
		}
	}

	if match == nil {
		// Burn a bcrypt compare anyway to keep timing flat.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(match.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return match.Username, nil
}

// WriteFile writes a credential file containing the given users, creating
// or replacing the file at path. Used by the init-auth provisioning command.
func WriteFile(path string, users []Credential) error {
	data, err := json.MarshalIndent(credentialFile{Users: users}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

// HashPassword returns the bcrypt hash for a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
