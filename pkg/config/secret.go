package config

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

const serverSecretLen = 32

// loadOrCreateServerSecret reads the server secret from secretFile if given,
// otherwise from <dataDir>/secret, generating and persisting a fresh random
// one on first run (§3: the token HMAC key, never transmitted to clients).
func loadOrCreateServerSecret(secretFile, dataDir string) ([]byte, error) {
	path := secretFile
	if path == "" {
		path = filepath.Join(dataDir, "secret")
	}

	if data, err := os.ReadFile(path); err == nil {
		if len(data) >= 16 {
			return data, nil
		}
		return nil, errors.Errorf("secret file %s is too short", path)
	} else if !os.IsNotExist(err) {
		return nil, errors.WithStack(err)
	}

	secret := make([]byte, serverSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, errors.WithStack(err)
	}

	return secret, nil
}

func numCPU() int {
	return runtime.NumCPU()
}
