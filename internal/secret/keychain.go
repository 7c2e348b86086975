package secret

import (
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

const keychainService = "proposals"

// KeychainStore keeps store passwords in the macOS Keychain through the
// `security` CLI. On other platforms Get finds nothing and Set fails.
type KeychainStore struct{}

// NewKeychainStore creates a new KeychainStore.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	k.Delete(key)

	cmd := exec.Command("security", "add-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", string(value),
		"-U", // update if exists
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("keychain set: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

func (k *KeychainStore) Get(key string) ([]byte, error) {
	cmd := exec.Command("security", "find-generic-password",
		"-a", key,
		"-s", keychainService,
		"-w", // output only the password
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() != 44 {
			log.Printf("[SECRET] keychain lookup %s: exit %d", key, exitErr.ExitCode())
		}
		// 44 is "item not found"; a missing security binary lands here too
		return nil, nil
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	cmd := exec.Command("security", "delete-generic-password",
		"-a", key,
		"-s", keychainService,
	)
	cmd.Run() // item may not exist
	return nil
}
