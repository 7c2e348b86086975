package secret

import (
	"fmt"

	"proposals/internal/config"
)

// SecretStore holds the shared store password outside the config file.
type SecretStore interface {
	Set(key string, value []byte) error

	// Get returns an empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	Delete(key string) error
}

// StoreKey names the secret entry for a shared proposal store.
func StoreKey(sc config.StoreConfig) string {
	if sc.URI != "" {
		return fmt.Sprintf("store:%s:%s", sc.Driver, sc.URI)
	}
	return fmt.Sprintf("store:%s:%s@%s:%d/%s", sc.Driver, sc.Username, sc.Host, sc.Port, sc.Database)
}

// ResolvePassword fills sc.Password from s when the environment did not
// already provide one. SQLite needs no password.
func ResolvePassword(s SecretStore, sc config.StoreConfig) (config.StoreConfig, error) {
	if sc.Password != "" || sc.Driver == "" || sc.Driver == config.DriverSQLite || s == nil {
		return sc, nil
	}
	pw, err := s.Get(StoreKey(sc))
	if err != nil {
		return sc, fmt.Errorf("read store password: %w", err)
	}
	sc.Password = string(pw)
	return sc, nil
}
