package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	PlayerID     string
	IdentityFile string
	Output       string
	Verbose      bool
}

// Identity is what the CLI remembers between invocations after creating or
// joining a room
type Identity struct {
	PlayerID string `json:"player_id"`
	RoomCode string `json:"room_code,omitempty"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("SANDBAG_SERVER", "http://localhost:8080"),
		PlayerID:     os.Getenv("SANDBAG_PLAYER"),
		IdentityFile: getEnvOrDefault("SANDBAG_IDENTITY_FILE", defaultIdentityFile()),
		Output:       "text",
		Verbose:      false,
	}
}

// LoadIdentity loads the player ID from the identity file if not already set
func (c *Config) LoadIdentity() error {
	if c.PlayerID != "" {
		return nil
	}

	data, err := os.ReadFile(c.IdentityFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	c.PlayerID = id.PlayerID
	return nil
}

// SaveIdentity writes the identity file and switches to the saved player
func (c *Config) SaveIdentity(id Identity) error {
	c.PlayerID = id.PlayerID

	if err := os.MkdirAll(filepath.Dir(c.IdentityFile), 0700); err != nil {
		return err
	}

	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(c.IdentityFile, data, 0600)
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sandbag/identity.json"
	}
	return filepath.Join(home, ".sandbag", "identity.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
