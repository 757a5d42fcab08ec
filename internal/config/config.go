// Package config stores connection profiles in the OS keyring and resolves
// the settings a client runs with from flags, environment and profile.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName       = "fashion-cli"
	defaultProfileKey = "default"
	DefaultProfile    = "default"
	profilePrefix     = "profile:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"

	envKeyringBackend  = "FASHION_KEYRING_BACKEND"
	envKeyringPassword = "FASHION_KEYRING_PASSWORD"
	envCredentialsDir  = "FASHION_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// openKeyring is replaced in tests with an in-memory keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Profile holds the connection settings of one API gateway.
type Profile struct {
	BaseURL              string `json:"base_url" validate:"required,url"`
	APIKey               string `json:"api_key" validate:"required"`
	APIVersion           string `json:"api_version,omitempty"`
	DataCollectionOptOut bool   `json:"data_collection_opt_out,omitempty"`
}

// ErrNotConfigured is returned when no profile is stored and the
// environment does not supply the connection settings either.
var ErrNotConfigured = errors.New("fashion API not configured - run 'fashion auth login' first")

// ErrProfileNotFound is returned for an unknown profile name.
var ErrProfileNotFound = errors.New("profile not found")

func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	configureFileBackend(&cfg)

	// Headless Linux has no secret service; go straight to the encrypted file.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func configureFileBackend(cfg *keyring.Config) {
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
}

// Dir returns the directory holding the CLI's local files.
func Dir() string {
	if base := strings.TrimSpace(os.Getenv(envCredentialsDir)); base != "" {
		return base
	}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func keyringFileDir() string {
	return filepath.Join(Dir(), "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using the file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func profileKey(name string) string {
	if name == "" || name == DefaultProfile {
		return defaultProfileKey
	}
	return profilePrefix + name
}

func open() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func loadProfileIndex(ring keyring.Keyring) ([]string, error) {
	item, err := ring.Get(profileIndexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get profile index: %w", err)
	}
	var profiles []string
	if err := json.Unmarshal(item.Data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile index: %w", err)
	}
	return profiles, nil
}

func saveProfileIndex(ring keyring.Keyring, profiles []string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profile index: %w", err)
	}
	return ring.Set(keyring.Item{Key: profileIndexKey, Data: data})
}

func normalizeProfiles(profiles []string) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := []string{}
	for _, p := range profiles {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// SaveProfile validates and stores a profile, adds it to the profile index
// and makes it current.
func SaveProfile(name string, profile Profile) error {
	if name == "" {
		name = DefaultProfile
	}
	if err := ValidateProfile(profile); err != nil {
		return err
	}

	ring, err := open()
	if err != nil {
		return err
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := ring.Set(keyring.Item{
		Key:         profileKey(name),
		Data:        data,
		Label:       serviceName + " " + name,
		Description: "Cognitive Fashion API profile",
	}); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if err := saveProfileIndex(ring, normalizeProfiles(append(profiles, name))); err != nil {
		return err
	}

	return SetCurrentProfile(name)
}

// LoadProfile returns a stored profile. A missing default profile is
// ErrNotConfigured; any other missing profile is ErrProfileNotFound.
func LoadProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}

	ring, err := open()
	if err != nil {
		return Profile{}, err
	}

	item, err := ring.Get(profileKey(name))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			if name == DefaultProfile {
				return Profile{}, ErrNotConfigured
			}
			return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(item.Data, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return profile, nil
}

// DeleteProfile removes a stored profile. When it was current, the first
// remaining profile becomes current.
func DeleteProfile(name string) error {
	if name == "" {
		name = DefaultProfile
	}

	ring, err := open()
	if err != nil {
		return err
	}

	if err := ring.Remove(profileKey(name)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(profiles, func(p string) bool { return p == name })
	if err := saveProfileIndex(ring, remaining); err != nil {
		return err
	}

	current, err := CurrentProfile()
	if err == nil && current == name {
		next := DefaultProfile
		if len(remaining) > 0 {
			next = remaining[0]
		}
		_ = SetCurrentProfile(next)
	}
	return nil
}

// ListProfiles returns the stored profile names in creation order.
func ListProfiles() ([]string, error) {
	ring, err := open()
	if err != nil {
		return nil, err
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		if _, err := ring.Get(defaultProfileKey); err == nil {
			return []string{DefaultProfile}, nil
		}
	}
	return profiles, nil
}

// CurrentProfile returns the active profile name.
func CurrentProfile() (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(currentProfileKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return DefaultProfile, nil
		}
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

// SetCurrentProfile sets the active profile name.
func SetCurrentProfile(name string) error {
	if name == "" {
		name = DefaultProfile
	}

	ring, err := open()
	if err != nil {
		return err
	}
	return ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte(name)})
}
