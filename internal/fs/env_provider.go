package fs

import (
	"os"
)

// EnvProvider provides environment variable access.
type EnvProvider interface {
	// Get returns the value of the environment variable named by the key.
	Get(key string) string
	// Lookup returns the value of the environment variable and whether it was set at all.
	Lookup(key string) (string, bool)
}

// OSEnvProvider reads from the actual environment using os.Getenv.
type OSEnvProvider struct{}

// NewEnvProvider creates a new OSEnvProvider.
func NewEnvProvider() *OSEnvProvider {
	return &OSEnvProvider{}
}

// Get returns the value of the environment variable named by the key.
func (e *OSEnvProvider) Get(key string) string {
	return os.Getenv(key)
}

// Lookup returns the value of the environment variable named by the key.
func (e *OSEnvProvider) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnvProvider serves a fixed set of variables. It never consults the process environment.
type MapEnvProvider map[string]string

func (m MapEnvProvider) Get(key string) string {
	return m[key]
}

func (m MapEnvProvider) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
