package env

import "os"

const prefix = "STOREYARD_"

// Get reads an environment variable, preferring the prefixed form over the
// bare name. Returns fallback when neither is set.
func Get(key, fallback string) string {
	if val := os.Getenv(prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
