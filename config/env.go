// Cat-Corner/config/env.go
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads .env files into the process environment. Values already
// present in the environment win, and .env.local takes precedence over .env.
// Missing files are not an error.
func LoadDotenv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}
