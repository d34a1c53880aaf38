package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration for both binaries.
type Config struct {
	APIAddr       string
	AppAddr       string
	DatabaseURL   string
	JWTSecret     string
	UsersAPIURL   string
	UsersAPIToken string
}

// Load reads .env when present, then the environment. UsersAPIURL stays
// empty when USERS_API_URL is unset; see DefaultUsersAPIURL.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIAddr:       getenv("USER_ADMIN_API_ADDR", ":8080"),
		AppAddr:       getenv("USER_ADMIN_APP_ADDR", ":3000"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		UsersAPIURL:   strings.TrimSpace(os.Getenv("USERS_API_URL")),
		UsersAPIToken: strings.TrimSpace(os.Getenv("USERS_API_TOKEN")),
	}
}

// DefaultUsersAPIURL points at the users API served on APIAddr locally.
func (c Config) DefaultUsersAPIURL() string {
	addr := c.APIAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/api/v1/users"
}

// Validate checks values that would otherwise fail later at startup. Each
// binary reads its own environment, so settings of the other one are not
// cross-checked.
func (c Config) Validate() error {
	if c.UsersAPIURL != "" {
		u, err := url.Parse(c.UsersAPIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("USERS_API_URL must be an absolute URL, got %q", c.UsersAPIURL)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
