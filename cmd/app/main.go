package main

import (
	"github.com/gofiber/fiber/v2/log"
	"github.com/wichananm65/user-admin/internal/client"
	"github.com/wichananm65/user-admin/internal/config"
	"github.com/wichananm65/user-admin/internal/page"
	"github.com/wichananm65/user-admin/internal/server"
)

// main serves the user administration page, which talks to the users API
// at USERS_API_URL.
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	baseURL := cfg.UsersAPIURL
	if baseURL == "" {
		baseURL = cfg.DefaultUsersAPIURL()
		log.Warnf("USERS_API_URL is not set, using %s", baseURL)
	}

	api, err := client.New(baseURL, client.WithBearerToken(cfg.UsersAPIToken))
	if err != nil {
		log.Fatal(err)
	}

	app := server.NewApp("user-admin")
	page.NewHandler(page.New(api)).RegisterRoutes(app)

	log.Infof("starting user admin page on %s (users API %s)", cfg.AppAddr, api.BaseURL())
	if err := app.Listen(cfg.AppAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
