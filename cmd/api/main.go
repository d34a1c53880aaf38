package main

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/wichananm65/user-admin/internal/config"
	"github.com/wichananm65/user-admin/internal/server"
	"github.com/wichananm65/user-admin/internal/user"
)

// main wires the users REST API and starts it.
func main() {
	cfg := config.Load()
	app := server.NewApp("users-api")

	var repo user.Repository
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, users are kept in memory")
		repo = user.NewInMemoryRepository(nil)
	} else {
		db := mustOpenDB(cfg.DatabaseURL)
		defer db.Close()

		pg := user.NewPostgresRepository(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			panic(err)
		}
		repo = pg
	}

	var middleware []fiber.Handler
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, users API is unauthenticated")
	} else {
		middleware = append(middleware, server.JWT(cfg.JWTSecret))
	}

	user.NewHandler(user.NewService(repo)).RegisterRoutes(app, middleware...)

	log.Infof("starting users API on %s", cfg.APIAddr)
	if err := app.Listen(cfg.APIAddr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func mustOpenDB(dbURL string) *sql.DB {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}
