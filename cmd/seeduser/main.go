// cmd/seeduser/main.go — creates or updates a login account.
// Usage: go run ./cmd/seeduser -username admin -password secret -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"supplytrack/internal/config"
	"supplytrack/internal/infra"
	"supplytrack/internal/model"
	"supplytrack/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	username := flag.String("username", "admin", "login name")
	password := flag.String("password", "", "password (required)")
	name := flag.String("name", "Administrator", "display name")
	email := flag.String("email", "", "email address")
	role := flag.String("role", string(model.RoleAdmin), "viewer | editor | admin")
	flag.Parse()

	if *password == "" {
		log.Fatal().Msg("-password is required")
	}
	if !model.Role(*role).Valid() {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), service.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	ctx := context.Background()
	var u model.User
	err = db.WithContext(ctx).Where("username = ?", *username).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = model.User{Username: *username}
	case err != nil:
		log.Fatal().Err(err).Msg("lookup user")
	}
	u.Name = *name
	u.Email = *email
	u.PasswordHash = string(hash)
	u.Role = model.Role(*role)
	u.IsActive = true

	if err := db.WithContext(ctx).Save(&u).Error; err != nil {
		log.Fatal().Err(err).Msg("save user")
	}
	fmt.Printf("user %q saved with role %s\n", u.Username, u.Role)
}
