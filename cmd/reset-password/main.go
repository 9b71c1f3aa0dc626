package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go-pos-api/internal/config"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/database"
	"go-pos-api/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	userCode := flag.String("user", "admin", "user id whose password is reset")
	password := flag.String("password", "", "new password (at least 6 characters)")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Must(logger.New(!cfg.IsProduction()))
	defer log.Sync() //nolint:errcheck

	if err := resetPassword(cfg, log, *userCode, *password); err != nil {
		log.Fatal("password reset failed", zap.String("user", *userCode), zap.Error(err))
	}
	log.Info("password reset, existing sessions signed out", zap.String("user", *userCode))
}

func resetPassword(cfg *config.Config, log *zap.Logger, userCode, password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repository.NewUserRepo(db)
	user, err := users.FindByUserCode(ctx, userCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s not found", userCode)
		}
		return err
	}

	hashed := model.User{}
	if err := hashed.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return users.UpdatePassword(ctx, user.ID, hashed.Password)
}
