package main

import (
	"log/slog"

	"contactbook/internal/config"
	"contactbook/internal/logging"
	"contactbook/internal/repository"
	"contactbook/internal/service"
	"contactbook/internal/upload"
)

// Usage example on the command line:
// > PORT=8080 DBUSER=app DBPWD=secret DBHOST=localhost:3306 GIN_MODE=release go run main.go
func main() {
	cfg := config.Load()
	logging.Setup()

	sqlDB := repository.CreateDatabase(cfg)
	repository.Setup(sqlDB)

	store := upload.NewStore(cfg.UploadDir)
	if _, err := store.EnsureDirectory(); err != nil {
		logging.Fatal("could not prepare upload directory", "dir", cfg.UploadDir, "error", err)
	}

	router := service.SetupHttpRouter(store, cfg.MaxUploadBytes())
	slog.Info("starting contact service", "port", cfg.Port, "upload_dir", cfg.UploadDir)
	if err := router.Run(":" + cfg.Port); err != nil {
		logging.Fatal("server stopped", "error", err)
	}
}
