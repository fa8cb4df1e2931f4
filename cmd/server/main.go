package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/agrimart/ordercore/internal/app"
	"github.com/agrimart/ordercore/internal/config"
	"github.com/agrimart/ordercore/internal/logger"
	"github.com/agrimart/ordercore/internal/models"

	"github.com/gin-gonic/gin"
)

const minSecretLength = 32

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key", "secret123"}

func main() {
	var (
		mode        string
		configPath  string
		migrateOnly bool
	)
	flag.StringVar(&mode, "mode", app.ModeAll, "run mode: all (default), api, worker")
	flag.StringVar(&configPath, "config", "", "config file; defaults to config.yml in ., .. or ./etc")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "migrate the schema and exit")
	flag.Parse()

	cfg := config.LoadFile(configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	release := cfg.Server.Mode == "release"
	for _, problem := range secretProblems(cfg) {
		if release {
			stdLog.Fatalf("refusing to start: %s", problem)
		}
		logger.Warnw("weak_secret", "problem", problem)
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.ToPoolConfig()); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}
	if migrateOnly {
		logger.Infow("migrate_only_done", "driver", cfg.Database.Driver)
		return
	}

	if release {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("service exited: %v", err)
	}
}

// secretProblems lists the shared secrets that are short or still a placeholder
func secretProblems(cfg *config.Config) []string {
	secrets := []struct {
		name  string
		value string
	}{
		{"jwt.secret", cfg.JWT.SecretKey},
		{"payment.webhook_secret", cfg.Payment.WebhookSecret},
	}
	var problems []string
	for _, secret := range secrets {
		if isWeakSecret(secret.value) {
			problems = append(problems, secret.name+" is weak or still the default")
		}
	}
	return problems
}

func isWeakSecret(secret string) bool {
	if len(secret) < minSecretLength {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
