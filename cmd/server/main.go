package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"decision-eval/backend/internal/api"
	"decision-eval/backend/internal/provider"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	providers := provider.OrchestratorConfig{
		Mistral: provider.Config{
			APIKey: os.Getenv("MISTRAL_API_KEY"),
			Model:  os.Getenv("MISTRAL_MODEL"),
		},
		Gemini: provider.Config{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  os.Getenv("GEMINI_MODEL"),
		},
		DeepSeek: provider.Config{
			APIKey: os.Getenv("DEEPSEEK_API_KEY"),
			Model:  os.Getenv("DEEPSEEK_MODEL"),
		},
		Primary: strings.TrimSpace(os.Getenv("PRIMARY_PROVIDER")),
		Timeout: 60 * time.Second,
	}
	if timeout := strings.TrimSpace(os.Getenv("PROVIDER_TIMEOUT")); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			providers.Timeout = d
		} else {
			logrus.WithField("value", timeout).Warn("invalid PROVIDER_TIMEOUT, using default")
		}
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET_KEY"))
	if secret == "" {
		logrus.Fatal("JWT_SECRET_KEY is required")
	}

	var origins []string
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	cfg := api.Config{
		DBPath:         filepath.Join(dataDir, "decision-eval.db"),
		AllowedOrigins: origins,
		JWTSecret:      secret,
		Providers:      providers,
	}
	if override := strings.TrimSpace(os.Getenv("DECISION_DB_PATH")); override != "" {
		cfg.DBPath = override
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}
	defer server.Close()

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	logrus.Infof("starting decision-eval backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
