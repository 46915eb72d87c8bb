package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/formloom/formloom-backend/internal/pkg/logger"
	"github.com/formloom/formloom-backend/internal/utils"
)

// Config is assembled from environment variables, with an optional YAML file
// (CONFIG_FILE) layered on top. File values win over env values so a mounted
// config can pin a deployment without rewriting its environment.
type Config struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Port        string `yaml:"port"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServiceName: utils.GetEnv("SERVICE_NAME", "formloom", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
		Port:        utils.GetEnv("PORT", "8080", log),
	}

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	log.Info("config file applied", "path", path)
	return cfg, nil
}
