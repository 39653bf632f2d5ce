package main

import (
	"os"

	"video-quality-dashboard/internal/config"
	"video-quality-dashboard/internal/logger"

	"golang.org/x/term"
)

// loadConfig reads the config file and applies the root flags.
func (env *rootEnv) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(env.configPath)
	if err != nil {
		return nil, err
	}
	if env.logLevel != "" {
		cfg.LogLevel = env.logLevel
	}
	if env.logJSON {
		cfg.LogJSON = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logger.Logger {
	level := logger.LevelFromEnv(cfg.LogLevel)
	if cfg.LogJSON {
		return logger.NewJSONLogger(level)
	}
	return logger.NewConsoleLogger(level)
}

// stderrIsTerminal decides whether progress bars are drawn.
func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
