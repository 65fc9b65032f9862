package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Assign AssignConfig `yaml:"assign" mapstructure:"assign"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ImportConfig configures tabular intake.
type ImportConfig struct {
	Campaign       string `yaml:"campaign" mapstructure:"campaign"`
	SheetIndex     int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	SkipRows       int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	MaxConcurrent  int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	FTPUser        string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword    string `yaml:"ftp_password" mapstructure:"ftp_password"`
	FTPTimeoutSecs int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// AssignConfig configures the assignment engine.
type AssignConfig struct {
	RulesPath  string `yaml:"rules_path" mapstructure:"rules_path"`
	RosterPath string `yaml:"roster_path" mapstructure:"roster_path"`
	DefaultRep string `yaml:"default_rep" mapstructure:"default_rep"`
	Actor      string `yaml:"actor" mapstructure:"actor"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	ImportRPS     float64 `yaml:"import_rps" mapstructure:"import_rps"`
	ImportBurst   int     `yaml:"import_burst" mapstructure:"import_burst"`
	ShutdownGrace int     `yaml:"shutdown_grace_secs" mapstructure:"shutdown_grace_secs"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional) and the environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADROUTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leads.db")
	v.SetDefault("import.campaign", "default")
	v.SetDefault("import.sheet_index", 0)
	v.SetDefault("import.skip_rows", 1)
	v.SetDefault("import.max_concurrent", 8)
	v.SetDefault("import.ftp_timeout_secs", 30)
	v.SetDefault("assign.rules_path", "rules.yaml")
	v.SetDefault("assign.roster_path", "roster.yaml")
	v.SetDefault("assign.default_rep", "unassigned-queue")
	v.SetDefault("assign.actor", "lead-router")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.import_rps", 2)
	v.SetDefault("server.import_burst", 5)
	v.SetDefault("server.shutdown_grace_secs", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
