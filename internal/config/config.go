package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"port"`
	DatabaseDSN    string   `mapstructure:"database_dsn"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	GeminiAPIKey   string   `mapstructure:"gemini_api_key"`
	GeminiModel    string   `mapstructure:"gemini_model"`
	Domain         string   `mapstructure:"domain"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func defaultConfig() *Config {
	return &Config{
		Port:        "3000",
		DatabaseDSN: "stride.db",
		GeminiModel: "gemini-2.0-flash",
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
		},
	}
}

// Load builds the configuration from defaults, an optional config.yaml in the
// working directory, and finally environment variables. The environment wins.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if err := loadFile("config.yaml", cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	applyEnv(cfg)

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.GeminiAPIKey = key
	}

	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.GeminiModel = model
	}

	if domain := os.Getenv("DOMAIN"); domain != "" {
		cfg.Domain = domain
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}
}
