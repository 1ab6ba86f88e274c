package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	CORSAllowOrigins    string
	StorageDir          string
	AllowedFormats      []string
	MaxFileSizeMB       int
	ResetCodeTTL        time.Duration
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxFileSizeBytes converts the configured upload ceiling to bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSWORK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Classwork API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.dir", "./data/uploads")
	v.SetDefault("upload.allowed_formats", "pdf,doc,docx,txt")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("reset.code_ttl", "10m")
	v.SetDefault("cloudinary.folder", "classwork/prompts")
	v.SetDefault("cors.allow_origins", "*")

	ttl, err := time.ParseDuration(v.GetString("reset.code_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reset code ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		CORSAllowOrigins:    v.GetString("cors.allow_origins"),
		StorageDir:          v.GetString("storage.dir"),
		AllowedFormats:      splitFormats(v.GetString("upload.allowed_formats")),
		MaxFileSizeMB:       v.GetInt("upload.max_size_mb"),
		ResetCodeTTL:        ttl,
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 10
	}

	if len(cfg.AllowedFormats) == 0 {
		cfg.AllowedFormats = []string{"pdf", "doc", "docx", "txt"}
	}

	return cfg, nil
}

func splitFormats(raw string) []string {
	parts := strings.Split(raw, ",")
	formats := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(part, ".")))
		if normalized != "" {
			formats = append(formats, normalized)
		}
	}
	return formats
}
