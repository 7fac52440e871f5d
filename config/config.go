package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	AllowedOrigins []string
	JWTSecret      string
	AdminEmail     string
	PublicURL      string
	Env            string
	LogLevel       string

	StripeSecretKey string
	Currency        string

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	MaxUploadMB   int64

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func Load() (*Config, error) {
	maxMB := int64(5)
	if v := getEnv("MAX_UPLOAD_MB", ""); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	smtpPort := 587
	if v := getEnv("SMTP_PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			smtpPort = n
		}
	}

	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		MongoURI:        mongoURI(),
		DBName:          getEnv("MONGODB_DB", "OnTimeNewsDB"),
		AllowedOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		JWTSecret:       getEnv("ACCESS_TOKEN_SECRET", ""),
		AdminEmail:      strings.TrimSpace(getEnv("ADMIN_EMAIL", "")),
		PublicURL:       strings.TrimRight(strings.TrimSpace(getEnv("PUBLIC_URL", "")), "/"),
		Env:             getEnv("ENV", "production"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		S3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		S3Region:        getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxUploadMB:     maxMB,
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        smtpPort,
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPass:        getEnv("SMTP_PASS", ""),
		SMTPFrom:        getEnv("SMTP_FROM", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET is required")
	}
	if c.MongoURI == "" {
		return errors.New("set MONGODB_URI or DB_USER, DB_PASS and DB_CLUSTER")
	}
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// mongoURI prefers MONGODB_URI and otherwise assembles an Atlas SRV URI
// from DB_USER, DB_PASS and DB_CLUSTER.
func mongoURI() string {
	if v := getEnv("MONGODB_URI", ""); v != "" {
		return v
	}
	user, pass, cluster := getEnv("DB_USER", ""), getEnv("DB_PASS", ""), getEnv("DB_CLUSTER", "")
	if user == "" || pass == "" || cluster == "" {
		return ""
	}
	return BuildAtlasURI(user, pass, cluster)
}

func BuildAtlasURI(user, pass, cluster string) string {
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, pass),
		Host:     cluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority&appName=Cluster0",
	}
	return u.String()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Describe returns a log-safe summary of which optional integrations are enabled.
func (c *Config) Describe() string {
	return fmt.Sprintf("port=%s db=%s origins=%d stripe=%t s3=%t smtp=%t",
		c.Port, c.DBName, len(c.AllowedOrigins), c.StripeSecretKey != "", c.S3Bucket != "", c.SMTPHost != "")
}
