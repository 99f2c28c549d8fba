package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	GCS      GCSConfig
	Sheets   SheetsConfig
	Captcha  CaptchaConfig
	Mail     MailConfig
	CMS      CMSConfig
	Site     SiteConfig
	Webhook  WebhookConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins []string
	BaseURL      string
	AdminToken   string
}

type GCSConfig struct {
	BucketName      string
	ProjectID       string
	CredentialsPath string
	Public          bool
}

type SheetsConfig struct {
	CredentialsPath string
	CredentialsJSON string
}

type CaptchaConfig struct {
	SecretKey string
	SiteKey   string
	VerifyURL string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	NotifyTo string
}

type CMSConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
}

type SiteConfig struct {
	URL        string
	RoutesFile string
}

type WebhookConfig struct {
	Secret          string
	RevalidateURL   string
	RevalidateToken string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "eldercare_db"),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", getEnv("SERVER_PORT", "8080")),
			Environment: getEnv("ENVIRONMENT", "development"),
			BaseURL:     strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
			AdminToken:  getEnv("ADMIN_TOKEN", ""),
			AllowOrigins: []string{
				getEnv("FRONTEND_URL_1", "http://localhost:3000"),
				getEnv("FRONTEND_URL_2", "http://localhost:5173"),
			},
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
			Public:          getBool("GCS_PUBLIC", false),
		},
		Sheets: SheetsConfig{
			CredentialsPath: getEnv("GOOGLE_SHEETS_CREDENTIALS_PATH", ""),
			CredentialsJSON: getEnv("GOOGLE_SHEETS_CREDENTIALS_JSON", ""),
		},
		Captcha: CaptchaConfig{
			SecretKey: getEnv("CAPTCHA_SECRET_KEY", ""),
			SiteKey:   getEnv("CAPTCHA_SITE_KEY", ""),
			VerifyURL: getEnv("CAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     smtpPort,
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
			NotifyTo: getEnv("CONTACT_NOTIFY_TO", ""),
		},
		CMS: CMSConfig{
			ProjectID:  getEnv("CMS_PROJECT_ID", ""),
			Dataset:    getEnv("CMS_DATASET", "production"),
			APIVersion: getEnv("CMS_API_VERSION", "2024-01-01"),
			Token:      getEnv("CMS_TOKEN", ""),
			UseCDN:     getBool("CMS_USE_CDN", true),
		},
		Site: SiteConfig{
			URL:        strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
			RoutesFile: getEnv("SITEMAP_ROUTES_FILE", ""),
		},
		Webhook: WebhookConfig{
			Secret:          getEnv("WEBHOOK_SECRET", ""),
			RevalidateURL:   getEnv("REVALIDATE_URL", ""),
			RevalidateToken: getEnv("REVALIDATE_TOKEN", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// Enabled reports whether the submission audit log has a database to write to.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

func (d *DatabaseConfig) DSN() string {
	// Cloud SQL Unix socket
	if strings.HasPrefix(d.Host, "/") {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func (s *SheetsConfig) Configured() bool {
	return s.CredentialsPath != "" || s.CredentialsJSON != ""
}

func (c *CaptchaConfig) Configured() bool {
	return c.SecretKey != ""
}

func (m *MailConfig) Configured() bool {
	return m.Host != "" && m.From != "" && m.NotifyTo != ""
}

func (w *WebhookConfig) CanRevalidate() bool {
	return w.RevalidateURL != ""
}
