package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBDriver    string
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string

	HTTPAddr       string
	MaxConnections int
	SweepTimeout   time.Duration

	JWTSecret    string
	CookieSecure bool
	AppURL       string
	CORSOrigins  []string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailWorkers  int
	MailQueue    int
	NotifyEmail  bool
}

// Load reads configuration from the environment, optionally layered over a
// YAML file named by TASKFLOW_CONFIG.
func Load() (*Config, error) {
	return load(true)
}

// LoadTool is Load for operator tools that never issue sessions, so
// JWT_SECRET may be unset.
func LoadTool() (*Config, error) {
	return load(false)
}

func load(requireSecret bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("taskflow_config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return fromViper(v, requireSecret)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432) // fallback
	v.SetDefault("db_name", "taskflow")

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("max_connections", 512)
	v.SetDefault("sweep_timeout", "10s")

	v.SetDefault("cookie_secure", false)
	v.SetDefault("app_url", "http://localhost:3000")
	v.SetDefault("cors_origins", "http://localhost:3000")

	v.SetDefault("smtp_port", 587)
	v.SetDefault("mail_from", "TaskFlow <notifications@taskflow.local>")
	v.SetDefault("mail_workers", 2)
	v.SetDefault("mail_queue", 256)
	v.SetDefault("notify_email", true)
}

func fromViper(v *viper.Viper, requireSecret bool) (*Config, error) {
	cfg := &Config{
		DBDriver:    v.GetString("db_driver"),
		DatabaseURL: v.GetString("database_url"),
		DBHost:      v.GetString("db_host"),
		DBPort:      v.GetInt("db_port"),
		DBUser:      v.GetString("db_user"),
		DBPassword:  v.GetString("db_password"),
		DBName:      v.GetString("db_name"),

		HTTPAddr:       v.GetString("http_addr"),
		MaxConnections: v.GetInt("max_connections"),
		SweepTimeout:   v.GetDuration("sweep_timeout"),

		JWTSecret:    v.GetString("jwt_secret"),
		CookieSecure: v.GetBool("cookie_secure"),
		AppURL:       strings.TrimRight(v.GetString("app_url"), "/"),
		CORSOrigins:  splitList(v.GetString("cors_origins")),

		SMTPHost:     v.GetString("smtp_host"),
		SMTPPort:     v.GetInt("smtp_port"),
		SMTPUser:     v.GetString("smtp_user"),
		SMTPPassword: v.GetString("smtp_password"),
		MailFrom:     v.GetString("mail_from"),
		MailWorkers:  v.GetInt("mail_workers"),
		MailQueue:    v.GetInt("mail_queue"),
		NotifyEmail:  v.GetBool("notify_email"),
	}

	if requireSecret && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.MailWorkers < 1 {
		cfg.MailWorkers = 1
	}

	return cfg, nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "sqlite" {
		return "taskflow.db"
	}
	return c.ConnString()
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// SMTPAddr returns host:port, or "" when SMTP delivery is not configured.
func (c *Config) SMTPAddr() string {
	if c.SMTPHost == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
