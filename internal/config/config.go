// Package config loads the environment configuration (credentials,
// paths, runtime knobs) and the YAML file configuration (platforms,
// report settings, notification windows).
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-driven part of the configuration:
// everything secret or deployment-specific.
type Config struct {
	AppEnv             string        `env:"APP_ENV" envDefault:"local"`
	ConfigPath         string        `env:"CONFIG_PATH" envDefault:"config/config.yaml"`
	FrequencyWordsPath string        `env:"FREQUENCY_WORDS_PATH" envDefault:"config/frequency_words.txt"`
	OutputDir          string        `env:"OUTPUT_DIR" envDefault:"output"`
	Timezone           string        `env:"TIMEZONE" envDefault:"Asia/Shanghai"`
	HealthPort         int           `env:"HEALTH_PORT" envDefault:"8080"`
	ProxyURL           string        `env:"PROXY_URL"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`

	// Optional batch archive database. Empty disables archiving.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Channel credentials. A channel with empty credentials is simply
	// not configured.
	FeishuWebhookURL   string   `env:"FEISHU_WEBHOOK_URL"`
	DingTalkWebhookURL string   `env:"DINGTALK_WEBHOOK_URL"`
	WeWorkWebhookURL   string   `env:"WEWORK_WEBHOOK_URL"`
	TelegramBotToken   string   `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID     string   `env:"TELEGRAM_CHAT_ID"`
	NtfyServerURL      string   `env:"NTFY_SERVER_URL"`
	NtfyTopic          string   `env:"NTFY_TOPIC"`
	NtfyToken          string   `env:"NTFY_TOKEN"`
	EmailSMTPHost      string   `env:"EMAIL_SMTP_HOST"`
	EmailSMTPPort      string   `env:"EMAIL_SMTP_PORT" envDefault:"587"`
	EmailUsername      string   `env:"EMAIL_USERNAME"`
	EmailPassword      string   `env:"EMAIL_PASSWORD"`
	EmailFrom          string   `env:"EMAIL_FROM"`
	EmailTo            []string `env:"EMAIL_TO" envSeparator:","`
}

// Load reads .env when present, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
