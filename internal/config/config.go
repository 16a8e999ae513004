package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath   string
	HTTPAddr string

	MailProvider string
	Mailbox      string

	IMAPHost       string
	IMAPPort       int
	IMAPSecure     bool
	IMAPUser       string
	IMAPPassword   string
	IMAPTimeoutSec int

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	TrustedSender string

	ListenerEnabled     bool
	ListenerIntervalSec int
	FetchMax            int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:   getEnv("DB_PATH", filepath.Join(cwd, "data", "rentdesk.db")),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		MailProvider: getEnv("MAIL_PROVIDER", "imap"),
		Mailbox:      getEnv("MAILBOX", "INBOX"),

		IMAPHost:       getEnv("IMAP_HOST", ""),
		IMAPPort:       getEnvInt("IMAP_PORT", 993),
		IMAPSecure:     getEnvBool("IMAP_SECURE", true),
		IMAPUser:       getEnv("IMAP_USER", ""),
		IMAPPassword:   getEnv("IMAP_PASSWORD", ""),
		IMAPTimeoutSec: getEnvInt("IMAP_TIMEOUT_SEC", 30),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		TrustedSender: getEnv("TRUSTED_SENDER", ""),

		ListenerEnabled:     getEnvBool("LISTENER_ENABLED", true),
		ListenerIntervalSec: getEnvInt("LISTENER_INTERVAL_SEC", 120),
		FetchMax:            getEnvInt("FETCH_MAX", 20),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
