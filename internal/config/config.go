package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wedding-rsvp/internal/models"
)

// AmbiguityPolicy decides what a dispatch whose delivery cannot be verified
// reports to the guest
type AmbiguityPolicy string

const (
	// AssumeConfirmed reports unverifiable deliveries as saved. It can hide a
	// genuine failure behind a success message.
	AssumeConfirmed AmbiguityPolicy = "assume-confirmed"
	// TreatAsFailed reports unverifiable deliveries as failed, which may
	// prompt a duplicate retry of a row that was in fact stored.
	TreatAsFailed AmbiguityPolicy = "fail"
)

// Config holds the application configuration
type Config struct {
	// Endpoint
	ListenAddr  string
	StoreDriver string
	StorePath   string
	SheetName   string

	// Form
	EndpointURL     string
	DispatchTimeout time.Duration
	Ambiguity       AmbiguityPolicy
	Events          []string

	EmailJS EmailJSConfig
	SMTP    SMTPConfig

	WhatsAppEnabled   bool
	WhatsAppDataDir   string
	WhatsAppHostPhone string

	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string
}

// EmailJSConfig identifies the EmailJS template used for confirmations
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// Enabled reports whether all EmailJS keys are set
func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// SMTPConfig holds the relay used for confirmations when EmailJS is not set
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// LoadConfig loads configuration from environment variables or defaults.
// A .env file in the working directory is read first if present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:  getEnv("RSVP_LISTEN_ADDR", ":8080"),
		StoreDriver: getEnv("RSVP_STORE_DRIVER", "sqlite"),
		StorePath:   getEnv("RSVP_STORE_PATH", "data/rsvp.db"),
		SheetName:   getEnv("RSVP_SHEET_NAME", "RSVP Responses"),

		EndpointURL:     getEnv("RSVP_ENDPOINT_URL", "http://localhost:8080/rsvp"),
		DispatchTimeout: getEnvDuration("RSVP_DISPATCH_TIMEOUT", 15*time.Second),
		Ambiguity:       parsePolicy(getEnv("RSVP_AMBIGUOUS_POLICY", string(AssumeConfirmed))),
		Events:          getEnvList("RSVP_EVENTS", models.DefaultEvents),

		EmailJS: EmailJSConfig{
			ServiceID:  getEnv("EMAILJS_SERVICE_ID", ""),
			TemplateID: getEnv("EMAILJS_TEMPLATE_ID", ""),
			PublicKey:  getEnv("EMAILJS_PUBLIC_KEY", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},

		WhatsAppEnabled:   getEnvBool("WHATSAPP_ENABLED", false),
		WhatsAppDataDir:   getEnv("WHATSAPP_DATA_DIR", "data"),
		WhatsAppHostPhone: getEnv("WHATSAPP_HOST_PHONE", ""),

		WeddingDate:     getEnv("WEDDING_DATE", "Saturday, January 1, 2025"),
		WeddingLocation: getEnv("WEDDING_LOCATION", "Venue TBD"),
		BrideName:       getEnv("BRIDE_NAME", "Bride"),
		GroomName:       getEnv("GROOM_NAME", "Groom"),
	}
}

func parsePolicy(v string) AmbiguityPolicy {
	if AmbiguityPolicy(strings.ToLower(v)) == TreatAsFailed {
		return TreatAsFailed
	}
	return AssumeConfirmed
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if list := models.SplitEvents(os.Getenv(key)); len(list) > 0 {
		return list
	}
	return defaultValue
}
