package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting, read from the environment (and an
// optional .env file in development).
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	DB        DB
	Admin     Admin
	Payment   Payment
	Checkout  Checkout
	Reconcile Reconcile
	SMTP      SMTP

	// Restaurant WhatsApp number in international format, digits only.
	// Used to build the manual-payment deep link.
	WhatsAppPhone string `env:"WHATSAPP_PHONE"`
}

type DB struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" env-default:"curryhouse"`
}

type Admin struct {
	APIKey           string `env:"ADMIN_API_KEY"`
	JWTSecret        string `env:"JWT_SECRET"`
	OperatorEmail    string `env:"OPERATOR_EMAIL"`
	OperatorPassword string `env:"OPERATOR_PASSWORD"`
}

type Payment struct {
	APIURL        string `env:"PAYMENT_API_URL"`
	APIKey        string `env:"PAYMENT_API_KEY"`
	WebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

type Checkout struct {
	// SuccessURL gets "?order=<order number>" appended so the confirmation
	// page can look the order up after the redirect.
	SuccessURL       string `env:"CHECKOUT_SUCCESS_URL"`
	CancelURL        string `env:"CHECKOUT_CANCEL_URL"`
	Currency         string `env:"CURRENCY" env-default:"eur"`
	DeliveryFeeCents int64  `env:"DELIVERY_FEE_CENTS" env-default:"250"`
}

type Reconcile struct {
	Interval time.Duration `env:"RECONCILE_INTERVAL" env-default:"5m"`
	// Orders younger than Grace are left alone; the customer may still be
	// on the processor's payment page.
	Grace time.Duration `env:"RECONCILE_GRACE" env-default:"10m"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" env-default:"465"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
}

// MustLoad reads the environment into a Config and dies if it cannot.
func MustLoad() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("❌ Failed to read config from environment: %v", err)
	}
	return &cfg
}
