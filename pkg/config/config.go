package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	AWSRegion        string `envconfig:"AWS_REGION" default:"ap-south-1"`
	TableName        string `envconfig:"TABLE_NAME" default:"study-platform"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""` // DynamoDB Local
	StoreBackend     string `envconfig:"STORE_BACKEND" default:"dynamodb"`
	SeedFile         string `envconfig:"SEED_FILE" default:""`

	// empty disables event publishing
	KafkaBrokers      string `envconfig:"KAFKA_BROKERS" default:""`
	CheckoutTopic     string `envconfig:"CHECKOUT_TOPIC" default:"checkout-events"`
	CompensationTopic string `envconfig:"COMPENSATION_TOPIC" default:"compensation-events"`

	GatewayMode          string        `envconfig:"GATEWAY_MODE" default:"razorpay"`
	RazorpayBaseURL      string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	RazorpayKey          string        `envconfig:"RAZORPAY_KEY"`
	RazorpaySecret       string        `envconfig:"RAZORPAY_SECRET"`
	Currency             string        `envconfig:"CURRENCY" default:"INR"`
	GatewayTimeout       time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	GatewayRetryAttempts uint          `envconfig:"GATEWAY_RETRY_ATTEMPTS" default:"3"`
	GatewayRetryDelay    time.Duration `envconfig:"GATEWAY_RETRY_DELAY" default:"200ms"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	MailMode            string        `envconfig:"MAIL_MODE" default:"log"`
	MailHost            string        `envconfig:"MAIL_HOST"`
	MailPort            int           `envconfig:"MAIL_PORT" default:"587"`
	MailUser            string        `envconfig:"MAIL_USER"`
	MailPass            string        `envconfig:"MAIL_PASS"`
	MailFrom            string        `envconfig:"MAIL_FROM" default:"StudyNotion <no-reply@studynotion.local>"`
	NotificationTimeout time.Duration `envconfig:"NOTIFICATION_TIMEOUT" default:"10s"`

	DotEnvLoaded bool `ignored:"true"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	found, err := loadDotEnv(".env")
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.DotEnvLoaded = found
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv reports whether path existed. A missing file is not an error;
// an unreadable or malformed one is.
func loadDotEnv(path string) (bool, error) {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.StoreBackend {
	case "dynamodb", "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be dynamodb or memory, got %q", c.StoreBackend))
	}

	switch c.GatewayMode {
	case "razorpay":
		if c.RazorpayKey == "" || c.RazorpaySecret == "" {
			errs = append(errs, errors.New("RAZORPAY_KEY and RAZORPAY_SECRET are required in razorpay mode"))
		}
	case "sandbox":
		if c.RazorpaySecret == "" {
			errs = append(errs, errors.New("RAZORPAY_SECRET is required in sandbox mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("GATEWAY_MODE must be razorpay or sandbox, got %q", c.GatewayMode))
	}

	switch c.MailMode {
	case "log":
	case "smtp":
		if c.MailHost == "" {
			errs = append(errs, errors.New("MAIL_HOST is required in smtp mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_MODE must be smtp or log, got %q", c.MailMode))
	}

	return errors.Join(errs...)
}

func (c *Config) Brokers() []string {
	if strings.TrimSpace(c.KafkaBrokers) == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
