package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisBookingDB  int    `mapstructure:"REDIS_BOOKING_DB"`
	RedisReminderDB int    `mapstructure:"REDIS_REMINDER_DB"`

	// Payment gateway configuration.
	GatewayMerchantID  string `mapstructure:"GATEWAY_MERCHANT_ID"`
	GatewaySecret      string `mapstructure:"GATEWAY_SECRET"`
	GatewayBaseURL     string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayRedirectURL string `mapstructure:"GATEWAY_REDIRECT_URL"`
	GatewayCallbackURL string `mapstructure:"GATEWAY_CALLBACK_URL"`
	Currency           string `mapstructure:"CURRENCY"`

	// Calendar service configuration.
	CalendarBaseURL string `mapstructure:"CALENDAR_BASE_URL"`
	CalendarAPIKey  string `mapstructure:"CALENDAR_API_KEY"`

	// Mail service configuration.
	MailBaseURL string `mapstructure:"MAIL_BASE_URL"`
	MailAPIKey  string `mapstructure:"MAIL_API_KEY"`
	MailSender  string `mapstructure:"MAIL_SENDER"`

	// Booking pipeline policies. The TTL and retry counts are operational
	// defaults, not gateway protocol requirements.
	BookingTTLMinutes    int `mapstructure:"BOOKING_TTL_MINUTES"`
	SweepIntervalMinutes int `mapstructure:"SWEEP_INTERVAL_MINUTES"`
	GatewayRetries       int `mapstructure:"GATEWAY_RETRIES"`
	NotifyMaxAttempts    int `mapstructure:"NOTIFY_MAX_ATTEMPTS"`
	ReminderLeadHours    int `mapstructure:"REMINDER_LEAD_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_BOOKING_DB", 0)
	viper.SetDefault("REDIS_REMINDER_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("CURRENCY", "EUR")
	viper.SetDefault("BOOKING_TTL_MINUTES", 30)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 5)
	viper.SetDefault("GATEWAY_RETRIES", 1)
	viper.SetDefault("NOTIFY_MAX_ATTEMPTS", 3)
	viper.SetDefault("REMINDER_LEAD_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// BookingTTL returns the draft time-to-live as a duration.
func BookingTTL() time.Duration {
	return time.Duration(AppConfig.BookingTTLMinutes) * time.Minute
}

// SweepInterval returns how often the expiry sweep runs.
func SweepInterval() time.Duration {
	return time.Duration(AppConfig.SweepIntervalMinutes) * time.Minute
}
