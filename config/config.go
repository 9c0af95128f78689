package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Payment PaymentConfig
	Booking BookingConfig
	Jobs    JobsConfig
}

type AppConfig struct {
	Port string
	Env  string
	// CORSOrigin is the single allowed browser origin, "*" for any.
	CORSOrigin string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type PaymentConfig struct {
	GatewayURL    string
	APIKey        string
	WebhookSecret string
}

type BookingConfig struct {
	// ServiceFeePercent is the marketplace fee added on top of the service
	// price, as a percentage.
	ServiceFeePercent float64
	SlotHoldTTL       time.Duration
}

type JobsConfig struct {
	ReminderInterval time.Duration
	SweepInterval    time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("JWT_REFRESH_EXPIRY"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	slotHoldTTL, err := time.ParseDuration(viper.GetString("BOOKING_SLOT_HOLD_TTL"))
	if err != nil {
		slotHoldTTL = 5 * time.Minute
	}

	reminderInterval, err := time.ParseDuration(viper.GetString("JOBS_REMINDER_INTERVAL"))
	if err != nil {
		reminderInterval = time.Hour
	}

	sweepInterval, err := time.ParseDuration(viper.GetString("JOBS_SWEEP_INTERVAL"))
	if err != nil {
		sweepInterval = 15 * time.Minute
	}

	corsOrigin := viper.GetString("APP_CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*"
	}

	config := &Config{
		App: AppConfig{
			Port:       viper.GetString("APP_PORT"),
			Env:        viper.GetString("APP_ENV"),
			CORSOrigin: corsOrigin,
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
		Payment: PaymentConfig{
			GatewayURL:    viper.GetString("PAYMENT_GATEWAY_URL"),
			APIKey:        viper.GetString("PAYMENT_API_KEY"),
			WebhookSecret: viper.GetString("PAYMENT_WEBHOOK_SECRET"),
		},
		Booking: BookingConfig{
			ServiceFeePercent: viper.GetFloat64("BOOKING_SERVICE_FEE_PERCENT"),
			SlotHoldTTL:       slotHoldTTL,
		},
		Jobs: JobsConfig{
			ReminderInterval: reminderInterval,
			SweepInterval:    sweepInterval,
		},
	}

	return config, nil
}
