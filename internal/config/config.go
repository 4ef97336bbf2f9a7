package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrInvalidClock                = errors.New("invalid clock value, expected HH:MM")
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string    `mapstructure:"env"`      // current application environment (local, dev, production etc)
	Timezone         string    `mapstructure:"timezone"` // timezone of the daily schedule
	TelegramAPIToken string    `mapstructure:"-"`        // Telegram API token loaded from environment
	RedisURL         string    `mapstructure:"-"`        // optional, enables the shared schedule guard
	DB               DB        `mapstructure:"database"`
	Schedule         Schedule  `mapstructure:"schedule"`
	Policy           Policy    `mapstructure:"policy"`
	Quiz             Quiz      `mapstructure:"quiz"`
	Admins           Admins    `mapstructure:"admins"`
	Decay            Decay     `mapstructure:"decay"`
	Content          Content   `mapstructure:"content"`
	Cache            Cache     `mapstructure:"cache"`
	Transport        Transport `mapstructure:"transport"`
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Schedule lists the fixed daily slots as HH:MM clock values.
type Schedule struct {
	Statistics string   `mapstructure:"statistics"`
	Deliveries []string `mapstructure:"deliveries"`
}

// Policy holds the word selection thresholds.
type Policy struct {
	RestBudget     int           `mapstructure:"rest_budget"`
	Cooldown       time.Duration `mapstructure:"cooldown"`
	ProductionMin  int           `mapstructure:"production_min"`
	PoolMin        int           `mapstructure:"pool_min"`
	RevealBatch    int           `mapstructure:"reveal_batch"`
	IntroduceLimit int           `mapstructure:"introduce_limit"`
	DecayAge       time.Duration `mapstructure:"decay_age"`
	DecayAmount    int           `mapstructure:"decay_amount"`
	DecayLimit     int           `mapstructure:"decay_limit"`
}

type Quiz struct {
	FastWindow      time.Duration `mapstructure:"fast_window"`
	ScheduledExpiry time.Duration `mapstructure:"scheduled_expiry"`
}

// Admins are allow-lists of Telegram identities.
type Admins struct {
	Broadcast []int64 `mapstructure:"broadcast"`
	Stats     []int64 `mapstructure:"stats"`
}

type Decay struct {
	RestrictToAdmins bool `mapstructure:"restrict_to_admins"`
}

type Content struct {
	AlphabetPhotoURL  string `mapstructure:"alphabet_photo_url"`
	AlphabetLessonURL string `mapstructure:"alphabet_lesson_url"`
}

type Cache struct {
	LessonsMaxCost int64 `mapstructure:"lessons_max_cost"`
}

type Transport struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Debug         bool    `mapstructure:"debug"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.RedisURL = v.GetString("redis_url")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("timezone", "Europe/Moscow")

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.migrate_on_start", true)

	v.SetDefault("schedule.statistics", "05:30")
	v.SetDefault("schedule.deliveries", []string{"05:30", "15:30"})

	v.SetDefault("policy.rest_budget", 50)
	v.SetDefault("policy.cooldown", "6h")
	v.SetDefault("policy.production_min", 10)
	v.SetDefault("policy.pool_min", 20)
	v.SetDefault("policy.reveal_batch", 5)
	v.SetDefault("policy.introduce_limit", 20)
	v.SetDefault("policy.decay_age", "720h")
	v.SetDefault("policy.decay_amount", 2)
	v.SetDefault("policy.decay_limit", 5)

	v.SetDefault("quiz.fast_window", "60s")
	v.SetDefault("quiz.scheduled_expiry", "12h")

	v.SetDefault("admins.broadcast", []int64{})
	v.SetDefault("admins.stats", []int64{})
	v.SetDefault("decay.restrict_to_admins", true)

	v.SetDefault("content.alphabet_photo_url", "https://legkonauchim.ru/wp-content/uploads/2020/12/transkriptsiya-alfavita.gif")
	v.SetDefault("content.alphabet_lesson_url", "https://lessons.baku-aio.ru/azerbaydzhanskiy-alfavit")

	v.SetDefault("cache.lessons_max_cost", 1000)

	v.SetDefault("transport.rate_per_second", 25)
	v.SetDefault("transport.debug", false)
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	clocks := append([]string{c.Schedule.Statistics}, c.Schedule.Deliveries...)
	for _, clock := range clocks {
		if _, _, err := ParseClock(clock); err != nil {
			return err
		}
	}

	return nil
}

// Location returns the schedule timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseClock splits an HH:MM clock value.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour(), t.Minute(), nil
}
