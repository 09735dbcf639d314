package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/proximity"
	"github.com/samirrijal/kehillah/internal/core/schedule"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Proximity ProximityConfig `mapstructure:"proximity"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Reminder  ReminderConfig  `mapstructure:"reminder"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`
	WriteTimeout   int    `mapstructure:"write_timeout"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
	RateLimit      int    `mapstructure:"rate_limit"` // requests per minute per IP
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ScheduleConfig struct {
	Timezone             string   `mapstructure:"timezone"`
	Rollover             string   `mapstructure:"rollover"`
	SoonWindowMinutes    int      `mapstructure:"soon_window_minutes"`
	EventDurationMinutes int      `mapstructure:"event_duration_minutes"`
	Tick                 string   `mapstructure:"tick"`
	Nusachs              []string `mapstructure:"nusachs"`
}

// Location loads the configured zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// Resolver builds a schedule resolver from the configured zone and rollover.
func (s ScheduleConfig) Resolver() (*schedule.Resolver, error) {
	loc, err := s.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	ro, err := schedule.ParseRollover(s.Rollover)
	if err != nil {
		return nil, err
	}
	return schedule.New(schedule.WithLocation(loc), schedule.WithRollover(ro)), nil
}

func (s ScheduleConfig) SoonWindow() time.Duration {
	return time.Duration(s.SoonWindowMinutes) * time.Minute
}

func (s ScheduleConfig) EventDuration() time.Duration {
	return time.Duration(s.EventDurationMinutes) * time.Minute
}

type ProximityConfig struct {
	NearbyRadiusMiles float64 `mapstructure:"nearby_radius_miles"`
	MaxRadiusMiles    float64 `mapstructure:"max_radius_miles"`
	FallbackEnabled   bool    `mapstructure:"fallback_enabled"`
	FallbackLat       float64 `mapstructure:"fallback_lat"`
	FallbackLon       float64 `mapstructure:"fallback_lon"`
}

// Policy returns the reference-point policy. With the fallback disabled,
// callers without a location get domain.ErrLocationUnavailable.
func (p ProximityConfig) Policy() proximity.Policy {
	if !p.FallbackEnabled {
		return proximity.Policy{}
	}
	return proximity.Policy{Fallback: &domain.GeoPoint{Lat: p.FallbackLat, Lon: p.FallbackLon}}
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

type ReminderConfig struct {
	LeadMinutes int `mapstructure:"lead_minutes"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: KEHILLAH_DATABASE_HOST → database.host
	v.SetEnvPrefix("KEHILLAH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allowed_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kehillah")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "kehillah")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("schedule.timezone", schedule.DefaultTimezone)
	v.SetDefault("schedule.rollover", "none")
	v.SetDefault("schedule.soon_window_minutes", 30)
	v.SetDefault("schedule.event_duration_minutes", 30)
	v.SetDefault("schedule.tick", "@every 1m")
	v.SetDefault("schedule.nusachs", domain.Nusachs)
	v.SetDefault("proximity.nearby_radius_miles", 5.0)
	v.SetDefault("proximity.max_radius_miles", 50.0)
	v.SetDefault("proximity.fallback_enabled", true)
	v.SetDefault("proximity.fallback_lat", 41.8781)
	v.SetDefault("proximity.fallback_lon", -87.6298)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "minyan-reminders")
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("reminder.lead_minutes", 15)
}

// Validate checks that required configuration fields are present and sane.
// Every problem is reported, not just the first.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		add("server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		add("server.write_timeout must be positive")
	}
	if c.Database.Host == "" {
		add("database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		add("database.port must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.User == "" {
		add("database.user is required")
	}
	if c.Database.DBName == "" {
		add("database.dbname is required")
	}
	if c.NATS.URL == "" {
		add("nats.url is required")
	}
	if c.Valkey.Addr == "" {
		add("valkey.addr is required")
	}
	if _, err := c.Schedule.Location(); err != nil {
		add("schedule.timezone %q: %v", c.Schedule.Timezone, err)
	}
	if _, err := schedule.ParseRollover(c.Schedule.Rollover); err != nil {
		add("schedule.rollover: %v", err)
	}
	if c.Schedule.SoonWindowMinutes < 0 {
		add("schedule.soon_window_minutes must not be negative")
	}
	if c.Schedule.EventDurationMinutes <= 0 {
		add("schedule.event_duration_minutes must be positive")
	}
	if c.Schedule.Tick == "" {
		add("schedule.tick is required")
	}
	if c.Proximity.NearbyRadiusMiles <= 0 {
		add("proximity.nearby_radius_miles must be positive")
	}
	if c.Proximity.MaxRadiusMiles < c.Proximity.NearbyRadiusMiles {
		add("proximity.max_radius_miles must be at least nearby_radius_miles")
	}
	if c.Proximity.FallbackEnabled {
		p := domain.GeoPoint{Lat: c.Proximity.FallbackLat, Lon: c.Proximity.FallbackLon}
		if err := p.Validate(); err != nil {
			add("proximity fallback: %v", err)
		}
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		add("temporal.task_queue is required when temporal is enabled")
	}
	if c.Reminder.LeadMinutes < 1 || c.Reminder.LeadMinutes > 24*60 {
		add("reminder.lead_minutes must be 1-1440, got %d", c.Reminder.LeadMinutes)
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
