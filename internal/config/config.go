package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"tradepost"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type NATSConfig struct {
	// Empty URL disables integration event publishing.
	URL string `yaml:"url" env:"NATS_URL"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"listing-images"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type DiscordConfig struct {
	Token           string `yaml:"token" env:"DISCORD_TOKEN" env-required:"true"`
	GuildID         string `yaml:"guild_id" env:"DISCORD_GUILD_ID" env-required:"true"`
	ChannelID       string `yaml:"channel_id" env:"DISCORD_CHANNEL_ID" env-required:"true"`
	EventsChannelID string `yaml:"events_channel_id" env:"DISCORD_EVENTS_CHANNEL_ID"`
}

type ReminderConfig struct {
	Interval time.Duration `yaml:"interval" env:"REMINDER_INTERVAL" env-default:"336h"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT"`
}

type TracingConfig struct {
	// Empty endpoint disables tracing.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type Config struct {
	HTTP      HTTPConfig     `yaml:"http"`
	Mongo     MongoConfig    `yaml:"mongo"`
	Redis     RedisConfig    `yaml:"redis"`
	NATS      NATSConfig     `yaml:"nats"`
	MinIO     MinIOConfig    `yaml:"minio"`
	Discord   DiscordConfig  `yaml:"discord"`
	Reminder  ReminderConfig `yaml:"reminder"`
	Logger    LoggerConfig   `yaml:"logger"`
	Tracing   TracingConfig  `yaml:"tracing"`
	JWTSecret string         `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
