package internal

import (
	"fmt"
	"time"

	"pair-chat/auth"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host        string `env:"HOST,default=0.0.0.0"`
	Port        int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	AdminPort   int    `env:"ADMIN_PORT,default=8081" validate:"min=0,max=65535"`
	HealthPort  int    `env:"HEALTH_PORT,default=8082" validate:"min=0,max=65535"`
	InspectPort int    `env:"INSPECT_PORT,default=0" validate:"min=0,max=65535"` // badger debug inspector, 0 disables it
	LogLevel    string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger" validate:"required"`

	OutboxSize         int           `env:"OUTBOX_SIZE,default=64" validate:"min=1"`
	RecorderBufferSize int           `env:"RECORDER_BUFFER_SIZE,default=1024" validate:"min=1"`
	SinkTimeout        time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	PresenceInterval   time.Duration `env:"PRESENCE_INTERVAL,default=5s"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	OnlineFloor        int           `env:"ONLINE_FLOOR,default=0" validate:"min=0"`
	OnlineJitter       int           `env:"ONLINE_JITTER,default=0" validate:"min=0"`

	MaxMessageSize int64         `env:"MAX_MESSAGE_SIZE,default=4096" validate:"min=1"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout    time.Duration `env:"PONG_TIMEOUT,default=60s"`
	AllowedOrigin  string        `env:"ALLOWED_ORIGIN"`

	AdminPasswordHash  string        `env:"ADMIN_PASSWORD_HASH"`
	AdminTokenSecret   string        `env:"ADMIN_TOKEN_SECRET" validate:"required_with=AdminPasswordHash,omitempty,min=16"`
	AdminTokenDuration time.Duration `env:"ADMIN_TOKEN_DURATION,default=1h"`
	AdminListLimit     int           `env:"ADMIN_LIST_LIMIT,default=50" validate:"min=1"`
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := auth.ValidateStruct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// AdminEnabled reports whether the admin surface should be served.
func (c Config) AdminEnabled() bool {
	return c.AdminPort > 0 && c.AdminPasswordHash != ""
}

func (c Config) Address(port int) string {
	return fmt.Sprintf("%s:%d", c.Host, port)
}
