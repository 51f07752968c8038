package config

import (
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	ServerHost string `env:"GAME_SERVER_HOST" envDefault:"192.168.1.119"`
	ServerPort int    `env:"GAME_SERVER_PORT" envDefault:"5555"`
	Transport  string `env:"GAME_TRANSPORT" envDefault:"tcp"`
	WSPath     string `env:"GAME_WS_PATH" envDefault:"/connect"`

	DiscoveryGroup   string        `env:"GAME_DISCOVERY_GROUP" envDefault:"224.1.1.1"`
	DiscoveryPort    int           `env:"GAME_DISCOVERY_PORT" envDefault:"4444"`
	DiscoveryTimeout time.Duration `env:"GAME_DISCOVERY_TIMEOUT" envDefault:"2s"`

	IOTimeout     time.Duration `env:"GAME_IO_TIMEOUT" envDefault:"10s"`
	TickRate      int           `env:"GAME_TICK_RATE" envDefault:"70"`
	DecodeRetries int           `env:"GAME_DECODE_RETRIES" envDefault:"1"`

	PlayerName string `env:"GAME_PLAYER_NAME"`
	CursorX    int    `env:"GAME_CURSOR_X" envDefault:"600"`
	CursorY    int    `env:"GAME_CURSOR_Y" envDefault:"415"`
	Wander     bool   `env:"GAME_WANDER" envDefault:"false"`

	LogJSON  bool   `env:"GAME_LOG_JSON" envDefault:"false"`
	LogLevel string `env:"GAME_LOG_LEVEL" envDefault:"info"`

	NatsURL        string `env:"GAME_NATS_URL"`
	ReplayRedisURL string `env:"GAME_REPLAY_REDIS_URL"`
	ReplaySession  string `env:"GAME_REPLAY_SESSION"`
	HealthAddr     string `env:"GAME_HEALTH_ADDR"`

	LocalAuthority bool `env:"GAME_LOCAL_AUTHORITY" envDefault:"false"`
}

// Init loads an optional .env file and parses the environment.
func Init() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded")
	}

	conf, err := Parse()
	if err != nil {
		log.WithError(err).Fatal("Failed to parse config")
	}

	return conf
}

func Parse() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

func (c Config) ServerAddr() string {
	return net.JoinHostPort(c.ServerHost, strconv.Itoa(c.ServerPort))
}

func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 70
	}
	return time.Second / time.Duration(c.TickRate)
}
