package auth_api_config

import (
	"time"

	"github.com/NordCoder/Tokenus/internal/obs"
	pg "github.com/NordCoder/Tokenus/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

func (a *App) IsDev() bool { return a.Env != "prod" }

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Auth holds the token core settings. The two secrets must be distinct; the
// loader refuses a config where one could stand in for the other.
type Auth struct {
	AccessSecret     string        `mapstructure:"access_secret"`
	RefreshSecret    string        `mapstructure:"refresh_secret"`
	AccessTTL        time.Duration `mapstructure:"access_ttl"`
	RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
	MobileRefreshTTL time.Duration `mapstructure:"mobile_refresh_ttl"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	CookieName       string        `mapstructure:"cookie_name"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	CookiePath       string        `mapstructure:"cookie_path"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
}

type CORS struct {
	Origins []string `mapstructure:"origins"`
}

type RateLimit struct {
	Enable bool    `mapstructure:"enable"`
	RPS    float64 `mapstructure:"rps"`
	Burst  int     `mapstructure:"burst"`
}

type Kafka struct {
	Enable  bool     `mapstructure:"enable"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Server    Server    `mapstructure:"server"`
	DB        pg.Config `mapstructure:"db"`
	OTEL      OTEL      `mapstructure:"otel"`
	Log       Log       `mapstructure:"log"`
	Auth      Auth      `mapstructure:"auth"`
	CORS      CORS      `mapstructure:"cors"`
	RateLimit RateLimit `mapstructure:"rate_limit"`
	Kafka     Kafka     `mapstructure:"kafka"`
}
