package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	TLS               TLSConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Dagpay            DagpayConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type EnvironmentConfig struct {
	Name          string
	APIBaseURL    string
	UserID        string
	EnvironmentID string
	Secret        string
}

type DagpayConfig struct {
	Environments       []EnvironmentConfig
	DefaultEnvironment string
	Currency           string
	HTTPTimeout        time.Duration
	ReplayTTL          time.Duration
}

type JobsConfig struct {
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration
	BatchSize           int32
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	tlsEnabled := getBoolEnv("SERVER_USE_SSL", false)
	tlsCfg := TLSConfig{
		Enabled:  tlsEnabled,
		CertFile: getEnv("SERVER_CERT", ""),
		KeyFile:  getEnv("SERVER_KEY", ""),
	}
	if tlsCfg.Enabled && (tlsCfg.CertFile == "" || tlsCfg.KeyFile == "") {
		return nil, errors.New("SERVER_CERT and SERVER_KEY are required when SERVER_USE_SSL=true")
	}

	dagpayCfg, err := loadDagpay()
	if err != nil {
		return nil, err
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "dagpay-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", getEnv("SERVER_PORT", "8080")),
		},
		TLS: tlsCfg,
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Dagpay: *dagpayCfg,
		Jobs: JobsConfig{
			ReconcileInterval:   getMinutesEnv("DAGPAY_RECONCILE_INTERVAL_MINUTES", 5*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("DAGPAY_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			BatchSize:           int32(getIntEnv("DAGPAY_JOB_BATCH_SIZE", 100)),
		},
	}, nil
}

// LoadDagpay loads only the gateway section. Offline tools use it so they do
// not need database settings.
func LoadDagpay() (*DagpayConfig, error) {
	_ = godotenv.Load()
	return loadDagpay()
}

func loadDagpay() (*DagpayConfig, error) {
	environments, err := loadEnvironments()
	if err != nil {
		return nil, err
	}

	defaultEnvironment := getEnv("DAGPAY_DEFAULT_ENVIRONMENT", environments[0].Name)

	return &DagpayConfig{
		Environments:       environments,
		DefaultEnvironment: defaultEnvironment,
		Currency:           strings.ToUpper(getEnv("DAGPAY_CURRENCY", "DAG")),
		HTTPTimeout:        getSecondsEnv("DAGPAY_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		ReplayTTL:          getMinutesEnv("DAGPAY_REPLAY_TTL_MINUTES", 60*time.Minute),
	}, nil
}

func loadEnvironments() ([]EnvironmentConfig, error) {
	names := splitList(os.Getenv("DAGPAY_ENVIRONMENTS"))
	if len(names) == 0 {
		env := EnvironmentConfig{
			Name:          strings.ToLower(getEnv("DAGPAY_ENVIRONMENT", "test")),
			APIBaseURL:    os.Getenv("DAGPAY_API_BASE_URL"),
			UserID:        os.Getenv("DAGPAY_USER_ID"),
			EnvironmentID: os.Getenv("DAGPAY_ENVIRONMENT_ID"),
			Secret:        os.Getenv("DAGPAY_SECRET"),
		}
		if err := requireEnvironment(env, "DAGPAY_"); err != nil {
			return nil, err
		}
		return []EnvironmentConfig{env}, nil
	}

	result := make([]EnvironmentConfig, 0, len(names))
	for _, name := range names {
		prefix := "DAGPAY_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_"
		env := EnvironmentConfig{
			Name:          strings.ToLower(name),
			APIBaseURL:    os.Getenv(prefix + "API_BASE_URL"),
			UserID:        os.Getenv(prefix + "USER_ID"),
			EnvironmentID: os.Getenv(prefix + "ENVIRONMENT_ID"),
			Secret:        os.Getenv(prefix + "SECRET"),
		}
		if err := requireEnvironment(env, prefix); err != nil {
			return nil, err
		}
		result = append(result, env)
	}
	return result, nil
}

func requireEnvironment(env EnvironmentConfig, prefix string) error {
	missing := make([]string, 0, 4)
	if env.APIBaseURL == "" {
		missing = append(missing, prefix+"API_BASE_URL")
	}
	if env.UserID == "" {
		missing = append(missing, prefix+"USER_ID")
	}
	if env.EnvironmentID == "" {
		missing = append(missing, prefix+"ENVIRONMENT_ID")
	}
	if env.Secret == "" {
		missing = append(missing, prefix+"SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("dagpay environment %q is missing %s", env.Name, strings.Join(missing, ", "))
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
