package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func setSingleEnvironment(t *testing.T) {
	unsetEnv(t, "DAGPAY_ENVIRONMENTS")
	unsetEnv(t, "DAGPAY_ENVIRONMENT")
	unsetEnv(t, "DAGPAY_DEFAULT_ENVIRONMENT")
	setEnv(t, "DAGPAY_API_BASE_URL", "https://test-api.dagpay.example")
	setEnv(t, "DAGPAY_USER_ID", "user-1")
	setEnv(t, "DAGPAY_ENVIRONMENT_ID", "env-1")
	setEnv(t, "DAGPAY_SECRET", "topsecret")
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	unsetEnv(t, "MYSQL_DSN")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MYSQL_DSN")
	}
}

func TestLoadRequiresDagpayCredentials(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/dagpay?parseTime=true")
	setSingleEnvironment(t)
	unsetEnv(t, "DAGPAY_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DAGPAY_SECRET")
	}
}

func TestLoadRequiresCertificatesWithSSL(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/dagpay?parseTime=true")
	setSingleEnvironment(t)
	setEnv(t, "SERVER_USE_SSL", "true")
	unsetEnv(t, "SERVER_CERT")
	unsetEnv(t, "SERVER_KEY")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing certificate paths")
	}
}

func TestLoadSingleEnvironmentDefaults(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/dagpay?parseTime=true")
	setSingleEnvironment(t)
	unsetEnv(t, "HTTP_PORT")
	setEnv(t, "SERVER_PORT", "3000")
	unsetEnv(t, "SERVER_USE_SSL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTP.Port != "3000" {
		t.Fatalf("expected SERVER_PORT fallback, got %s", cfg.HTTP.Port)
	}
	if cfg.TLS.Enabled {
		t.Fatal("expected TLS disabled by default")
	}
	if len(cfg.Dagpay.Environments) != 1 {
		t.Fatalf("expected one environment, got %d", len(cfg.Dagpay.Environments))
	}
	env := cfg.Dagpay.Environments[0]
	if env.Name != "test" || env.UserID != "user-1" || env.EnvironmentID != "env-1" || env.Secret != "topsecret" {
		t.Fatalf("unexpected environment: %+v", env)
	}
	if cfg.Dagpay.DefaultEnvironment != "test" {
		t.Fatalf("unexpected default environment: %s", cfg.Dagpay.DefaultEnvironment)
	}
	if cfg.Dagpay.Currency != "DAG" {
		t.Fatalf("unexpected currency: %s", cfg.Dagpay.Currency)
	}
	if cfg.Dagpay.ReplayTTL != time.Hour {
		t.Fatalf("unexpected replay ttl: %v", cfg.Dagpay.ReplayTTL)
	}
}

func TestLoadMultipleEnvironmentsAndOverrides(t *testing.T) {
	setEnv(t, "MYSQL_DSN", "root:root@tcp(localhost:3306)/dagpay?parseTime=true")
	setEnv(t, "DAGPAY_ENVIRONMENTS", "live, test")
	setEnv(t, "DAGPAY_LIVE_API_BASE_URL", "https://api.dagpay.example")
	setEnv(t, "DAGPAY_LIVE_USER_ID", "user-live")
	setEnv(t, "DAGPAY_LIVE_ENVIRONMENT_ID", "env-live")
	setEnv(t, "DAGPAY_LIVE_SECRET", "live-secret")
	setEnv(t, "DAGPAY_TEST_API_BASE_URL", "https://test-api.dagpay.example")
	setEnv(t, "DAGPAY_TEST_USER_ID", "user-test")
	setEnv(t, "DAGPAY_TEST_ENVIRONMENT_ID", "env-test")
	setEnv(t, "DAGPAY_TEST_SECRET", "test-secret")
	setEnv(t, "DAGPAY_DEFAULT_ENVIRONMENT", "test")
	setEnv(t, "DAGPAY_HTTP_TIMEOUT_SECONDS", "3")
	setEnv(t, "DAGPAY_RECONCILE_STALE_AFTER_MINUTES", "7")
	setEnv(t, "DAGPAY_JOB_BATCH_SIZE", "25")
	setEnv(t, "HTTP_PORT", "8181")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(cfg.Dagpay.Environments) != 2 {
		t.Fatalf("expected two environments, got %d", len(cfg.Dagpay.Environments))
	}
	if cfg.Dagpay.Environments[0].Name != "live" || cfg.Dagpay.Environments[0].Secret != "live-secret" {
		t.Fatalf("unexpected live environment: %+v", cfg.Dagpay.Environments[0])
	}
	if cfg.Dagpay.Environments[1].EnvironmentID != "env-test" {
		t.Fatalf("unexpected test environment: %+v", cfg.Dagpay.Environments[1])
	}
	if cfg.Dagpay.DefaultEnvironment != "test" {
		t.Fatalf("unexpected default environment: %s", cfg.Dagpay.DefaultEnvironment)
	}
	if cfg.Dagpay.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected http timeout: %v", cfg.Dagpay.HTTPTimeout)
	}
	if cfg.Jobs.ReconcileStaleAfter != 7*time.Minute || cfg.Jobs.BatchSize != 25 {
		t.Fatalf("unexpected jobs config: %+v", cfg.Jobs)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected http port: %s", cfg.HTTP.Port)
	}
}
