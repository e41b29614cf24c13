package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/okian/perfil/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PERFIL_ADDR", ":8080")
			_ = os.Setenv("PERFIL_QUEUE_SIZE", "5000")
			_ = os.Setenv("PERFIL_WORKER_COUNT", "16")
			_ = os.Setenv("PERFIL_CACHE_SIZE", "250")
			_ = os.Setenv("PERFIL_LOG_FORMAT", "json")
			_ = os.Setenv("PERFIL_AI_MODEL", "gemini-2.5-pro")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 5000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 250)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.AIModel, convey.ShouldEqual, "gemini-2.5-pro")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
worker_count: 24
store_driver: sqlite
store_dsn: "file:perfil.db"
mail_provider: sendgrid
mail_api_key: sg-test
mail_from: teachers@example.com
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERFIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 24)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:perfil.db")
				convey.So(cfg.MailProvider, convey.ShouldEqual, "sendgrid")
				convey.So(cfg.MailFrom, convey.ShouldEqual, "teachers@example.com")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
worker_count: 24
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERFIL_CONFIG", tmpFile)
			_ = os.Setenv("PERFIL_ADDR", ":8080")
			_ = os.Setenv("PERFIL_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 10_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERFIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PERFIL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PERFIL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading a SQL driver without a DSN", func() {
			_ = os.Setenv("PERFIL_STORE_DRIVER", "pgx")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PERFIL_QUEUE_SIZE", "invalid")
			_ = os.Setenv("PERFIL_WORKER_COUNT", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with zero values", func() {
			_ = os.Setenv("PERFIL_QUEUE_SIZE", "0")
			_ = os.Setenv("PERFIL_CACHE_SIZE", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should keep them for the service to default", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 0)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			tmpFile := createTempConfigFile(`
# This is a comment
addr: ":9090"  # Inline comment
queue_size: 300
# Another comment
cache_size: 64
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERFIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.CacheSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with YAML file containing an empty addr", func() {
			tmpFile := createTempConfigFile(`
addr: ""
worker_count: 24
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PERFIL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error for empty addr", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"PERFIL_CONFIG",
		"PERFIL_ADDR",
		"PERFIL_QUEUE_SIZE",
		"PERFIL_WORKER_COUNT",
		"PERFIL_CACHE_SIZE",
		"PERFIL_LOG_FORMAT",
		"PERFIL_AI_MODEL",
		"PERFIL_STORE_DRIVER",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "perfil-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
