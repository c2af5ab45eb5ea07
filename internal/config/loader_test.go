package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/artloop/sketchduel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Store, convey.ShouldEqual, "memory")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 100)
				convey.So(cfg.LookupLimit, convey.ShouldEqual, 100)
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			// Set environment variables
			_ = os.Setenv("SKETCHDUEL_ADDR", ":8080")
			_ = os.Setenv("SKETCHDUEL_STORE", "redis")
			_ = os.Setenv("SKETCHDUEL_REDIS_ADDR", "redis.internal:6380")
			_ = os.Setenv("SKETCHDUEL_BATCH_SIZE", "32")
			_ = os.Setenv("SKETCHDUEL_LOOKUP_LIMIT", "64")
			_ = os.Setenv("SKETCHDUEL_DEDUPE_SIZE", "25000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "redis.internal:6380")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 32)
				convey.So(cfg.LookupLimit, convey.ShouldEqual, 64)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 25000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			// Create a temporary YAML config file
			yamlContent := `
addr: ":9090"
store: "memory"
shard_count: 8
batch_size: 50
lookup_limit: 25
store_timeout_ms: 2000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set the config file path
			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 8)
				convey.So(cfg.BatchSize, convey.ShouldEqual, 50)
				convey.So(cfg.LookupLimit, convey.ShouldEqual, 25)
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 2000)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
batch_size: 50
lookup_limit: 25
dedupe_size: 60000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			// Set both file and environment variables
			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			_ = os.Setenv("SKETCHDUEL_ADDR", ":8080")      // This should override the file
			_ = os.Setenv("SKETCHDUEL_BATCH_SIZE", "200") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")       // Overridden by env
				convey.So(cfg.BatchSize, convey.ShouldEqual, 200)      // Overridden by env
				convey.So(cfg.LookupLimit, convey.ShouldEqual, 25)     // From file
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 60000)   // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SKETCHDUEL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SKETCHDUEL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store backend", func() {
			_ = os.Setenv("SKETCHDUEL_STORE", "etcd")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "unknown store backend")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with partial YAML file", func() {
			yamlContent := `
addr: ":9090"
batch_size: 16
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should merge with defaults for missing fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")          // From file
				convey.So(cfg.BatchSize, convey.ShouldEqual, 16)          // From file
				convey.So(cfg.Store, convey.ShouldEqual, "memory")        // From defaults
				convey.So(cfg.LookupLimit, convey.ShouldEqual, 100)       // From defaults
				convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 5000)   // From defaults
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)     // From defaults
			})
		})

		convey.Convey("When loading config with prompt overrides from YAML", func() {
			yamlContent := `
prompts:
  - "a lighthouse in fog"
  - "two cats sharing an umbrella"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should replace the prompt list", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Prompts, convey.ShouldResemble, []string{
					"a lighthouse in fog",
					"two cats sharing an umbrella",
				})
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SKETCHDUEL_BATCH_SIZE", "invalid")
			_ = os.Setenv("SKETCHDUEL_LOOKUP_LIMIT", "not_a_number")
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

		convey.Convey("When loading config with very large values", func() {
			_ = os.Setenv("SKETCHDUEL_BATCH_SIZE", "100000")
			_ = os.Setenv("SKETCHDUEL_DEDUPE_SIZE", "2000000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should handle large values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.BatchSize, convey.ShouldEqual, 100000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 2000000)
			})
		})

		convey.Convey("When loading config with special characters in addr", func() {
			_ = os.Setenv("SKETCHDUEL_ADDR", "localhost:8080")
			_ = os.Setenv("SKETCHDUEL_ADDR", "0.0.0.0:9090")
			_ = os.Setenv("SKETCHDUEL_ADDR", "[::1]:8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should handle various addr formats", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "[::1]:8080") // Last one wins
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# This is a comment
addr: ":9090"  # Inline comment
batch_size: 50
# Another comment
dedupe_size: 60000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 50)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 60000)
			})
		})

		convey.Convey("When loading config with YAML file containing empty addr", func() {
			yamlContent := `
addr: ""
batch_size: 50
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SKETCHDUEL_CONFIG", tmpFile)
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
		"SKETCHDUEL_CONFIG",
		"SKETCHDUEL_ADDR",
		"SKETCHDUEL_STORE",
		"SKETCHDUEL_REDIS_ADDR",
		"SKETCHDUEL_SHARD_COUNT",
		"SKETCHDUEL_BATCH_SIZE",
		"SKETCHDUEL_LOOKUP_LIMIT",
		"SKETCHDUEL_STORE_TIMEOUT_MS",
		"SKETCHDUEL_DEDUPE_SIZE",
		"SKETCHDUEL_MAX_LIST_LIMIT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "sketchduel-config-*.yaml")
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
