package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/bullpen/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.LoadFile(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Trials, convey.ShouldEqual, 100_000)
				convey.So(cfg.LowerPercentile, convey.ShouldEqual, 0.10)
				convey.So(cfg.UpperPercentile, convey.ShouldEqual, 0.90)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			defer setEnv(map[string]string{
				"BULLPEN_ADDR":               ":8080",
				"BULLPEN_TRIALS":             "5000",
				"BULLPEN_SEED":               "42",
				"BULLPEN_DETAIL_POLICY":      "skip",
				"BULLPEN_DETAIL_RETRY_DELAY": "250ms",
			})()

			cfg, err := config.LoadFile(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Trials, convey.ShouldEqual, 5000)
				convey.So(cfg.Seed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.DetailPolicy, convey.ShouldEqual, config.DetailPolicySkip)
				convey.So(cfg.DetailRetryDelay, convey.ShouldEqual, 250*time.Millisecond)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := filepath.Join(t.TempDir(), "bullpen.yaml")
			yaml := []byte("trials: 2000\nstart_season: 2023\nend_season: 2024\nredis_addr: localhost:6379\nmodel_weights:\n  diff_ops: 2.5\n")
			convey.So(os.WriteFile(path, yaml, 0o600), convey.ShouldBeNil)

			cfg, err := config.LoadFile(ctx, path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Trials, convey.ShouldEqual, 2000)
				convey.So(cfg.StartSeason, convey.ShouldEqual, 2023)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.ModelWeights["diff_ops"], convey.ShouldEqual, 2.5)
			})

			convey.Convey("And env still wins over the file", func() {
				defer setEnv(map[string]string{"BULLPEN_TRIALS": "3000"})()
				cfg, err := config.LoadFile(ctx, path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Trials, convey.ShouldEqual, 3000)
			})
		})

		convey.Convey("When the file is missing", func() {
			_, err := config.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When env produces an invalid config", func() {
			defer setEnv(map[string]string{"BULLPEN_TRIALS": "0"})()
			_, err := config.Load(ctx)

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// setEnv sets the variables and returns a func that unsets them.
func setEnv(vars map[string]string) func() {
	for k, v := range vars {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range vars {
			_ = os.Unsetenv(k)
		}
	}
}
