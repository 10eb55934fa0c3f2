package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"namearena/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given defaults", t, func() {
		cfg := config.New(context.Background())

		Convey("Then the rating bands are sane", func() {
			So(cfg.EloMinRating, ShouldBeLessThan, cfg.EloMaxRating)
			So(cfg.BlendMinRating, ShouldBeLessThan, cfg.BlendMaxRating)
			So(cfg.InitialRating, ShouldBeBetweenOrEqual, cfg.EloMinRating, cfg.EloMaxRating)
		})

		Convey("Then the service defaults are populated", func() {
			So(cfg.Addr, ShouldNotBeBlank)
			So(cfg.Store, ShouldEqual, "memory")
			So(cfg.MaxTournamentItems, ShouldEqual, 64)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		unset := clearEnv("NAMEARENA_CONFIG", "NAMEARENA_ADDR", "NAMEARENA_STORE", "NAMEARENA_ELO_K_FACTOR")
		defer unset()

		Convey("When nothing overrides the defaults", func() {
			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
		})

		Convey("When env vars override", func() {
			So(os.Setenv("NAMEARENA_ADDR", ":7070"), ShouldBeNil)
			So(os.Setenv("NAMEARENA_ELO_K_FACTOR", "24"), ShouldBeNil)

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.EloKFactor, ShouldEqual, 24)
		})

		Convey("When a YAML file provides values and env overrides them", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			So(os.WriteFile(path, []byte("addr: \":6060\"\nstore: sqlite\n"), 0o600), ShouldBeNil)
			So(os.Setenv("NAMEARENA_CONFIG", path), ShouldBeNil)
			So(os.Setenv("NAMEARENA_ADDR", ":6061"), ShouldBeNil)

			cfg, err := config.Load(context.Background())
			So(err, ShouldBeNil)
			So(cfg.Store, ShouldEqual, "sqlite")
			So(cfg.Addr, ShouldEqual, ":6061")
		})

		Convey("When the store backend is unknown", func() {
			So(os.Setenv("NAMEARENA_STORE", "papyrus"), ShouldBeNil)

			_, err := config.Load(context.Background())
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

// clearEnv unsets the given vars and returns a restore func.
func clearEnv(keys ...string) func() {
	saved := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			saved[k] = v
		}
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range keys {
			if v, ok := saved[k]; ok {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	}
}
