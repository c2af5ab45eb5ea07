package config_test

import (
	"context"
	"testing"

	"github.com/artloop/sketchduel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Store, convey.ShouldEqual, "memory")
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.BatchSize, convey.ShouldEqual, 100)
			convey.So(cfg.LookupLimit, convey.ShouldEqual, 100)
			convey.So(cfg.StoreTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MaxListLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Prompts, convey.ShouldBeEmpty)
		})
	})
}
