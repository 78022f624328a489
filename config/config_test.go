package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestLoad(t *testing.T) {
	convey.Convey("With no arguments and an empty environment", t, func() {
		cfg, err := Load(nil, envOf(nil))

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Address, convey.ShouldEqual, DefaultAddress)
		convey.So(cfg.PublicPath, convey.ShouldEqual, DefaultPublicPath)
		convey.So(cfg.Transport, convey.ShouldEqual, DefaultTransport)
		convey.So(cfg.LogLevel, convey.ShouldEqual, DefaultLogLevel)
	})

	convey.Convey("The first positional argument is the address", t, func() {
		cfg, err := Load([]string{"0.0.0.0:9000"}, envOf(nil))

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Address, convey.ShouldEqual, "0.0.0.0:9000")
	})

	convey.Convey("Arguments after the address are rejected", t, func() {
		_, err := Load([]string{"127.0.0.1:9000", "-public", "./site"}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "-public")

		_, err = Load([]string{"127.0.0.1:9000", "extra"}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Flags before the address still apply", t, func() {
		cfg, err := Load([]string{"-public", "./site", "127.0.0.1:9000"}, envOf(nil))
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.PublicPath, convey.ShouldEqual, "./site")
		convey.So(cfg.Address, convey.ShouldEqual, "127.0.0.1:9000")
	})

	convey.Convey("PUBLIC_PATH selects the served directory", t, func() {
		cfg, err := Load(nil, envOf(map[string]string{EnvPublicPath: "/srv/www"}))

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.PublicPath, convey.ShouldEqual, "/srv/www")
	})

	convey.Convey("Given an ini file", t, func() {
		path := filepath.Join(t.TempDir(), "httpd.conf")
		content := "address = 127.0.0.1:7000\npublic_path = /from/file\ntransport = uring\nlog_level = debug\n"
		convey.So(os.WriteFile(path, []byte(content), 0o644), convey.ShouldBeNil)

		convey.Convey("Its values replace the defaults", func() {
			cfg, err := Load([]string{"-config", path}, envOf(nil))

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Address, convey.ShouldEqual, "127.0.0.1:7000")
			convey.So(cfg.PublicPath, convey.ShouldEqual, "/from/file")
			convey.So(cfg.Transport, convey.ShouldEqual, "uring")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
		})

		convey.Convey("The environment overrides the file", func() {
			cfg, err := Load([]string{"-config", path}, envOf(map[string]string{
				EnvPublicPath: "/from/env",
				EnvTransport:  "tcp",
			}))

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.PublicPath, convey.ShouldEqual, "/from/env")
			convey.So(cfg.Transport, convey.ShouldEqual, "tcp")
			convey.So(cfg.Address, convey.ShouldEqual, "127.0.0.1:7000")
		})

		convey.Convey("Flags override the environment, the positional address overrides flags", func() {
			cfg, err := Load(
				[]string{"-config", path, "-public", "/from/flag", "-address", "127.0.0.1:1", "127.0.0.1:2"},
				envOf(map[string]string{EnvPublicPath: "/from/env", EnvAddress: "127.0.0.1:3"}),
			)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.PublicPath, convey.ShouldEqual, "/from/flag")
			convey.So(cfg.Address, convey.ShouldEqual, "127.0.0.1:2")
		})
	})

	convey.Convey("A missing ini file is an error", t, func() {
		_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "nope.conf")}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Invalid values are rejected", t, func() {
		_, err := Load([]string{"-transport", "carrier-pigeon"}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Load([]string{"-log-level", "shouting"}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)

		_, err = Load([]string{"-no-such-flag"}, envOf(nil))
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("A nil getenv is allowed", t, func() {
		cfg, err := Load(nil, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Address, convey.ShouldEqual, DefaultAddress)
	})
}
