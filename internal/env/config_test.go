package env_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/meshlink/internal/env"
)

var _ = Describe("env", func() {
	var (
		ctx     context.Context
		dir     string
		restore []func()
	)

	setenv := func(key, value string) {
		old, had := os.LookupEnv(key)
		Expect(os.Setenv(key, value)).To(Succeed())

		restore = append(restore, func() {
			if had {
				os.Setenv(key, old)
			} else {
				os.Unsetenv(key)
			}
		})
	}

	writeConfig := func(contents string) string {
		path := filepath.Join(dir, "meshlink.toml")
		Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		dir, err = os.MkdirTemp("", "meshlink-env")
		Expect(err).To(Succeed())
	})

	AfterEach(func() {
		for _, fn := range restore {
			fn()
		}
		restore = nil

		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	Describe("LoadConfig", func() {
		It("applies defaults", func() {
			conf, err := env.LoadConfig(ctx, "")
			Expect(err).To(Succeed())

			Expect(conf.BaudRate).To(Equal(9600))
			Expect(conf.QueryTimeout).To(Equal(5 * time.Second))
			Expect(conf.DiscoveryWindow).To(Equal(6 * time.Second))
			Expect(conf.LogLevel).To(Equal("info"))
			Expect(conf.HTTPPort).To(Equal("7362"))
		})

		It("reads the config file", func() {
			path := writeConfig(`
port = "/dev/ttyUSB1"
baud_rate = 57600
escaped = true
query_timeout = "2s"
`)

			conf, err := env.LoadConfig(ctx, path)
			Expect(err).To(Succeed())

			Expect(conf.Port).To(Equal("/dev/ttyUSB1"))
			Expect(conf.BaudRate).To(Equal(57600))
			Expect(conf.Escaped).To(BeTrue())
			Expect(conf.QueryTimeout).To(Equal(2 * time.Second))
			Expect(conf.DiscoveryWindow).To(Equal(6 * time.Second))
		})

		It("finds the config file through the environment", func() {
			setenv(env.ConfigFileEnv, writeConfig(`address = "10.0.0.5:4001"`))

			conf, err := env.LoadConfig(ctx, "")
			Expect(err).To(Succeed())
			Expect(conf.Address).To(Equal("10.0.0.5:4001"))
		})

		It("lets the environment override the config file", func() {
			path := writeConfig(`
port = "/dev/ttyUSB1"
baud_rate = 57600
`)
			setenv("MESHLINK_BAUD_RATE", "115200")

			conf, err := env.LoadConfig(ctx, path)
			Expect(err).To(Succeed())
			Expect(conf.Port).To(Equal("/dev/ttyUSB1"))
			Expect(conf.BaudRate).To(Equal(115200))
		})

		It("fails on a broken config file", func() {
			_, err := env.LoadConfig(ctx, writeConfig(`port = `))
			Expect(err).To(HaveOccurred())
		})

		It("fails on a missing config file", func() {
			_, err := env.LoadConfig(ctx, filepath.Join(dir, "missing.toml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		valid := func() *env.Config {
			return &env.Config{
				Port:            "/dev/ttyUSB0",
				BaudRate:        9600,
				QueryTimeout:    time.Second,
				DiscoveryWindow: time.Second,
			}
		}

		It("accepts a serial port", func() {
			Expect(valid().Validate()).To(Succeed())
		})

		It("accepts a bridge address", func() {
			conf := valid()
			conf.Port = ""
			conf.Address = "localhost:4001"
			Expect(conf.Validate()).To(Succeed())
		})

		It("requires something to connect to", func() {
			conf := valid()
			conf.Port = ""
			Expect(conf.Validate()).To(MatchError(env.ErrNoDevice))
		})

		It("rejects non positive timeouts", func() {
			conf := valid()
			conf.QueryTimeout = 0
			Expect(conf.Validate()).To(HaveOccurred())
		})
	})

	Describe("MakeLogger", func() {
		It("rejects unknown levels", func() {
			_, err := env.MakeLogger(&env.Config{LogLevel: "loud"})
			Expect(err).To(HaveOccurred())
		})

		It("writes to the log file when one is configured", func() {
			path := filepath.Join(dir, "meshlink.log")

			log, err := env.MakeLogger(&env.Config{LogLevel: "debug", LogFile: path})
			Expect(err).To(Succeed())

			log.Debug("Hello from the test")
			_ = log.Sync()

			Eventually(func() (string, error) {
				b, err := os.ReadFile(path)
				return string(b), err
			}).Should(ContainSubstring("Hello from the test"))
		})
	})
})
