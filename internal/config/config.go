// Package config loads zoediagd's YAML configuration: transport backend,
// adapter tunables, HTTP server, vehicle thresholds, and the datastore
// sinks, the same top-level shape the teacher's config.yaml used.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"zoeuds/internal/adapter"
	"zoeuds/internal/transport"
)

type Config struct {
	Transport struct {
		Type     string `yaml:"type"`
		Address  string `yaml:"address"`
		BaudRate int    `yaml:"baudRate"`
	} `yaml:"transport"`

	Tunables struct {
		ELMTimeoutS          float64        `yaml:"elm_timeout_s"`
		CmdSleepMS           int            `yaml:"cmd_sleep_ms"`
		CAF                  int            `yaml:"caf"`
		FCStminMS            int            `yaml:"fc_stmin_ms"`
		HeaderSettleMS       int            `yaml:"header_settle_ms"`
		DelayBefore21MS      int            `yaml:"delay_before_21_ms"`
		FirstDelayByReqIDHex map[string]int `yaml:"first_21_delay_by_req_ms"`
		UseMaskFilter        bool           `yaml:"use_mask_filter"`
		FCRetryEnabled       *bool          `yaml:"fc_retry_enabled"`
		ISOTPCollectS        float64        `yaml:"isotp_collect_timeout_s"`
		CFReadTimeoutS       float64        `yaml:"cf_read_timeout_s"`
		TesterPresentEveryMS int            `yaml:"tester_present_interval_ms"`
		ATST                 string         `yaml:"atst_hex"`
	} `yaml:"tunables"`

	Testing struct {
		UseMockData bool   `yaml:"useMockData"`
		UseTestTCP  bool   `yaml:"useTestTCP"`
		TCPAddress  string `yaml:"tcpAddress"`
	} `yaml:"testing"`

	Capture struct {
		Enabled  bool   `yaml:"enabled"`
		Filename string `yaml:"filename"`
	} `yaml:"capture"`

	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Datastore struct {
		SQLite struct {
			Path string `yaml:"path"`
		} `yaml:"sqlite"`
		InfluxDB struct {
			URL    string `yaml:"url"`
			Org    string `yaml:"org"`
			Bucket string `yaml:"bucket"`
			Token  string `yaml:"token"`
		} `yaml:"influxdb"`
	} `yaml:"datastore"`

	Vehicle struct {
		VIN   string `yaml:"vin"`
		Make  string `yaml:"make"`
		Model string `yaml:"model"`
		Year  int    `yaml:"year"`

		DefaultThresholds struct {
			SOCLowPct       float64 `yaml:"soc_low_pct"`
			PackVoltageMinV float64 `yaml:"pack_voltage_min_v"`
			BatteryTempMaxC float64 `yaml:"battery_temp_max_c"`
		} `yaml:"default_thresholds"`
	} `yaml:"vehicle"`

	PollIntervalMS int `yaml:"poll_interval_ms"`
}

// LoadConfig reads and parses the YAML file at filename.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &cfg, nil
}

// TransportConfig resolves the effective transport.Config, honoring the
// Testing overrides the way the teacher's GetTransportConfig did.
func (c *Config) TransportConfig() transport.Config {
	if c.Testing.UseTestTCP {
		return transport.Config{Type: "tcp", Address: c.Testing.TCPAddress}
	}
	if c.Testing.UseMockData {
		return transport.Config{Type: "mock"}
	}
	return transport.Config{
		Type:     c.Transport.Type,
		Address:  c.Transport.Address,
		BaudRate: c.Transport.BaudRate,
	}
}

// AdapterTunables resolves the effective adapter.Tunables, starting from
// DefaultTunables and overriding only the fields present in the file
// (zero/empty means "use the default").
func (c *Config) AdapterTunables() adapter.Tunables {
	tun := adapter.DefaultTunables()

	t := c.Tunables
	if t.ELMTimeoutS > 0 {
		tun.ELMTimeout = time.Duration(t.ELMTimeoutS * float64(time.Second))
	}
	if t.CmdSleepMS > 0 {
		tun.CmdSleep = time.Duration(t.CmdSleepMS) * time.Millisecond
	}
	tun.CAF = t.CAF
	if t.FCStminMS > 0 {
		tun.FCStminMS = t.FCStminMS
	}
	if t.HeaderSettleMS > 0 {
		tun.HeaderSettle = time.Duration(t.HeaderSettleMS) * time.Millisecond
	}
	if t.DelayBefore21MS > 0 {
		tun.DelayBefore21 = time.Duration(t.DelayBefore21MS) * time.Millisecond
	}
	tun.UseMaskFilter = t.UseMaskFilter
	if t.FCRetryEnabled != nil {
		tun.FCRetryEnabled = *t.FCRetryEnabled
	}
	if t.ISOTPCollectS > 0 {
		tun.ISOTPCollect = time.Duration(t.ISOTPCollectS * float64(time.Second))
	}
	if t.CFReadTimeoutS > 0 {
		tun.CFReadTimeout = time.Duration(t.CFReadTimeoutS * float64(time.Second))
	}
	if t.TesterPresentEveryMS > 0 {
		tun.TesterPresentEvery = time.Duration(t.TesterPresentEveryMS) * time.Millisecond
	}
	tun.ATST = t.ATST

	if len(t.FirstDelayByReqIDHex) > 0 {
		tun.FirstDelayByReqID = map[uint16]time.Duration{}
		for hexID, ms := range t.FirstDelayByReqIDHex {
			id, err := parseHexCANID(hexID)
			if err != nil {
				continue
			}
			tun.FirstDelayByReqID[id] = time.Duration(ms) * time.Millisecond
		}
	}

	return tun
}

func parseHexCANID(s string) (uint16, error) {
	var v uint16
	_, err := fmt.Sscanf(s, "%x", &v)
	return v, err
}

// PollInterval resolves the configured field-polling period, defaulting to
// 250ms when unset.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
