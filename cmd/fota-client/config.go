// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blinklabs-io/gofota/protocol/blockwise"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/transport/coap"
	"github.com/blinklabs-io/gofota/transport/natsbridge"
	"gopkg.in/yaml.v3"
)

const (
	transportCoap = "coap"
	transportNats = "nats"
)

type Config struct {
	Transport    string        `yaml:"transport"`
	Manufacturer string        `yaml:"manufacturer"`
	Model        string        `yaml:"model"`
	Serial       string        `yaml:"serial"`
	ImagePath    string        `yaml:"image"`
	ManifestPath string        `yaml:"manifest"`
	Debug        bool          `yaml:"debug"`
	CheckOnly    bool          `yaml:"checkOnly"`
	Report       ReportConfig  `yaml:"report"`
	Blockwise    BlockConfig   `yaml:"blockwise"`
	Coap         CoapConfig    `yaml:"coap"`
	Nats         NatsConfig    `yaml:"nats"`
	Timeout      time.Duration `yaml:"timeout"`
}

type ReportConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type BlockConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxImageSize uint64        `yaml:"maxImageSize"`
	// RequestRate is the number of block requests per second, 0 for no limit
	RequestRate float64 `yaml:"requestRate"`
}

type CoapConfig struct {
	Address  string `yaml:"address"`
	Network  string `yaml:"network"`
	CertFile string `yaml:"cert"`
	KeyFile  string `yaml:"key"`
	CAFile   string `yaml:"ca"`
}

type NatsConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	CredsFile     string `yaml:"creds"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Transport:    transportCoap,
		Manufacturer: "Lab5e Demo Corp",
		Model:        "model 01",
		Serial:       "0001",
		ImagePath:    sink.DefaultFileName,
		Timeout:      10 * time.Minute,
		Report: ReportConfig{
			Path:    report.DefaultPath,
			Timeout: report.DefaultTimeout * time.Second,
		},
		Blockwise: BlockConfig{
			Timeout:      blockwise.DefaultBlockTimeout * time.Second,
			MaxImageSize: blockwise.DefaultMaxImageSize,
		},
		Coap: CoapConfig{
			Address:  coap.DefaultAddress,
			Network:  string(coap.NetworkDTLS),
			CertFile: "cert.crt",
			KeyFile:  "key.pem",
		},
		Nats: NatsConfig{
			URL:           natsbridge.DefaultURL,
			SubjectPrefix: natsbridge.DefaultSubjectPrefix,
		},
	}
}

// LoadConfigFile merges the YAML file at path into cfg
func (cfg *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) Validate() error {
	switch cfg.Transport {
	case transportCoap:
		switch coap.Network(cfg.Coap.Network) {
		case coap.NetworkUDP, coap.NetworkDTLS:
		default:
			return fmt.Errorf("unknown coap network %q", cfg.Coap.Network)
		}
	case transportNats:
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
	if cfg.ImagePath == "" {
		return errors.New("image path must not be empty")
	}
	return nil
}

type cmdlineFlags struct {
	flagset    *flag.FlagSet
	configFile string
	version    string
	cfg        *Config
}

// newCmdlineFlags registers flags that override the values in cfg. Only
// flags given on the command line are applied, so a config file loaded after
// parsing keeps its values for everything else
func newCmdlineFlags(name string, cfg *Config) *cmdlineFlags {
	f := &cmdlineFlags{
		flagset: flag.NewFlagSet(name, flag.ContinueOnError),
		cfg:     cfg,
	}
	f.flagset.StringVar(&f.configFile, "config", "", "path to YAML config file")
	return f
}

func (f *cmdlineFlags) Parse(args []string) error {
	overrides := NewDefaultConfig()
	fs := f.flagset
	fs.StringVar(&overrides.Transport, "transport", overrides.Transport, "transport to use (coap or nats)")
	fs.StringVar(&overrides.Manufacturer, "manufacturer", overrides.Manufacturer, "manufacturer reported to the server")
	fs.StringVar(&overrides.Model, "model", overrides.Model, "model reported to the server")
	fs.StringVar(&overrides.Serial, "serial", overrides.Serial, "serial number reported to the server")
	fs.StringVar(&overrides.ImagePath, "image", overrides.ImagePath, "where the downloaded image is stored")
	fs.StringVar(&overrides.ManifestPath, "manifest", overrides.ManifestPath, "where the image manifest is stored (disabled if empty)")
	fs.BoolVar(&overrides.Debug, "debug", overrides.Debug, "enable debug logging")
	fs.BoolVar(&overrides.CheckOnly, "check", overrides.CheckOnly, "only check for an update, do not download it")
	fs.DurationVar(&overrides.Timeout, "timeout", overrides.Timeout, "overall time limit")
	fs.StringVar(&overrides.Coap.Address, "address", overrides.Coap.Address, "CoAP server address in host:port format")
	fs.StringVar(&overrides.Coap.Network, "network", overrides.Coap.Network, "CoAP network (udp or dtls)")
	fs.StringVar(&overrides.Coap.CertFile, "cert", overrides.Coap.CertFile, "client certificate (PEM)")
	fs.StringVar(&overrides.Coap.KeyFile, "key", overrides.Coap.KeyFile, "client key (PEM)")
	fs.StringVar(&overrides.Coap.CAFile, "ca", overrides.Coap.CAFile, "CA certificates (PEM), defaults to the client certificate")
	fs.StringVar(&overrides.Nats.URL, "nats-url", overrides.Nats.URL, "NATS server URL")
	fs.StringVar(&overrides.Nats.SubjectPrefix, "nats-prefix", overrides.Nats.SubjectPrefix, "NATS subject prefix")
	fs.StringVar(&overrides.Nats.CredsFile, "nats-creds", overrides.Nats.CredsFile, "NATS user credentials file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one argument: the current firmware version")
	}
	f.version = fs.Arg(0)
	if f.configFile != "" {
		if err := f.cfg.LoadConfigFile(f.configFile); err != nil {
			return err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "transport":
			f.cfg.Transport = overrides.Transport
		case "manufacturer":
			f.cfg.Manufacturer = overrides.Manufacturer
		case "model":
			f.cfg.Model = overrides.Model
		case "serial":
			f.cfg.Serial = overrides.Serial
		case "image":
			f.cfg.ImagePath = overrides.ImagePath
		case "manifest":
			f.cfg.ManifestPath = overrides.ManifestPath
		case "debug":
			f.cfg.Debug = overrides.Debug
		case "check":
			f.cfg.CheckOnly = overrides.CheckOnly
		case "timeout":
			f.cfg.Timeout = overrides.Timeout
		case "address":
			f.cfg.Coap.Address = overrides.Coap.Address
		case "network":
			f.cfg.Coap.Network = overrides.Coap.Network
		case "cert":
			f.cfg.Coap.CertFile = overrides.Coap.CertFile
		case "key":
			f.cfg.Coap.KeyFile = overrides.Coap.KeyFile
		case "ca":
			f.cfg.Coap.CAFile = overrides.Coap.CAFile
		case "nats-url":
			f.cfg.Nats.URL = overrides.Nats.URL
		case "nats-prefix":
			f.cfg.Nats.SubjectPrefix = overrides.Nats.SubjectPrefix
		case "nats-creds":
			f.cfg.Nats.CredsFile = overrides.Nats.CredsFile
		}
	})
	return f.cfg.Validate()
}
