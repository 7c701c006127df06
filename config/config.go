package config

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultHosts is the host list used when none is configured
var DefaultHosts = []string{
	"ais.osym.gov.tr",
	"www.osym.gov.tr",
	"cdn.jsdelivr.net",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
}

// Configuration represents a configuration element
type Configuration struct {
	Hosts           []string
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	SPKIPins        bool
	SlackWebhookURL string
	SlackIconURL    string
	SlackUsername   string
	LogLevel        string
	// RootCAs overrides the system trust store, nil means system roots
	RootCAs *x509.CertPool `mapstructure:"-"`
	Log     *log.Logger    `mapstructure:"-"`
}

// GetConfig provides a Configuration, exits if it can't be built
func GetConfig(configFile, logLevel *string) *Configuration {
	var f, l string
	if configFile != nil {
		f = *configFile
	}
	if logLevel != nil {
		l = *logLevel
	}
	c, err := Load(f, l)
	if err != nil {
		log.Fatalf("[ERROR] : %v", err)
	}
	return c
}

// Load reads defaults, the optional config file and the environment.
// A non-empty logLevel overrides every other source.
func Load(configFile, logLevel string) (*Configuration, error) {
	c := &Configuration{}

	v := viper.New()
	v.SetDefault("Hosts", DefaultHosts)
	v.SetDefault("ConnectTimeout", 5*time.Second)
	v.SetDefault("ReadTimeout", 5*time.Second)
	v.SetDefault("SPKIPins", false)
	v.SetDefault("SlackWebhookURL", "")
	v.SetDefault("SlackIconURL", "")
	v.SetDefault("SlackUsername", "CertPin")
	v.SetDefault("LogLevel", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if filepath.Ext(configFile) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "Error when reading config file")
		}
	}
	v.SetEnvPrefix("certpin")
	v.AutomaticEnv()
	if logLevel != "" {
		v.Set("LogLevel", logLevel)
	}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "Error when decoding configuration")
	}

	if c.SlackUsername == "" {
		c.SlackUsername = "CertPin"
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "Bad log level")
	}
	c.Log = log.New()
	c.Log.SetOutput(os.Stderr)
	c.Log.SetLevel(level)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the host list is not empty and the timeouts.
// Individual hosts are checked when they are reached, so one bad entry
// doesn't stop the others from being reported.
func (c *Configuration) Validate() error {
	if len(c.Hosts) == 0 {
		return errors.New("Host list can't be empty")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("ConnectTimeout must be strictly positive")
	}
	if c.ReadTimeout <= 0 {
		return errors.New("ReadTimeout must be strictly positive")
	}
	return nil
}
