package main

import (
	"certpin/config"
	"certpin/pkg/fetcher"
	"certpin/pkg/reporter"
	"certpin/pkg/slack"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

// newApp defines the command line, returning the flags it fills
func newApp(name string) (a *kingpin.Application, configFile, logLevel *string) {
	a = kingpin.New(name, "Print the SHA-256 certificate pins of HTTPS hosts")
	configFile = a.Flag("configfile", "config file").Short('c').ExistingFile()
	logLevel = a.Flag("log-level", "log level (trace, debug, info, warn, error)").String()
	a.HelpFlag.Short('h')
	return a, configFile, logLevel
}

func main() {
	a, configFile, logLevel := newApp(filepath.Base(os.Args[0]))

	_, err := a.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "Error parsing commandline arguments"))
		// nil so the bad arguments aren't parsed again
		a.Usage(nil)
		os.Exit(2)
	}

	cfg := config.GetConfig(configFile, logLevel)
	r := reporter.New(cfg, fetcher.New(cfg))
	results, err := r.Run(context.Background(), cfg.Hosts, os.Stdout)
	if err != nil {
		cfg.Log.Errorf("Can't write report: %v", err)
	}

	if cfg.SlackWebhookURL != "" {
		if err := slack.NewPayload(cfg, results).Post(cfg); err != nil {
			cfg.Log.Warn(err)
		}
	}
}
