// Package config holds the host daemon's CLI surface (§6 "CLI surface of
// the host daemon"), parsed the way balookrd-h3ws2h1ws-proxy's
// internal/run.go:parseConfig does it: flag.StringVar/IntVar into a plain
// struct, validated right after Parse.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"
)

// Config is the daemon's full CLI surface.
type Config struct {
	ListenAddr   string // -l
	ListenH3Addr string // -listen-h3, optional HTTP/3 listener
	CertFile     string
	KeyFile      string

	Protocol     string   // -p <protocol>
	ProtocolArgs []string // residual args passed to the driver's Init

	MetricsAddr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Parse parses args (normally os.Args[1:]) into a Config. Everything after
// `-p <protocol>` is treated as the driver's residual arguments (§6), so
// flag parsing stops there rather than continuing to interpret flags.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("guacd", flag.ContinueOnError)

	var cfg Config
	fs.StringVar(&cfg.ListenAddr, "l", ":4822", "TCP listen port for the display protocol")
	fs.StringVar(&cfg.ListenH3Addr, "listen-h3", "", "optional UDP listen addr for an HTTP/3 variant of the listener")
	fs.StringVar(&cfg.CertFile, "cert", "", "TLS cert PEM (required with -listen-h3)")
	fs.StringVar(&cfg.KeyFile, "key", "", "TLS key PEM (required with -listen-h3)")
	fs.StringVar(&cfg.MetricsAddr, "metrics", "", "TCP addr for Prometheus /metrics (empty disables)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 0, "optional read deadline per connection (0 disables); the stream's per-poll read deadline replaces it before the first read")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 0, "optional write timeout per connection (0 disables)")
	protocolFlag := fs.String("p", "", "backend driver name, e.g. demo")

	// Split args right after `-p <protocol>` (or `-p=<protocol>`):
	// everything from there on is the driver's own argv, never
	// reinterpreted as guacd flags (§6).
	splitAt := len(args)
	for i, a := range args {
		if a == "-p" || a == "--p" {
			splitAt = i + 2
			break
		}
		if strings.HasPrefix(a, "-p=") || strings.HasPrefix(a, "--p=") {
			splitAt = i + 1
			break
		}
	}
	if splitAt > len(args) {
		splitAt = len(args)
	}

	if err := fs.Parse(args[:splitAt]); err != nil {
		return Config{}, err
	}
	cfg.Protocol = *protocolFlag
	cfg.ProtocolArgs = args[splitAt:]

	if cfg.Protocol == "" {
		return Config{}, fmt.Errorf("config: -p <protocol> is required")
	}
	if cfg.ListenH3Addr != "" && (cfg.CertFile == "" || cfg.KeyFile == "") {
		return Config{}, fmt.Errorf("config: -listen-h3 requires -cert and -key")
	}

	return cfg, nil
}
