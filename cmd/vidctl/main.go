// Command vidctl keeps native video controls enabled on Chrome tabs,
// gated by a per-domain policy.
//
// Usage:
//
//	vidctl -config vidctl.yaml                     # reconcile pages from YAML config
//	vidctl -url https://9gag.com                   # reconcile a single page (stdout reports)
//	vidctl -html page.html -host www.9gag.com      # one offline pass, prints the HTML
//	vidctl mode [include|exclude]                  # show or switch the policy mode
//	vidctl domains list|add|remove [-list excluded|included] [domain]
//	vidctl check <hostname>                        # evaluate the policy for a hostname
//	vidctl hash-password < password.txt            # bcrypt hash for http.password_hash
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vidctl/internal/store"
	"github.com/hazyhaar/vidctl/settings"
)

type options struct {
	configPath string
	dbPath     string
	singleURL  string
	htmlPath   string
	host       string
	httpAddr   string
	mcpStdio   bool
	mcpQUIC    string
	tlsCert    string
	tlsKey     string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to vidctl.yaml config file")
	flag.StringVar(&o.dbPath, "db", "", "policy database path (overrides config db_path)")
	flag.StringVar(&o.singleURL, "url", "", "reconcile a single URL")
	flag.StringVar(&o.htmlPath, "html", "", "process a saved HTML file offline and print the result")
	flag.StringVar(&o.host, "host", "", "hostname the -html page is served from")
	flag.StringVar(&o.httpAddr, "http", "", "settings API listen address (overrides config http.addr)")
	flag.BoolVar(&o.mcpStdio, "mcp", false, "serve the settings MCP tools on stdio")
	flag.StringVar(&o.mcpQUIC, "mcp-quic", "", "serve the settings MCP tools over QUIC on this address")
	flag.StringVar(&o.tlsCert, "tls-cert", "", "certificate for -mcp-quic (self-signed when empty)")
	flag.StringVar(&o.tlsKey, "tls-key", "", "key for -mcp-quic")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o, flag.Args()); err != nil {
		logger.Error("vidctl: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options, args []string) error {
	if len(args) > 0 && args[0] == "hash-password" {
		return cmdHashPassword(os.Stdin, os.Stdout)
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ed := settings.New(st, logger)
	if err := ed.Init(ctx); err != nil {
		return err
	}

	if len(args) > 0 {
		return runCommand(ctx, ed, args, os.Stdout)
	}
	if o.htmlPath != "" {
		return runOffline(ctx, logger, cfg, st, o)
	}
	if len(cfg.Pages) == 0 && cfg.HTTP.Addr == "" && !o.mcpStdio && o.mcpQUIC == "" {
		fmt.Fprintln(os.Stderr, "usage: vidctl -config <file> | -url <url> | -html <file> -host <host> | mode | domains | check | hash-password")
		os.Exit(2)
	}
	return runDaemon(ctx, logger, cfg, st, ed, o)
}
