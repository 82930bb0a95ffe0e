package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/vidctl"
	"github.com/hazyhaar/vidctl/internal/config"
	"github.com/hazyhaar/vidctl/internal/idgen"
	"github.com/hazyhaar/vidctl/internal/mcpquic"
	"github.com/hazyhaar/vidctl/internal/store"
	"github.com/hazyhaar/vidctl/overlay"
	"github.com/hazyhaar/vidctl/settings"
)

func loadConfig(o options) (*config.Config, error) {
	var cfg *config.Config
	if o.configPath != "" {
		c, err := vidctl.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	} else {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.httpAddr != "" {
		cfg.HTTP.Addr = o.httpAddr
	}
	if o.singleURL != "" {
		cfg.Pages = []config.PageConfig{{ID: idgen.New(), URL: o.singleURL}}
		if len(cfg.Sinks) == 0 && !o.mcpStdio {
			cfg.Sinks = []config.SinkConfig{{Type: "stdout"}}
		}
	}
	return cfg, nil
}

func runOffline(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store, o options) error {
	if o.host == "" {
		return errors.New("-html requires -host")
	}
	f, err := os.Open(o.htmlPath)
	if err != nil {
		return err
	}
	defer f.Close()

	norm, err := overlay.New(logger, cfg.Overlays...)
	if err != nil {
		return err
	}
	html, rep, err := vidctl.ProcessHTML(ctx, f, o.host, st, norm)
	if err != nil {
		return err
	}
	logger.Info("vidctl: offline pass",
		"host", rep.Host,
		"activate", rep.Activate,
		"overlays", rep.Overlay.Total(),
		"videos", rep.Controls.Videos,
		"enabled", rep.Controls.Enabled,
	)
	_, err = fmt.Fprintln(os.Stdout, html)
	return err
}

func runDaemon(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store, ed *settings.Editor, o options) error {
	sink, err := vidctl.SinksFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	ctl, err := vidctl.New(cfg, st, logger, sink)
	if err != nil {
		return err
	}
	if len(cfg.Pages) > 0 {
		if err := ctl.Start(ctx); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		defer ctl.Stop()
	}

	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           ed.Routes(settings.BasicAuth(cfg.HTTP.Username, cfg.HTTP.PasswordHash)),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			logger.Info("vidctl: settings API starting", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("vidctl: settings API", "error", err)
			}
		}()
	}

	if o.mcpStdio || o.mcpQUIC != "" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "vidctl", Version: "1.0.0"}, nil)
		ed.RegisterMCP(mcpSrv)

		if o.mcpQUIC != "" {
			if err := serveQUIC(ctx, logger, mcpSrv, o); err != nil {
				logger.Error("vidctl: MCP QUIC", "error", err)
			}
		}
		if o.mcpStdio {
			go func() {
				if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
					logger.Error("vidctl: MCP stdio", "error", err)
				}
			}()
		}
	}

	<-ctx.Done()
	logger.Info("vidctl: shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("vidctl: shutdown", "error", err)
		}
	}
	return nil
}

func serveQUIC(ctx context.Context, logger *slog.Logger, mcpSrv *mcp.Server, o options) error {
	var (
		tlsCfg *tls.Config
		err    error
	)
	if o.tlsCert != "" && o.tlsKey != "" {
		tlsCfg, err = mcpquic.ServerTLSConfig(o.tlsCert, o.tlsKey)
	} else {
		tlsCfg, err = mcpquic.SelfSignedTLSConfig()
	}
	if err != nil {
		return err
	}
	l, err := mcpquic.NewListener(o.mcpQUIC, tlsCfg, mcpSrv, logger)
	if err != nil {
		return err
	}
	go func() {
		defer l.Close()
		if err := l.Serve(ctx); err != nil && ctx.Err() == nil {
			logger.Error("vidctl: MCP QUIC serve", "error", err)
		}
	}()
	return nil
}
