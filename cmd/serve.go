package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/mplusd/internal/auth"
	"github.com/desertthunder/mplusd/internal/metrics"
	"github.com/desertthunder/mplusd/internal/proxy"
	"github.com/desertthunder/mplusd/internal/server"
	"github.com/desertthunder/mplusd/internal/shared"
	"github.com/desertthunder/mplusd/internal/ui"
	"github.com/urfave/cli/v3"
)

// gateway is the composed server: the router plus the token manager it shares with the banner.
type gateway struct {
	handler http.Handler
	tokens  *auth.TokenManager
}

// newTokenManager builds the token manager for config with an in-memory store.
func (r *Runner) newTokenManager(config *shared.Config, recorder auth.RefreshRecorder) *auth.TokenManager {
	return auth.NewTokenManager(auth.NewMemoryStore(), auth.Options{
		TokenURL:   config.Blizzard.TokenURL,
		Timeout:    config.Blizzard.TokenTimeout(),
		HTTPClient: r.httpClient,
		Logger:     shared.WithLogger(r.logger, "component", "token"),
		Metrics:    recorder,
	})
}

// newGateway wires the token manager, allow-list, proxy, static files and metrics into one handler.
func (r *Runner) newGateway(config *shared.Config) *gateway {
	var (
		recorder    *metrics.ProxyMetrics
		metricsHTTP http.Handler
	)
	if config.Server.Metrics {
		reg := metrics.NewRegistry()
		recorder = metrics.NewProxyMetrics(reg)
		metricsHTTP = metrics.Handler(reg)
	}

	tokens := r.newTokenManager(config, recorder)
	allow := proxy.NewAllowList(config.Blizzard.AllowedDomains...)
	r.logger.Debug("authenticated proxy allow-list", "domains", allow.Suffixes())

	gw := proxy.NewGateway(proxy.Options{
		Tokens:     tokens,
		AllowList:  allow,
		HTTPClient: r.httpClient,
		Timeout:    config.Proxy.Timeout(),
		UserAgent:  config.Proxy.UserAgent,
		Logger:     shared.WithLogger(r.logger, "component", "proxy"),
		Metrics:    recorder,
	})

	return &gateway{
		handler: server.NewRouter(server.Routes{
			Gateway: gw,
			Static:  server.NewStaticHandler(config.Server.StaticDir, config.Server.Index),
			Metrics: metricsHTTP,
			Logger:  r.logger,
		}),
		tokens: tokens,
	}
}

// Serve starts the gateway and blocks until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := r.loadEnv(config); err != nil {
		return err
	}

	gw := r.newGateway(config)

	ln, err := net.Listen("tcp", config.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Server.Addr(), err)
	}

	ui.PrintBanner(r.output, ui.BannerInfo{
		URL:            displayURL(config.Server.Host, ln.Addr()),
		Index:          config.Server.Index,
		HasCredentials: gw.tokens.HasCredentials(),
		IDVar:          auth.EnvClientID,
		SecretVar:      auth.EnvClientSecret,
		EnvFile:        config.Env.File,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("listening", "addr", ln.Addr().String(), "dir", config.Server.StaticDir)
	return server.Serve(ctx, ln, gw.handler, r.logger)
}

// displayURL is the address a browser on this machine should open.
func displayURL(host string, addr net.Addr) string {
	port := ""
	if tcp, ok := addr.(*net.TCPAddr); ok {
		port = strconv.Itoa(tcp.Port)
	} else if _, p, err := net.SplitHostPort(addr.String()); err == nil {
		port = p
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
