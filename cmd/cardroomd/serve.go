package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/cardroom/holdem/internal/bankroll"
	"github.com/cardroom/holdem/internal/config"
	"github.com/cardroom/holdem/internal/server"
)

// ServeCmd runs the websocket cardroom server.
type ServeCmd struct {
	Config   string `kong:"default='cardroom.hcl',help='Path to HCL configuration file'"`
	Addr     string `kong:"help='Override listen address (host:port)'"`
	LogLevel string `kong:"help='Override log level (debug, info, warn, error)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Server.LogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}

	bank := bankroll.NewMemory(cfg.Server.StartingBalance)

	srv := server.New(cfg, bank, logger)
	if c.Addr != "" {
		srv.SetAddr(c.Addr)
	}

	logger.Info("starting cardroom server",
		"address", addr,
		"tables", len(cfg.Tables),
		"starting_balance", cfg.Server.StartingBalance,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
