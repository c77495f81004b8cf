package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/congo-pay/atm/internal/atm"
	"github.com/congo-pay/atm/internal/config"
	"github.com/congo-pay/atm/internal/console"
	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/logging"
	"github.com/congo-pay/atm/internal/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Prompts own stdout.
	logger := logging.NewText(os.Stderr, cfg.LogLevel)

	var opts []ledger.Option
	if cfg.PINHashCost > 0 {
		opts = append(opts, ledger.WithPINCost(cfg.PINHashCost))
	}
	notifier := notification.Fanout{notification.NewLoggerNotifier(logger), notification.NewInbox(cfg.InboxSize)}
	svc := atm.NewService(ledger.New(opts...), notifier, logger)

	shell := console.New(svc, os.Stdin, os.Stdout, cfg.MaxLoginAttempts)
	if err := shell.Run(context.Background()); err != nil {
		if !errors.Is(err, console.ErrLockedOut) {
			logger.Error("console stopped", "error", err)
		}
		os.Exit(1)
	}
}
