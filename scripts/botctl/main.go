// Command botctl drives the TradeForge backend from a terminal: session,
// bots, indicator catalog, backtests, performance and the new-bot wizard.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/config"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, i18n.Get("ConfigLoadFailed")+"\n", err)
		os.Exit(1)
	}
	i18n.SetLanguage(i18n.ParseLanguage(cfg.Language))
	log := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr), "botctl")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(cfg, log, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
