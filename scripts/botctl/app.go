package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/internal/draft"
	"github.com/DamienReichhart/TradeForge-sub000/internal/session"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/config"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/crypto"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/db"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/device"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

const appID = "tradeforge-dashboard"

var errUsage = errors.New("usage")

const usage = `usage: botctl <command> [args]

session:
  login <username> [-password P]      sign in and remember the token
  register -email E -username U -password P [-confirm P] [-first F] [-last L]
  logout | whoami
  theme [light|dark|toggle]

bots:
  bots list | get ID | start ID | stop ID | perf ID
  bots delete ID [-yes]

catalog and results:
  indicators [-available]
  backtests list | get ID | delete ID
  backtests create -bot ID -name N -start YYYY-MM-DD -end YYYY-MM-DD [-capital C]
  performance [summary] | trades [-bot ID -status S -limit N] | compare
  marketing tutorials | tutorial SLUG | opinions
  check FIELD TEXT                     validate a condition against the backend

new-bot wizard:
  draft new NAME [-pair P -timeframe T -type standard|advanced -description D -telegram C]
  draft list | show ID | delete ID
  draft add-indicator ID NAME | remove-indicator ID INDEX
  draft set-param ID INDEX PARAM VALUE
  draft set-condition ID FIELD TEXT
  draft example ID FIELD
  draft submit ID
`

// app is one botctl invocation.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *db.Database
	client  *apiclient.Client
	session *session.Session
	drafts  *draft.Store
	in      *bufio.Reader
	out     io.Writer
	json    bool
}

// openApp opens the preferences database with the access token sealed by
// the local key and wires the session into the backend client.
func openApp(cfg *config.Config, log zerolog.Logger, in *bufio.Reader, out io.Writer) (*app, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf(i18n.Get("DBInitFailed"), err)
	}
	log.Debug().Msgf(i18n.Get("UsingDBPath"), cfg.DBPath)

	sealer, err := crypto.LocalSealer(appID)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("no key to seal the access token (set %s): %w", crypto.KeyEnv, err)
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.APITimeout,
		RequestsPerSec: cfg.APIRequestsPerSec,
		Burst:          cfg.APIBurst,
		ClientID:       device.ClientID(appID),
	}, nil)
	return newApp(cfg, log, database, sealer, client, in, out), nil
}

func newApp(cfg *config.Config, log zerolog.Logger, database *db.Database, sealer db.Sealer, client *apiclient.Client, in *bufio.Reader, out io.Writer) *app {
	prefs := database.Preferences(sealer, session.KeyAccessToken)
	sess := session.New(prefs, client, log)
	client.SetTokenSource(sess)
	return &app{
		cfg:     cfg,
		log:     log,
		db:      database,
		client:  client,
		session: sess,
		drafts:  draft.NewStore(database),
		in:      in,
		out:     out,
	}
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close database")
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	args = a.globalFlags(args)
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	// Commands that work without a stored session.
	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "login":
		return a.cmdLogin(ctx, rest)
	case "register":
		return a.cmdRegister(ctx, rest)
	case "theme":
		return a.cmdTheme(ctx, rest)
	case "draft":
		if len(rest) > 0 && rest[0] != "submit" && rest[0] != "add-indicator" {
			return a.cmdDraft(ctx, rest)
		}
	case "marketing":
		return a.cmdMarketing(ctx, rest)
	}

	if err := a.session.Restore(ctx); err != nil {
		a.log.Debug().Err(err).Msg("restore session")
	}
	if !a.session.IsAuthenticated() {
		if cmd == "logout" {
			fmt.Fprintln(a.out, i18n.Get("LoggedOut"))
			return nil
		}
		return errors.New(i18n.Get("NotLoggedIn"))
	}

	switch cmd {
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, i18n.Get("LoggedOut"))
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "bots":
		return a.cmdBots(ctx, rest)
	case "indicators":
		return a.cmdIndicators(ctx, rest)
	case "backtests":
		return a.cmdBacktests(ctx, rest)
	case "performance":
		return a.cmdPerformance(ctx, rest)
	case "check":
		return a.cmdCheck(ctx, rest)
	case "draft":
		return a.cmdDraft(ctx, rest)
	}
	return errUsage
}

// globalFlags strips -json wherever it appears.
func (a *app) globalFlags(args []string) []string {
	out := args[:0:0]
	for _, arg := range args {
		if arg == "-json" || arg == "--json" {
			a.json = true
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

// confirm asks a yes/no question, defaulting to no.
func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseID(args []string, pos int) (int, error) {
	if len(args) <= pos {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[pos])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", args[pos])
	}
	return id, nil
}

// describe renders a backend failure with its detail when there is one.
func describe(err error, fallback string) error {
	if d := apiclient.Detail(err); d != "" {
		return fmt.Errorf("%s: %s", fallback, d)
	}
	return fmt.Errorf("%s: %w", fallback, err)
}

// parseFlags parses fs allowing flags and positional arguments to be
// interleaved, and returns the positionals.
func (a *app) parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(a.out)
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
