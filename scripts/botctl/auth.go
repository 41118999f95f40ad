package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"

	"github.com/DamienReichhart/TradeForge-sub000/internal/session"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	password := fs.String("password", "", "password (prompted when empty)")
	pos, err := a.parseFlags(fs, args)
	if err != nil || len(pos) != 1 {
		return errUsage
	}
	if *password == "" {
		if *password, err = a.readLine("Password: "); err != nil {
			return err
		}
	}

	user, err := a.session.Login(ctx, pos[0], *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, i18n.Get("LoggedIn")+"\n", user.Username)
	return nil
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req apiclient.RegisterRequest
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Username, "username", "", "username")
	fs.StringVar(&req.Password, "password", "", "password")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	confirm := fs.String("confirm", "", "password confirmation (defaults to -password)")
	if _, err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if *confirm == "" {
		*confirm = req.Password
	}

	if problems := session.ValidateRegistration(req, *confirm); len(problems) > 0 {
		fields := make([]string, 0, len(problems))
		for f := range problems {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(a.out, "  %s: %s\n", f, problems[f])
		}
		return errors.New("registration form is invalid")
	}

	user, err := a.session.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, i18n.Get("Registered")+"\n", user.Email)
	fmt.Fprintf(a.out, i18n.Get("LoggedIn")+"\n", user.Username)
	return nil
}

func (a *app) cmdWhoami() error {
	u := a.session.User()
	if a.json {
		return a.printJSON(u)
	}
	w := a.table()
	fmt.Fprintf(w, "id\t%d\n", u.ID)
	fmt.Fprintf(w, "username\t%s\n", u.Username)
	fmt.Fprintf(w, "email\t%s\n", u.Email)
	if u.FirstName != "" || u.LastName != "" {
		fmt.Fprintf(w, "name\t%s %s\n", u.FirstName, u.LastName)
	}
	fmt.Fprintf(w, "active\t%t\n", u.IsActive)
	return w.Flush()
}

func (a *app) cmdTheme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, a.session.Theme(ctx))
		return nil
	}
	var (
		mode string
		err  error
	)
	switch args[0] {
	case "toggle":
		mode, err = a.session.ToggleTheme(ctx)
	case session.ThemeLight, session.ThemeDark:
		mode, err = args[0], a.session.SetTheme(ctx, args[0])
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, i18n.Get("ThemeChanged")+"\n", mode)
	return nil
}
