package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/DamienReichhart/TradeForge-sub000/internal/condition"
	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

const dateLayout = "2006-01-02"

func (a *app) cmdIndicators(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("indicators", flag.ContinueOnError)
	available := fs.Bool("available", false, "list the definitions the backend can compute")
	if _, err := a.parseFlags(fs, args); err != nil {
		return err
	}

	if !*available {
		rows, err := a.client.ListIndicators(ctx)
		if err != nil {
			return describe(err, "Failed to load indicators")
		}
		if a.json {
			return a.printJSON(rows)
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tACTIVE")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", r.ID, r.Name, r.Type, r.IsActive)
		}
		return w.Flush()
	}

	defs, err := a.client.AvailableIndicators(ctx)
	if err != nil {
		return describe(err, "Failed to load indicators")
	}
	if a.json {
		return a.printJSON(defs)
	}
	groups := indicators.Categorize(defs)
	for _, cat := range indicators.CategoryOrder {
		if len(groups[cat]) == 0 {
			continue
		}
		fmt.Fprintf(a.out, "%s\n", cat)
		for _, d := range groups[cat] {
			fmt.Fprintf(a.out, "  %-22s %s\n", d.Name, d.Description)
			for _, p := range d.Parameters {
				fmt.Fprintf(a.out, "      %s (%s)%s\n", p.Name, p.Type, paramHint(p))
			}
		}
	}
	return nil
}

func paramHint(p apiclient.Parameter) string {
	var parts []string
	if p.MinValue != nil {
		parts = append(parts, fmt.Sprintf("min %v", *p.MinValue))
	}
	if p.MaxValue != nil {
		parts = append(parts, fmt.Sprintf("max %v", *p.MaxValue))
	}
	if opts := indicators.SourceOptions(p); len(opts) > 0 {
		parts = append(parts, "one of "+strings.Join(opts, "|"))
	}
	if p.Default != nil {
		parts = append(parts, fmt.Sprintf("default %v", p.Default))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, ", ")
}

func (a *app) cmdBacktests(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		runs, err := a.client.ListBacktests(ctx)
		if err != nil {
			return describe(err, "Failed to load backtests")
		}
		if a.json {
			return a.printJSON(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(a.out, i18n.Get("NoResults"))
			return nil
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tNAME\tBOT\tPERIOD\tSTATUS\tTRADES\tWIN RATE")
		for _, b := range runs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s..%s\t%s\t%s\t%s\n", b.ID, b.Name, b.BotID,
				b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout), b.Status,
				optInt(b.TotalTrades), optPercent(b.WinRate))
		}
		return w.Flush()
	case "get":
		id, err := parseID(args, 1)
		if err != nil {
			return err
		}
		run, err := a.client.GetBacktest(ctx, id)
		if err != nil {
			return describe(err, "Failed to load backtest")
		}
		return a.printJSON(run)
	case "delete":
		id, err := parseID(args, 1)
		if err != nil {
			return err
		}
		if _, err := a.client.DeleteBacktest(ctx, id); err != nil {
			return describe(err, "Failed to delete backtest")
		}
		fmt.Fprintf(a.out, "Backtest %d deleted\n", id)
		return nil
	case "create":
		return a.createBacktest(ctx, args[1:])
	}
	return errUsage
}

func (a *app) createBacktest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("backtests create", flag.ContinueOnError)
	var req apiclient.BacktestCreate
	fs.IntVar(&req.BotID, "bot", 0, "bot id")
	fs.StringVar(&req.Name, "name", "", "backtest name")
	fs.StringVar(&req.Description, "description", "", "description")
	fs.Float64Var(&req.InitialCapital, "capital", 1000, "initial capital")
	start := fs.String("start", "", "start date YYYY-MM-DD")
	end := fs.String("end", "", "end date YYYY-MM-DD")
	if _, err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if req.BotID <= 0 || req.Name == "" {
		return errUsage
	}
	var err error
	if req.StartDate, err = time.Parse(dateLayout, *start); err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if req.EndDate, err = time.Parse(dateLayout, *end); err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	if !req.EndDate.After(req.StartDate) {
		return errors.New("-end must be after -start")
	}

	run, err := a.client.CreateBacktest(ctx, req)
	if err != nil {
		return describe(err, "Failed to create backtest")
	}
	fmt.Fprintf(a.out, "Backtest %d created (%s)\n", run.ID, run.Status)
	return nil
}

func (a *app) cmdPerformance(ctx context.Context, args []string) error {
	sub := "summary"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "summary":
		sum, err := a.client.PerformanceSummary(ctx)
		if err != nil {
			return describe(err, "Failed to load performance")
		}
		if a.json {
			return a.printJSON(sum)
		}
		w := a.table()
		fmt.Fprintf(w, "trades\t%d (%d won, %d lost)\n", sum.TotalTrades, sum.WinningTrades, sum.LosingTrades)
		fmt.Fprintf(w, "win rate\t%s\n", optPercent(&sum.WinRate))
		fmt.Fprintf(w, "profit/loss\t%s\n", humanize.CommafWithDigits(sum.TotalProfitLoss, 2))
		fmt.Fprintf(w, "average\t%s\n", humanize.CommafWithDigits(sum.AverageProfitLoss, 2))
		fmt.Fprintf(w, "profit factor\t%s\n", optFloat(sum.ProfitFactor))
		fmt.Fprintf(w, "max drawdown\t%s\n", optPercent(sum.MaxDrawdown))
		fmt.Fprintf(w, "sharpe\t%s\n", optFloat(sum.SharpeRatio))
		return w.Flush()
	case "trades":
		fs := flag.NewFlagSet("performance trades", flag.ContinueOnError)
		var f apiclient.TradeFilter
		fs.IntVar(&f.BotID, "bot", 0, "only trades of this bot")
		fs.StringVar(&f.Status, "status", "", "open or closed")
		fs.IntVar(&f.Skip, "skip", 0, "offset")
		fs.IntVar(&f.Limit, "limit", 50, "page size")
		if _, err := a.parseFlags(fs, args); err != nil {
			return err
		}
		trades, err := a.client.Trades(ctx, f)
		if err != nil {
			return describe(err, "Failed to load trades")
		}
		if a.json {
			return a.printJSON(trades)
		}
		w := a.table()
		fmt.Fprintln(w, "ID\tBOT\tPAIR\tTYPE\tENTRY\tEXIT\tP/L\tSTATUS\tOPENED")
		for _, t := range trades {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.BotID, t.Pair, t.Type,
				humanize.CommafWithDigits(t.EntryPrice, 4), optFloat(t.ExitPrice), optFloat(t.ProfitLoss),
				t.Status, humanize.Time(t.EntryTime))
		}
		return w.Flush()
	case "compare":
		rows, err := a.client.BotsComparison(ctx)
		if err != nil {
			return describe(err, "Failed to load comparison")
		}
		return a.printJSON(rows)
	}
	return errUsage
}

// cmdMarketing reads the public content; no session is needed.
func (a *app) cmdMarketing(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "tutorials":
		list, err := a.client.Tutorials(ctx)
		if err != nil {
			return describe(err, "Failed to load tutorials")
		}
		if a.json {
			return a.printJSON(list)
		}
		w := a.table()
		for _, t := range list {
			fmt.Fprintf(w, "%s\t%s\n", t.Slug, t.Title)
		}
		return w.Flush()
	case "tutorial":
		if len(args) < 2 {
			return errUsage
		}
		t, err := a.client.Tutorial(ctx, args[1])
		if err != nil {
			return describe(err, "Failed to load tutorial")
		}
		if a.json {
			return a.printJSON(t)
		}
		fmt.Fprintf(a.out, "%s\n\n%s\n", t.Title, t.Content)
		return nil
	case "opinions":
		list, err := a.client.Opinions(ctx)
		if err != nil {
			return describe(err, "Failed to load opinions")
		}
		if a.json {
			return a.printJSON(list)
		}
		for _, o := range list {
			fmt.Fprintf(a.out, "%s %s (%s)\n  %s\n", strings.Repeat("*", o.Rating), o.Name, o.Company, o.Content)
		}
		return nil
	}
	return errUsage
}

// cmdCheck runs one condition through the local and backend checks.
func (a *app) cmdCheck(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	field, err := expr.ParseField(args[0])
	if err != nil {
		return err
	}
	v := condition.Check(ctx, a.client, field.Kind(), strings.Join(args[1:], " "), a.cfg.APITimeout)
	fmt.Fprintln(a.out, v.Message())
	if v.State == expr.StateInvalid {
		return errors.New(field.Label() + " is not valid")
	}
	return nil
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return humanize.CommafWithDigits(*f, 2)
}

func optPercent(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *f)
}

func optInt(n *int) string {
	if n == nil {
		return "-"
	}
	return humanize.Comma(int64(*n))
}
