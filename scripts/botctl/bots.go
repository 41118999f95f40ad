package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

func (a *app) cmdBots(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		return a.listBots(ctx)
	case "get":
		return a.showBot(ctx, args[1:])
	case "start", "stop":
		return a.toggleBot(ctx, args[0], args[1:])
	case "delete":
		return a.deleteBot(ctx, args[1:])
	case "perf":
		return a.botPerformance(ctx, args[1:])
	}
	return errUsage
}

func botStatus(b apiclient.Bot) string {
	switch {
	case b.IsRunning:
		return "running"
	case b.IsActive:
		return "stopped"
	}
	return "inactive"
}

func (a *app) listBots(ctx context.Context) error {
	bots, err := a.client.ListBots(ctx)
	if err != nil {
		return describe(err, "Failed to load bots")
	}
	if a.json {
		return a.printJSON(bots)
	}
	if len(bots) == 0 {
		fmt.Fprintln(a.out, i18n.Get("NoResults"))
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tPAIR\tTIMEFRAME\tSTATUS\tUPDATED")
	for _, b := range bots {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Pair, b.Timeframe, botStatus(b), humanize.Time(b.UpdatedAt))
	}
	return w.Flush()
}

func (a *app) showBot(ctx context.Context, args []string) error {
	id, err := parseID(args, 0)
	if err != nil {
		return err
	}
	bot, err := a.client.GetBot(ctx, id)
	if err != nil {
		return describe(err, "Failed to load bot")
	}
	if a.json {
		return a.printJSON(bot)
	}
	w := a.table()
	fmt.Fprintf(w, "name\t%s\n", bot.Name)
	if bot.Description != "" {
		fmt.Fprintf(w, "description\t%s\n", bot.Description)
	}
	fmt.Fprintf(w, "pair\t%s\n", bot.Pair)
	fmt.Fprintf(w, "timeframe\t%s\n", bot.Timeframe)
	fmt.Fprintf(w, "status\t%s\n", botStatus(bot.Bot))
	fmt.Fprintf(w, "buy\t%s\n", bot.BuyCondition)
	fmt.Fprintf(w, "sell\t%s\n", bot.SellCondition)
	if bot.TelegramChannel != "" {
		fmt.Fprintf(w, "telegram\t%s\n", bot.TelegramChannel)
	}
	fmt.Fprintf(w, "created\t%s\n", humanize.Time(bot.CreatedAt))
	for _, ind := range bot.Indicators {
		name := fmt.Sprintf("#%d", ind.IndicatorID)
		if ind.Indicator != nil {
			name = ind.Indicator.Name
		}
		fmt.Fprintf(w, "indicator\t%s %s\n", name, formatParams(ind.Parameters))
	}
	return w.Flush()
}

func formatParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}

func (a *app) toggleBot(ctx context.Context, action string, args []string) error {
	id, err := parseID(args, 0)
	if err != nil {
		return err
	}
	if action == "start" {
		if _, err := a.client.StartBot(ctx, id); err != nil {
			return describe(err, "Failed to start bot")
		}
		fmt.Fprintf(a.out, i18n.Get("BotStarted")+"\n", id)
		return nil
	}
	if _, err := a.client.StopBot(ctx, id); err != nil {
		return describe(err, "Failed to stop bot")
	}
	fmt.Fprintf(a.out, i18n.Get("BotStopped")+"\n", id)
	return nil
}

// deleteBot asks before deleting unless -yes is given.
func (a *app) deleteBot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bots delete", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	pos, err := a.parseFlags(fs, args)
	if err != nil {
		return err
	}
	id, err := parseID(pos, 0)
	if err != nil {
		return err
	}

	if !*yes {
		bot, err := a.client.GetBot(ctx, id)
		if err != nil {
			return describe(err, "Failed to load bot")
		}
		if !a.confirm(fmt.Sprintf(i18n.Get("ConfirmDeleteBot"), bot.Name)) {
			fmt.Fprintln(a.out, i18n.Get("Aborted"))
			return nil
		}
	}
	if _, err := a.client.DeleteBot(ctx, id); err != nil {
		return describe(err, "Failed to delete bot")
	}
	fmt.Fprintf(a.out, i18n.Get("BotDeleted")+"\n", id)
	return nil
}

func (a *app) botPerformance(ctx context.Context, args []string) error {
	id, err := parseID(args, 0)
	if err != nil {
		return err
	}
	perf, err := a.client.BotPerformance(ctx, id)
	if err != nil {
		return describe(err, "Failed to load performance")
	}
	if a.json {
		return a.printJSON(perf)
	}
	keys := make([]string, 0, len(perf))
	for k := range perf {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w := a.table()
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%v\n", k, perf[k])
	}
	return w.Flush()
}
