package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/DamienReichhart/TradeForge-sub000/internal/condition"
	"github.com/DamienReichhart/TradeForge-sub000/internal/draft"
	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/internal/palette"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/db"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/i18n"
)

func (a *app) cmdDraft(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub, args := args[0], args[1:]
	switch sub {
	case "new":
		return a.newDraft(ctx, args)
	case "list":
		return a.listDrafts(ctx)
	}

	if len(args) == 0 {
		return errUsage
	}
	d, err := a.loadDraft(ctx, args[0])
	if err != nil {
		return err
	}
	args = args[1:]

	switch sub {
	case "show":
		return a.showDraft(d)
	case "delete":
		if err := a.drafts.Delete(ctx, d.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Draft %s deleted\n", d.ID)
		return nil
	case "add-indicator":
		return a.addIndicator(ctx, d, args)
	case "remove-indicator":
		i, err := indexArg(args, 0, len(d.Indicators))
		if err != nil {
			return err
		}
		if err := d.RemoveIndicator(i); err != nil {
			return err
		}
		return a.saveDraft(ctx, d)
	case "set-param":
		if len(args) != 3 {
			return errUsage
		}
		i, err := indexArg(args, 0, len(d.Indicators))
		if err != nil {
			return err
		}
		if err := d.SetParameter(i, args[1], args[2]); err != nil {
			return err
		}
		return a.saveDraft(ctx, d)
	case "set-condition":
		return a.setCondition(ctx, d, args)
	case "example":
		if len(args) != 1 {
			return errUsage
		}
		field, err := expr.ParseField(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, palette.Example(field, d.Indicators))
		return nil
	case "submit":
		return a.submitDraft(ctx, d)
	}
	return errUsage
}

// loadDraft accepts a full id or an unambiguous prefix of one.
func (a *app) loadDraft(ctx context.Context, id string) (*draft.Draft, error) {
	d, err := a.drafts.Load(ctx, id)
	if err == nil || !errors.Is(err, db.ErrNotFound) {
		return d, err
	}
	all, err := a.drafts.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *draft.Draft
	for _, c := range all {
		if strings.HasPrefix(c.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("draft id %q is ambiguous", id)
			}
			match = c
		}
	}
	if match == nil {
		return nil, fmt.Errorf("draft %q: %w", id, db.ErrNotFound)
	}
	return match, nil
}

func (a *app) saveDraft(ctx context.Context, d *draft.Draft) error {
	if err := a.drafts.Save(ctx, d); err != nil {
		return err
	}
	fmt.Fprintf(a.out, i18n.Get("DraftSaved")+"\n", d.ID)
	return nil
}

// indexArg reads a 1-based indicator position.
func indexArg(args []string, pos, n int) (int, error) {
	if len(args) <= pos {
		return 0, errUsage
	}
	i, err := strconv.Atoi(args[pos])
	if err != nil || i < 1 || i > n {
		return 0, draft.ErrIndexRange
	}
	return i - 1, nil
}

func (a *app) newDraft(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("draft new", flag.ContinueOnError)
	pair := fs.String("pair", draft.DefaultPair, "trading pair")
	timeframe := fs.String("timeframe", draft.DefaultTimeframe, "candle timeframe")
	botType := fs.String("type", draft.BotTypeStandard, "standard or advanced")
	description := fs.String("description", "", "description")
	telegram := fs.String("telegram", "", "telegram channel for signals")
	pos, err := a.parseFlags(fs, args)
	if err != nil {
		return err
	}

	d := draft.New(strings.Join(pos, " "))
	d.Pair = *pair
	d.Timeframe = *timeframe
	d.BotType = *botType
	d.Description = *description
	d.TelegramChannel = *telegram
	if err := d.Validate(); err != nil {
		return err
	}
	return a.saveDraft(ctx, d)
}

func (a *app) listDrafts(ctx context.Context) error {
	all, err := a.drafts.List(ctx)
	if err != nil {
		return err
	}
	if a.json {
		return a.printJSON(all)
	}
	if len(all) == 0 {
		fmt.Fprintln(a.out, i18n.Get("NoResults"))
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tNAME\tPAIR\tTIMEFRAME\tTYPE\tINDICATORS")
	for _, d := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", d.ID[:8], d.Name, d.Pair, d.Timeframe, d.BotType, len(d.Indicators))
	}
	return w.Flush()
}

func (a *app) showDraft(d *draft.Draft) error {
	if a.json {
		return a.printJSON(d)
	}
	w := a.table()
	fmt.Fprintf(w, "id\t%s\n", d.ID)
	fmt.Fprintf(w, "name\t%s\n", d.Name)
	fmt.Fprintf(w, "pair\t%s\n", d.Pair)
	fmt.Fprintf(w, "timeframe\t%s\n", d.Timeframe)
	fmt.Fprintf(w, "type\t%s\n", d.BotType)
	for i, sel := range d.Indicators {
		fmt.Fprintf(w, "indicator %d\t%s (%s) %s\n", i+1, sel.Name(i), sel.IndicatorName, formatParams(sel.Parameters))
	}
	if tokens := d.Tokens(); len(tokens) > 0 {
		fmt.Fprintf(w, "tokens\t%s\n", strings.Join(tokens, ", "))
	}
	for _, f := range d.Fields() {
		text := d.Condition(f)
		local, _ := expr.Local(text)
		if expr.IsBlank(text) {
			fmt.Fprintf(w, "%s\t(e.g. %s)\n", f.Label(), palette.Example(f, d.Indicators))
			continue
		}
		fmt.Fprintf(w, "%s\t%s  [%s]\n", f.Label(), text, local.Message())
	}
	return w.Flush()
}

// addIndicator attaches a catalog indicator by definition name.
func (a *app) addIndicator(ctx context.Context, d *draft.Draft, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := strings.Join(args, " ")
	defs, err := a.client.AvailableIndicators(ctx)
	if err != nil {
		return describe(err, "Failed to load indicators")
	}
	def, ok := indicators.FindDefinition(defs, name)
	if !ok {
		return fmt.Errorf("unknown indicator %q", name)
	}
	rows, err := a.client.ListIndicators(ctx)
	if err != nil {
		return describe(err, "Failed to load indicators")
	}
	catalogID, err := indicators.ResolveID(rows, def.Name)
	if err != nil {
		return err
	}

	simplified := d.AddIndicator(def, catalogID)
	sel := d.Indicators[len(d.Indicators)-1]
	fmt.Fprintf(a.out, "%s: %s\n", simplified, strings.Join(sel.Tokens(len(d.Indicators)-1), ", "))
	return a.saveDraft(ctx, d)
}

func (a *app) setCondition(ctx context.Context, d *draft.Draft, args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	field, err := expr.ParseField(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if err := d.SetCondition(field, text); err != nil {
		return err
	}
	local, _ := expr.Local(text)
	fmt.Fprintf(a.out, "%s: %s\n", field.Label(), local.Message())
	return a.saveDraft(ctx, d)
}

// submitDraft validates every used condition with the backend before
// creating the bot. The draft is removed once the bot exists.
func (a *app) submitDraft(ctx context.Context, d *draft.Draft) error {
	problems := []string{}
	if err := d.Validate(); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}
	for _, f := range d.Fields() {
		text := d.Condition(f)
		if expr.IsBlank(text) {
			continue
		}
		v := condition.Check(ctx, a.client, f.Kind(), text, a.cfg.APITimeout)
		if v.State != expr.StateValid {
			problems = append(problems, f.Label()+": "+v.Message())
		}
	}
	if len(problems) > 0 {
		fmt.Fprintln(a.out, i18n.Get("DraftNotReady"))
		for _, p := range problems {
			fmt.Fprintln(a.out, "  -", p)
		}
		return errors.New("draft not submitted")
	}

	bot, err := a.client.CreateBot(ctx, d.CreateRequest())
	if err != nil {
		return describe(err, "Failed to create bot")
	}
	if err := a.drafts.Delete(ctx, d.ID); err != nil {
		a.log.Warn().Err(err).Str("draft", d.ID).Msg("remove submitted draft")
	}
	fmt.Fprintf(a.out, i18n.Get("DraftSubmitted")+"\n", bot.Name, bot.ID)
	return nil
}
