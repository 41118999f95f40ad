// Package draft is the state of the new-bot wizard: basic settings,
// selected indicators and the condition fields, turned into the backend
// creation payload on submit.
package draft

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

const (
	BotTypeStandard = "standard"
	BotTypeAdvanced = "advanced"

	DefaultPair      = "BTC/USDT"
	DefaultTimeframe = "1h"
)

var (
	Timeframes = []string{"1m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "12h", "1d", "1w"}
	Pairs      = []string{"BTC/USDT", "ETH/USDT", "BNB/USDT", "XRP/USDT", "ADA/USDT", "SOL/USDT", "DOGE/USDT"}
)

var (
	ErrNameRequired = errors.New("Bot name is required")
	ErrIndexRange   = errors.New("indicator index out of range")
	ErrUnknownParam = errors.New("unknown parameter")
	ErrUnknownField = errors.New("unknown condition field")
)

// Draft is a bot under construction.
type Draft struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	Description     string                `json:"description"`
	Pair            string                `json:"pair"`
	Timeframe       string                `json:"timeframe"`
	BotType         string                `json:"bot_type"`
	TelegramChannel string                `json:"telegram_channel,omitempty"`
	BuyCondition    string                `json:"buy_condition"`
	SellCondition   string                `json:"sell_condition"`
	TPCondition     string                `json:"tp_condition"`
	SLCondition     string                `json:"sl_condition"`
	Indicators      []indicators.Selected `json:"indicators"`

	// parameter schemas of the selected indicators, by indicator name
	Definitions map[string][]apiclient.Parameter `json:"definitions,omitempty"`
}

// New returns a draft with the wizard defaults.
func New(name string) *Draft {
	return &Draft{
		ID:          uuid.NewString(),
		Name:        name,
		Pair:        DefaultPair,
		Timeframe:   DefaultTimeframe,
		BotType:     BotTypeStandard,
		Indicators:  []indicators.Selected{},
		Definitions: map[string][]apiclient.Parameter{},
	}
}

// AddIndicator selects a new instance of def, attached to catalog row
// catalogID, with the definition's default parameters. It returns the
// instance's simplified name.
func (d *Draft) AddIndicator(def apiclient.Definition, catalogID int) string {
	params := make(map[string]any, len(def.DefaultParameters))
	for k, v := range def.DefaultParameters {
		params[k] = v
	}
	name := indicators.SimplifiedName(def.Name, d.Indicators)
	d.Indicators = append(d.Indicators, indicators.Selected{
		IndicatorID:    catalogID,
		IndicatorName:  def.Name,
		SimplifiedName: name,
		Parameters:     params,
		OutputValues:   slices.Clone(def.OutputValues),
	})
	if d.Definitions == nil {
		d.Definitions = map[string][]apiclient.Parameter{}
	}
	d.Definitions[def.Name] = def.Parameters
	return name
}

// RemoveIndicator drops the instance at index i. Names of the remaining
// instances are kept so conditions referring to them stay valid.
func (d *Draft) RemoveIndicator(i int) error {
	if i < 0 || i >= len(d.Indicators) {
		return ErrIndexRange
	}
	d.Indicators = slices.Delete(d.Indicators, i, i+1)
	return nil
}

// SetParameter updates one parameter of instance i after checking it
// against the definition.
func (d *Draft) SetParameter(i int, name string, value any) error {
	if i < 0 || i >= len(d.Indicators) {
		return ErrIndexRange
	}
	sel := &d.Indicators[i]
	schema, known := d.Definitions[sel.IndicatorName]
	if known {
		idx := slices.IndexFunc(schema, func(p apiclient.Parameter) bool { return p.Name == name })
		if idx < 0 {
			return fmt.Errorf("%w %q for %s", ErrUnknownParam, name, sel.SimplifiedName)
		}
		v, err := indicators.CheckParameter(schema[idx], value)
		if err != nil {
			return err
		}
		value = v
	}
	if sel.Parameters == nil {
		sel.Parameters = map[string]any{}
	}
	sel.Parameters[name] = value
	return nil
}

// Fields lists the condition fields the bot type uses.
func (d *Draft) Fields() []expr.Field {
	if d.BotType == BotTypeAdvanced {
		return expr.Fields()
	}
	return []expr.Field{expr.BuyCondition, expr.SellCondition}
}

// Condition returns the text of a condition field.
func (d *Draft) Condition(f expr.Field) string {
	switch f {
	case expr.BuyCondition:
		return d.BuyCondition
	case expr.SellCondition:
		return d.SellCondition
	case expr.TakeProfit:
		return d.TPCondition
	case expr.StopLoss:
		return d.SLCondition
	}
	return ""
}

// SetCondition replaces the text of a condition field.
func (d *Draft) SetCondition(f expr.Field, text string) error {
	switch f {
	case expr.BuyCondition:
		d.BuyCondition = text
	case expr.SellCondition:
		d.SellCondition = text
	case expr.TakeProfit:
		d.TPCondition = text
	case expr.StopLoss:
		d.SLCondition = text
	default:
		return fmt.Errorf("%w %q", ErrUnknownField, f)
	}
	return nil
}

// Tokens lists the indicator identifiers usable in conditions.
func (d *Draft) Tokens() []string {
	return indicators.Tokens(d.Indicators)
}

// Validate checks the basic settings and the local syntax of the used
// condition fields.
func (d *Draft) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if !slices.Contains(Pairs, d.Pair) {
		errs = append(errs, fmt.Errorf("unsupported pair %q", d.Pair))
	}
	if !slices.Contains(Timeframes, d.Timeframe) {
		errs = append(errs, fmt.Errorf("unsupported timeframe %q", d.Timeframe))
	}
	if d.BotType != BotTypeStandard && d.BotType != BotTypeAdvanced {
		errs = append(errs, fmt.Errorf("unsupported bot type %q", d.BotType))
	}
	for _, f := range d.Fields() {
		if err := expr.Precheck(d.Condition(f)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Label(), err))
		}
	}
	return errors.Join(errs...)
}

// CreateRequest builds the backend payload, dropping the UI-only indicator
// fields and the tp/sl conditions of standard bots.
func (d *Draft) CreateRequest() apiclient.BotCreate {
	req := apiclient.BotCreate{
		Name:            strings.TrimSpace(d.Name),
		Description:     d.Description,
		Pair:            d.Pair,
		Timeframe:       d.Timeframe,
		BotType:         d.BotType,
		BuyCondition:    d.BuyCondition,
		SellCondition:   d.SellCondition,
		TelegramChannel: d.TelegramChannel,
		Indicators:      make([]apiclient.BotIndicatorCreate, 0, len(d.Indicators)),
	}
	if d.BotType == BotTypeAdvanced {
		req.TPCondition = d.TPCondition
		req.SLCondition = d.SLCondition
	}
	for _, sel := range d.Indicators {
		req.Indicators = append(req.Indicators, apiclient.BotIndicatorCreate{
			IndicatorID: sel.IndicatorID,
			Parameters:  sel.Parameters,
		})
	}
	return req
}
