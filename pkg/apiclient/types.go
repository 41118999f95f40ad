package apiclient

import "time"

// User is the authenticated account.
type User struct {
	ID             int       `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	IsActive       bool      `json:"is_active"`
	SubscriptionID *int      `json:"subscription_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Token is the login answer.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Bot is a trading bot as listed by the backend.
type Bot struct {
	ID              int       `json:"id"`
	UserID          int       `json:"user_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Pair            string    `json:"pair"`
	Timeframe       string    `json:"timeframe"`
	BuyCondition    string    `json:"buy_condition,omitempty"`
	SellCondition   string    `json:"sell_condition,omitempty"`
	TelegramChannel string    `json:"telegram_channel,omitempty"`
	IsActive        bool      `json:"is_active"`
	IsRunning       bool      `json:"is_running"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BotWithIndicators is the bot detail view.
type BotWithIndicators struct {
	Bot
	Indicators []BotIndicator `json:"indicators"`
}

// BotIndicator is an indicator attached to a bot.
type BotIndicator struct {
	ID          int            `json:"id"`
	BotID       int            `json:"bot_id"`
	IndicatorID int            `json:"indicator_id"`
	Parameters  map[string]any `json:"parameters"`
	Indicator   *Indicator     `json:"indicator,omitempty"`
}

// BotIndicatorCreate attaches a catalog indicator with its parameters.
type BotIndicatorCreate struct {
	IndicatorID int            `json:"indicator_id"`
	Parameters  map[string]any `json:"parameters"`
}

// BotCreate is the creation payload.
type BotCreate struct {
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	Pair            string               `json:"pair"`
	Timeframe       string               `json:"timeframe"`
	BotType         string               `json:"bot_type,omitempty"`
	BuyCondition    string               `json:"buy_condition,omitempty"`
	SellCondition   string               `json:"sell_condition,omitempty"`
	TPCondition     string               `json:"tp_condition,omitempty"`
	SLCondition     string               `json:"sl_condition,omitempty"`
	TelegramChannel string               `json:"telegram_channel,omitempty"`
	Indicators      []BotIndicatorCreate `json:"indicators"`
}

// BotUpdate carries only the fields to change.
type BotUpdate struct {
	Name            *string              `json:"name,omitempty"`
	Description     *string              `json:"description,omitempty"`
	Pair            *string              `json:"pair,omitempty"`
	Timeframe       *string              `json:"timeframe,omitempty"`
	BuyCondition    *string              `json:"buy_condition,omitempty"`
	SellCondition   *string              `json:"sell_condition,omitempty"`
	TelegramChannel *string              `json:"telegram_channel,omitempty"`
	IsActive        *bool                `json:"is_active,omitempty"`
	Indicators      []BotIndicatorCreate `json:"indicators,omitempty"`
}

// Indicator is a catalog row. Type carries the definition name the row
// stands for.
type Indicator struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
	IsActive    bool           `json:"is_active"`
}

// Parameter describes one tunable of an indicator definition.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // number, boolean, string, select
	Description string   `json:"description"`
	Default     any      `json:"default"`
	MinValue    *float64 `json:"min_value,omitempty"`
	MaxValue    *float64 `json:"max_value,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Definition is an indicator the backend can compute.
type Definition struct {
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Parameters        []Parameter    `json:"parameters"`
	DefaultParameters map[string]any `json:"default_parameters"`
	OutputValues      []string       `json:"output_values,omitempty"`
}

// Backtest is a stored backtest run.
type Backtest struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	BotID          int            `json:"bot_id"`
	UserID         int            `json:"user_id"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	InitialCapital float64        `json:"initial_capital"`
	Status         string         `json:"status"`
	Pair           string         `json:"pair"`
	Timeframe      string         `json:"timeframe"`
	Results        map[string]any `json:"results,omitempty"`
	WinRate        *float64       `json:"win_rate,omitempty"`
	ProfitFactor   *float64       `json:"profit_factor,omitempty"`
	TotalTrades    *int           `json:"total_trades,omitempty"`
	AverageProfit  *float64       `json:"average_profit,omitempty"`
	MaxDrawdown    *float64       `json:"max_drawdown,omitempty"`
	SharpeRatio    *float64       `json:"sharpe_ratio,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// BacktestCreate starts a backtest.
type BacktestCreate struct {
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	BotID          int       `json:"bot_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
}

// PerformanceSummary aggregates closed trades.
type PerformanceSummary struct {
	TotalTrades       int              `json:"total_trades"`
	WinningTrades     int              `json:"winning_trades"`
	LosingTrades      int              `json:"losing_trades"`
	WinRate           float64          `json:"win_rate"`
	ProfitFactor      *float64         `json:"profit_factor,omitempty"`
	TotalProfitLoss   float64          `json:"total_profit_loss"`
	AverageProfitLoss float64          `json:"average_profit_loss"`
	MaxDrawdown       *float64         `json:"max_drawdown,omitempty"`
	SharpeRatio       *float64         `json:"sharpe_ratio,omitempty"`
	TimeSeries        []map[string]any `json:"time_series,omitempty"`
}

// Trade is one executed trade.
type Trade struct {
	ID                int        `json:"id"`
	BotID             int        `json:"bot_id"`
	Pair              string     `json:"pair"`
	Timeframe         string     `json:"timeframe"`
	Type              string     `json:"type"`
	EntryPrice        float64    `json:"entry_price"`
	ExitPrice         *float64   `json:"exit_price,omitempty"`
	Quantity          float64    `json:"quantity"`
	ExitReason        string     `json:"exit_reason,omitempty"`
	ProfitLoss        *float64   `json:"profit_loss,omitempty"`
	ProfitLossPercent *float64   `json:"profit_loss_percent,omitempty"`
	Status            string     `json:"status"`
	EntryTime         time.Time  `json:"entry_time"`
	ExitTime          *time.Time `json:"exit_time,omitempty"`
}

// TradeFilter narrows the trade listing.
type TradeFilter struct {
	BotID  int
	Status string
	Skip   int
	Limit  int
}

// Tutorial is a marketing article.
type Tutorial struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Opinion is a customer testimonial.
type Opinion struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Content  string `json:"content"`
	Rating   int    `json:"rating"`
}
