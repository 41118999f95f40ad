package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

// Login exchanges credentials for an access token. The backend expects an
// OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	var tok Token
	err := c.doForm(ctx, "/auth/login", form, &tok)
	return tok, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var u User
	err := c.do(ctx, http.MethodPost, "/auth/register", req, &u)
	return u, err
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u)
	return u, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Bots

func botPath(id int) string { return "/bots/" + strconv.Itoa(id) }

func (c *Client) ListBots(ctx context.Context) ([]Bot, error) {
	var bots []Bot
	err := c.do(ctx, http.MethodGet, collection("/bots"), nil, &bots)
	return bots, err
}

func (c *Client) GetBot(ctx context.Context, id int) (BotWithIndicators, error) {
	var b BotWithIndicators
	err := c.do(ctx, http.MethodGet, botPath(id), nil, &b)
	return b, err
}

func (c *Client) CreateBot(ctx context.Context, req BotCreate) (Bot, error) {
	if req.Indicators == nil {
		req.Indicators = []BotIndicatorCreate{}
	}
	var b Bot
	err := c.do(ctx, http.MethodPost, collection("/bots"), req, &b)
	return b, err
}

func (c *Client) UpdateBot(ctx context.Context, id int, req BotUpdate) (Bot, error) {
	var b Bot
	err := c.do(ctx, http.MethodPut, botPath(id), req, &b)
	return b, err
}

func (c *Client) DeleteBot(ctx context.Context, id int) (Bot, error) {
	var b Bot
	err := c.do(ctx, http.MethodDelete, botPath(id), nil, &b)
	return b, err
}

func (c *Client) StartBot(ctx context.Context, id int) (Bot, error) {
	var b Bot
	err := c.do(ctx, http.MethodPost, botPath(id)+"/start", nil, &b)
	return b, err
}

func (c *Client) StopBot(ctx context.Context, id int) (Bot, error) {
	var b Bot
	err := c.do(ctx, http.MethodPost, botPath(id)+"/stop", nil, &b)
	return b, err
}

func (c *Client) BotPerformance(ctx context.Context, id int) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, botPath(id)+"/performance", nil, &out)
	return out, err
}

type validateRequest struct {
	Expression string    `json:"expression"`
	Type       expr.Kind `json:"type"`
}

// ValidateExpression asks the backend whether expression parses as kind.
// A rejected expression is a Verdict with Valid false, not an error.
func (c *Client) ValidateExpression(ctx context.Context, expression string, kind expr.Kind) (expr.Verdict, error) {
	var v expr.Verdict
	err := c.do(ctx, http.MethodPost, "/bots/validate-expression", validateRequest{Expression: expression, Type: kind}, &v)
	return v, err
}

// Indicators

func (c *Client) ListIndicators(ctx context.Context) ([]Indicator, error) {
	var out []Indicator
	err := c.do(ctx, http.MethodGet, collection("/indicators"), nil, &out)
	return out, err
}

func (c *Client) GetIndicator(ctx context.Context, id int) (Indicator, error) {
	var out Indicator
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/indicators/%d", id), nil, &out)
	return out, err
}

// AvailableIndicators lists the definitions with their parameter schemas.
func (c *Client) AvailableIndicators(ctx context.Context) ([]Definition, error) {
	var out []Definition
	err := c.do(ctx, http.MethodGet, "/indicators/available", nil, &out)
	return out, err
}

// Backtests

func (c *Client) ListBacktests(ctx context.Context) ([]Backtest, error) {
	var out []Backtest
	err := c.do(ctx, http.MethodGet, collection("/backtests"), nil, &out)
	return out, err
}

func (c *Client) GetBacktest(ctx context.Context, id int) (Backtest, error) {
	var out Backtest
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/backtests/%d", id), nil, &out)
	return out, err
}

func (c *Client) CreateBacktest(ctx context.Context, req BacktestCreate) (Backtest, error) {
	var out Backtest
	err := c.do(ctx, http.MethodPost, collection("/backtests"), req, &out)
	return out, err
}

func (c *Client) DeleteBacktest(ctx context.Context, id int) (Backtest, error) {
	var out Backtest
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/backtests/%d", id), nil, &out)
	return out, err
}

// Performance

func (c *Client) PerformanceSummary(ctx context.Context) (PerformanceSummary, error) {
	var out PerformanceSummary
	err := c.do(ctx, http.MethodGet, collection("/performance"), nil, &out)
	return out, err
}

func (c *Client) Trades(ctx context.Context, f TradeFilter) ([]Trade, error) {
	q := url.Values{}
	if f.BotID > 0 {
		q.Set("bot_id", strconv.Itoa(f.BotID))
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	path := "/performance/trades"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []Trade
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) BotsComparison(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, http.MethodGet, "/performance/bots/comparison", nil, &out)
	return out, err
}

// Marketing

func (c *Client) Tutorials(ctx context.Context) ([]Tutorial, error) {
	var out []Tutorial
	err := c.do(ctx, http.MethodGet, "/marketing/tutorials", nil, &out)
	return out, err
}

func (c *Client) Tutorial(ctx context.Context, slug string) (Tutorial, error) {
	var out Tutorial
	err := c.do(ctx, http.MethodGet, "/marketing/tutorials/"+url.PathEscape(slug), nil, &out)
	return out, err
}

func (c *Client) Opinions(ctx context.Context) ([]Opinion, error) {
	var out []Opinion
	err := c.do(ctx, http.MethodGet, "/marketing/opinions", nil, &out)
	return out, err
}
