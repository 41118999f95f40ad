package palette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

func TestDefaultPalette(t *testing.T) {
	p := Default()
	if len(p.Variables) != 8 || p.Variables[0].Name != "current_price" || p.Variables[7].Name != "entry_price" {
		t.Fatalf("variables = %+v", p.Variables)
	}
	if len(p.Operators) != 17 {
		t.Fatalf("operators = %d", len(p.Operators))
	}
	if len(p.Functions) != 8 || p.Functions[1].Insert != "max(,)" {
		t.Fatalf("functions = %+v", p.Functions)
	}
	if len(p.Constants) != 10 || p.Constants[2].Value != "1.05" {
		t.Fatalf("constants = %+v", p.Constants)
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	doc := "variables:\n  - name: close\n    description: Close\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil || len(p.Variables) != 1 || len(p.Operators) != 0 {
		t.Fatalf("Load = %+v, %v", p, err)
	}
	if _, err := Parse([]byte("operators: []\n")); err == nil {
		t.Fatal("palette without variables must be rejected")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestInsert(t *testing.T) {
	cases := []struct{ text, el, want string }{
		{"", "close", "close"},
		{"close", ">", "close >"},
		{"close > ", "open", "close > open"},
	}
	for _, c := range cases {
		if got := Insert(c.text, c.el); got != c.want {
			t.Errorf("Insert(%q, %q) = %q", c.text, c.el, got)
		}
	}
}

func TestExampleWithoutIndicators(t *testing.T) {
	want := map[expr.Field]string{
		expr.BuyCondition:  "current_price > previous_price",
		expr.SellCondition: "current_price < previous_price",
		expr.TakeProfit:    "current_price >= entry_price * 1.05",
		expr.StopLoss:      "current_price <= entry_price * 0.95",
	}
	for f, w := range want {
		if got := Example(f, nil); got != w {
			t.Errorf("Example(%s) = %q, want %q", f, got, w)
		}
	}
}

func TestExamplePrefersRSI(t *testing.T) {
	selected := []indicators.Selected{
		{IndicatorName: "Moving Average", SimplifiedName: "MovingAverage1"},
		{IndicatorName: "RSI", SimplifiedName: "RSI1"},
	}
	if got := Example(expr.BuyCondition, selected); got != "RSI1 < 30 and close > open" {
		t.Fatalf("buy = %q", got)
	}
	if got := Example(expr.SellCondition, selected); got != "RSI1 > 70 or close < open" {
		t.Fatalf("sell = %q", got)
	}
	if got := Example(expr.TakeProfit, selected); got != "current_price >= entry_price * 1.05" {
		t.Fatalf("tp = %q", got)
	}
}

func TestExampleMovingAverage(t *testing.T) {
	selected := []indicators.Selected{
		{IndicatorName: "ATR", SimplifiedName: "ATR1"},
		{IndicatorName: "EMA"},
	}
	if got := Example(expr.BuyCondition, selected); got != "close > MA2 and current_price > previous_price" {
		t.Fatalf("buy = %q", got)
	}
	if got := Example(expr.SellCondition, selected); got != "close < MA2 or current_price < previous_price" {
		t.Fatalf("sell = %q", got)
	}
}

func TestExampleFirstIndicator(t *testing.T) {
	selected := []indicators.Selected{{IndicatorName: "Bollinger Bands"}}
	if got := Example(expr.BuyCondition, selected); got != "BollingerBands1 > 0 and current_price > previous_price" {
		t.Fatalf("buy = %q", got)
	}
	if got := Example(expr.SellCondition, selected); got != "BollingerBands1 < 0 or current_price < previous_price" {
		t.Fatalf("sell = %q", got)
	}
}
