package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New("debug", "json", &buf), "gateway")
	log.Info().Str("field", "buy_condition").Msg("validated")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["component"] != "gateway" || line["field"] != "buy_condition" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "json", &buf)
	log.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn, got %q", buf.String())
	}
	log.Warn().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", "json", &buf)
	log.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug should be filtered at the default level")
	}
}
