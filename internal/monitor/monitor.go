package monitor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
)

// Monitor folds bus events into the gateway metrics.
type Monitor struct {
	Bus     *events.Bus
	Metrics *GatewayMetrics
	Log     zerolog.Logger
}

// Start subscribes to the validation and editor topics until ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.Metrics == nil {
		m.Log.Warn().Msg("monitor not fully configured; skipping")
		return
	}
	topics := []events.Event{
		events.EventValidationRequest,
		events.EventValidationResult,
		events.EventValidationStale,
		events.EventEditorConnected,
		events.EventEditorDisconnected,
	}
	for _, topic := range topics {
		stream, unsub := m.Bus.Subscribe(topic, 256)
		go m.consume(ctx, topic, stream, unsub)
	}
}

func (m *Monitor) consume(ctx context.Context, topic events.Event, stream <-chan any, unsub func()) {
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-stream:
			if !ok {
				return
			}
			m.apply(topic, msg)
		}
	}
}

func (m *Monitor) apply(topic events.Event, msg any) {
	switch topic {
	case events.EventValidationRequest:
		m.Metrics.IncrementRequested()
	case events.EventValidationResult:
		if v, ok := msg.(events.Validation); ok {
			m.Metrics.RecordResult(v.State, v.Failed, v.Took)
			if v.Failed {
				m.Log.Warn().Str("conn", v.ConnID).Str("field", v.Field).Uint64("seq", v.Seq).Msg("validation failed")
			}
		}
	case events.EventValidationStale:
		m.Metrics.IncrementStale()
	case events.EventEditorConnected:
		m.Metrics.EditorConnected()
	case events.EventEditorDisconnected:
		m.Metrics.EditorDisconnected()
	}
}
