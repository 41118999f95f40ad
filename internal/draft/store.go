package draft

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/db"
)

// Store persists drafts as JSON documents.
type Store struct {
	drafts *db.Drafts
}

func NewStore(d *db.Database) *Store {
	return &Store{drafts: d.Drafts()}
}

func (s *Store) Save(ctx context.Context, d *Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", d.ID, err)
	}
	return s.drafts.Save(ctx, db.DraftRecord{ID: d.ID, Name: d.Name, Data: data})
}

func (s *Store) Load(ctx context.Context, id string) (*Draft, error) {
	rec, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

func (s *Store) List(ctx context.Context) ([]*Draft, error) {
	recs, err := s.drafts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Draft, 0, len(recs))
	for _, rec := range recs {
		d, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.drafts.Delete(ctx, id)
}

func decode(rec db.DraftRecord) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(rec.Data, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", rec.ID, err)
	}
	return &d, nil
}
