package memstore

import (
	"context"

	"github.com/chainsafe/custody-ledger/pkg/conversion"
)

func (s *Store) CreateConversion(ctx context.Context, r *conversion.Record) error {
	defer s.lock(ctx)()
	cp := *r
	s.d.conversions = append(s.d.conversions, &cp)
	return nil
}

func (s *Store) ListConversions(ctx context.Context, userID string, limit int) ([]*conversion.Record, error) {
	defer s.lock(ctx)()
	var out []*conversion.Record
	for i := len(s.d.conversions) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if r := s.d.conversions[i]; r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ conversion.Store = (*Store)(nil)
