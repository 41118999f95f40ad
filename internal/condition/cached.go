package condition

import (
	"context"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/cache"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

// CachedRemote answers repeated (kind, expression) pairs from a short-lived
// cache, within one scope. Only successful answers are cached, so a failure
// is retried on the next edit rather than remembered.
type CachedRemote struct {
	next  Remote
	cache *cache.VerdictCache
	scope string
}

// NewCachedRemote wraps next. scope identifies the credentials next calls
// the backend with; verdicts stored under one scope are never served to
// another.
func NewCachedRemote(next Remote, c *cache.VerdictCache, scope string) *CachedRemote {
	return &CachedRemote{next: next, cache: c, scope: scope}
}

func (r *CachedRemote) ValidateExpression(ctx context.Context, expression string, kind expr.Kind) (expr.Verdict, error) {
	if v, ok := r.cache.Get(r.scope, kind, expression); ok {
		return v, nil
	}
	v, err := r.next.ValidateExpression(ctx, expression, kind)
	if err != nil {
		return v, err
	}
	r.cache.Set(r.scope, kind, expression, v)
	return v, nil
}
