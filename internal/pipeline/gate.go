package pipeline

import "sync/atomic"

// Token identifies one issued load request.
type Token uint64

// Gate hands out monotonically increasing request tokens so that only the
// most recently issued load may publish its result. The zero value is
// ready to use.
type Gate struct {
	latest atomic.Uint64
}

// Issue starts a new request, superseding every earlier token.
func (g *Gate) Issue() Token {
	return Token(g.latest.Add(1))
}

// IsCurrent reports whether tok is still the latest issued token.
func (g *Gate) IsCurrent(tok Token) bool {
	return g.latest.Load() == uint64(tok)
}
