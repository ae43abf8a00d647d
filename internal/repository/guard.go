package repository

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// callGuard serializes persistence operations process-wide. At most one
// goroutine touches the database at a time, which keeps a player's ledger and
// bank pair from interleaving partial writes. This is a correctness safety
// net, not a performance feature.
//
// Unlike the reentrant lock it replaces, sync.Mutex does not support nested
// acquisition: repository methods therefore never call other guarded methods.
// Compound operations compose unexported, unguarded variants under a single
// do call.
type callGuard struct {
	mu  sync.Mutex
	log *logrus.Logger
}

// do runs fn under the guard, releasing it on every exit path.
func (g *callGuard) do(label string, fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.log != nil {
		g.log.Debugf("db call: %s", label)
	}
	return fn()
}
