package pipeline

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cineform-go/cineform/internal/cfhdlog"
	"github.com/cineform-go/cineform/internal/vlc"
)

// fsmCache builds each codebook's FSM table once and reuses it across
// bands and frames, keyed by codebook name (the only three codebooks ever
// in play are vlc.ProfileFine/Medium/Coarse, since CodebookForQuantizer
// maps every Q to one of those three). Rebuilt lazily on a miss under a
// single write-lock holder; every other caller blocks behind the
// read-then-upgrade double-check rather than racing to build duplicates.
type fsmCache struct {
	mu    sync.RWMutex
	table map[string]*vlc.FSM
	log   cfhdlog.Logger
}

func newFSMCache(log cfhdlog.Logger) *fsmCache {
	return &fsmCache{table: make(map[string]*vlc.FSM), log: log}
}

func (c *fsmCache) get(cb *vlc.Codebook) (*vlc.FSM, error) {
	c.mu.RLock()
	fsm, ok := c.table[cb.Name]
	c.mu.RUnlock()
	if ok {
		return fsm, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if fsm, ok := c.table[cb.Name]; ok {
		return fsm, nil
	}
	c.log.Debug("pipeline: fsm cache miss", "codebook", cb.Name)
	built, err := vlc.BuildFSM(cb)
	if err != nil {
		return nil, errors.Wrapf(err, "build fsm for codebook %s", cb.Name)
	}
	c.table[cb.Name] = built
	return built, nil
}
