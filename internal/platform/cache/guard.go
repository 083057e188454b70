package cache

import (
	"context"
	"sync"
	"time"
)

// GuardedStore agrega un contador de generación a un Store. Cada
// InvalidateMatching lo incrementa; SetIfGeneration sólo guarda si no hubo
// invalidaciones desde que se leyó la generación. Así una respuesta calculada
// antes de una mutación no vuelve a entrar al cache después de invalidarlo.
//
// El lock es del proceso: con Redis compartido, las invalidaciones de otras
// réplicas no se ven acá.
type GuardedStore struct {
	store Store

	mu  sync.RWMutex
	gen uint64
}

func NewGuardedStore(s Store) *GuardedStore {
	return &GuardedStore{store: s}
}

func (g *GuardedStore) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.gen
}

func (g *GuardedStore) Get(ctx context.Context, key string) ([]byte, bool) {
	return g.store.Get(ctx, key)
}

// Set guarda sin chequear generación.
func (g *GuardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	g.store.Set(ctx, key, value, ttl)
}

// SetIfGeneration devuelve false (y no guarda) si gen ya no es la actual.
func (g *GuardedStore) SetIfGeneration(ctx context.Context, gen uint64, key string, value []byte, ttl time.Duration) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.gen != gen {
		return false
	}
	g.store.Set(ctx, key, value, ttl)
	return true
}

func (g *GuardedStore) InvalidateMatching(ctx context.Context, pattern string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.store.InvalidateMatching(ctx, pattern)
}
