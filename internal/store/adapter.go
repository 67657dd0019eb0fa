// Package store maintains the live view over the occurrence collection.
// The adapter owns at most one active subscription at a time, scoped by
// ambiente and a rolling window starting at the first day of the current
// month. Whether a refresh is triggered by a Redis invalidation message or by
// the poll ticker is invisible to consumers: each wake delivers the full
// current snapshot plus the added/modified delta against the previous one.
package store

import (
	"context"
	"sync"
	"time"

	"rncdesk/internal/model"
	"rncdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SnapshotFunc receives the full current window, newest first. The slice is
// owned by the callee.
type SnapshotFunc func(ocorrencias []model.Ocorrencia)

// DeltaFunc receives only records added or modified since the previous
// snapshot. Never called for the baseline load.
type DeltaFunc func(alteradas []model.Ocorrencia)

// ChannelOcorrencias names the Redis invalidation channel for one ambiente.
func ChannelOcorrencias(ambiente string) string { return "ocorrencias:changed:" + ambiente }

// InicioDoMes returns the first instant of t's month, in t's location.
func InicioDoMes(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Adapter translates store updates into typed snapshots. It never mutates an
// occurrence; its only side effect is invoking the registered callbacks.
type Adapter struct {
	repo repository.OcorrenciaRepository
	rdb  *redis.Client // nil = poll-only (unit tests, degraded mode)
	poll time.Duration
	now  func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewAdapter(repo repository.OcorrenciaRepository, rdb *redis.Client, poll time.Duration) *Adapter {
	if poll <= 0 {
		poll = 15 * time.Second
	}
	return &Adapter{repo: repo, rdb: rdb, poll: poll, now: time.Now}
}

// Subscribe replaces any prior subscription; the old one is cancelled before
// the new one starts, so callbacks from a stale ambiente never fire after a
// switch. The returned func cancels this subscription.
func (a *Adapter) Subscribe(ctx context.Context, ambiente string, onSnapshot SnapshotFunc, onDelta DeltaFunc) func() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	subCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	go a.run(subCtx, ambiente, onSnapshot, onDelta)
	return cancel
}

// Close cancels the active subscription, if any.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Adapter) run(ctx context.Context, ambiente string, onSnapshot SnapshotFunc, onDelta DeltaFunc) {
	var wake <-chan *redis.Message
	if a.rdb != nil {
		pubsub := a.rdb.Subscribe(ctx, ChannelOcorrencias(ambiente))
		defer pubsub.Close()
		wake = pubsub.Channel()
	}

	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	log.Info().Str("ambiente", ambiente).Msg("store: subscription started")

	// visto maps id → updated_at of the previous snapshot, for delta detection.
	visto := make(map[uuid.UUID]time.Time)
	baseline := true

	refresh := func() {
		agora := a.now()
		ocorrencias, err := a.repo.ListDesde(ctx, ambiente, InicioDoMes(agora))
		// A load in flight when Subscribe cancels this subscription may still
		// return data; a cancelled subscription never delivers.
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			// Degrade to an empty projection; the UI shows "lista indisponível".
			// No automatic retry beyond the next tick.
			log.Error().Err(err).Str("ambiente", ambiente).Msg("store: snapshot load failed")
			onSnapshot(nil)
			return
		}

		var alteradas []model.Ocorrencia
		proximo := make(map[uuid.UUID]time.Time, len(ocorrencias))
		for _, o := range ocorrencias {
			proximo[o.ID] = o.UpdatedAt
			anterior, existia := visto[o.ID]
			if !existia || o.UpdatedAt.After(anterior) {
				alteradas = append(alteradas, o)
			}
		}
		visto = proximo

		onSnapshot(ocorrencias)
		// The baseline is historical data; notifying for it on load would spam
		// every console that connects.
		if !baseline && len(alteradas) > 0 && onDelta != nil {
			onDelta(alteradas)
		}
		baseline = false
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("ambiente", ambiente).Msg("store: subscription cancelled")
			return
		case <-ticker.C:
			refresh()
		case _, ok := <-wake:
			if !ok {
				wake = nil // pub/sub closed; keep polling
				continue
			}
			refresh()
		}
	}
}
