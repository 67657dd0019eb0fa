package worker

// lembrete_cron.go
// Background goroutine that ticks every 5 minutes and asks the lifecycle
// service to scan the pending projection for occurrences awaiting action
// beyond the configured threshold. The cadence is contractual; the threshold
// is policy (config).

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const lembreteTickInterval = 5 * time.Minute

// StartLembreteCron launches the reminder goroutine. Callers must guard
// against double starts; the lifecycle service does so with sync.Once.
func StartLembreteCron(ctx context.Context, verificar func(context.Context)) {
	go func() {
		ticker := time.NewTicker(lembreteTickInterval)
		defer ticker.Stop()

		log.Info().Msg("lembrete_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("lembrete_cron: shutting down")
				return
			case <-ticker.C:
				verificar(ctx)
			}
		}
	}()
}
