package worker

// Failed jobs land on a per-queue dead letter list (dlq:<fila>) so an
// administrator can inspect and replay them. The pool does no inline retries;
// replay is an explicit operator action.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const dlqPrefix = "dlq:"

// JobFalho records one failed job with enough context to replay it.
type JobFalho struct {
	Fila     string          `json:"fila"`
	Tipo     string          `json:"tipo"`
	Payload  json.RawMessage `json:"payload"`
	Motivo   string          `json:"motivo"`
	FalhouEm time.Time       `json:"falhou_em"`
}

func registrarFalha(ctx context.Context, rdb *redis.Client, fila string, job Job, motivo string) {
	entrada := JobFalho{
		Fila:     fila,
		Tipo:     job.Type,
		Payload:  job.Payload,
		Motivo:   motivo,
		FalhouEm: time.Now().UTC(),
	}

	data, err := json.Marshal(entrada)
	if err != nil {
		log.Error().Err(err).Str("fila", fila).Msg("dlq: marshal entry")
		return
	}
	if err := rdb.LPush(ctx, dlqPrefix+fila, data).Err(); err != nil {
		log.Error().Err(err).Str("fila", fila).Msg("dlq: push failed")
		return
	}

	log.Warn().
		Str("fila", fila).
		Str("tipo", job.Type).
		Str("motivo", motivo).
		Msg("dlq: job moved to dead letter queue")
}

// TamanhoDLQ reports how many failed jobs a queue has accumulated.
func TamanhoDLQ(ctx context.Context, rdb *redis.Client, fila string) (int64, error) {
	return rdb.LLen(ctx, dlqPrefix+fila).Result()
}

// ReprocessarDLQ moves up to max failed jobs back onto their original queue,
// oldest first, and returns how many were requeued. Entries that no longer
// decode are dropped with a log line.
func ReprocessarDLQ(ctx context.Context, rdb *redis.Client, fila string, max int) (int, error) {
	requeued := 0
	for requeued < max {
		raw, err := rdb.RPop(ctx, dlqPrefix+fila).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return requeued, err
		}

		var entrada JobFalho
		if err := json.Unmarshal([]byte(raw), &entrada); err != nil {
			log.Error().Err(err).Str("fila", fila).Msg("dlq: dropping undecodable entry")
			continue
		}
		job, err := json.Marshal(Job{Type: entrada.Tipo, Payload: entrada.Payload})
		if err != nil {
			return requeued, err
		}
		if err := rdb.LPush(ctx, fila, job).Err(); err != nil {
			return requeued, err
		}
		requeued++
	}
	if requeued > 0 {
		log.Info().Str("fila", fila).Int("requeued", requeued).Msg("dlq: jobs requeued")
	}
	return requeued, nil
}
