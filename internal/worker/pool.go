package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotificacao = "jobs:notificacao"
	QueueEmail       = "jobs:email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificacaoPayload fans a message out to every console with notification
// permission granted (reminders, dashboard alerts).
type NotificacaoPayload struct {
	Titulo string `json:"titulo"`
	Corpo  string `json:"corpo"`
}

// EmailChamadoPayload mails the leader list about a chamado.
type EmailChamadoPayload struct {
	Solicitante string    `json:"solicitante"`
	Local       string    `json:"local"`
	CriadoEm    time.Time `json:"criado_em"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueNotificacao pushes a console-notification job to Redis.
func (d *Dispatcher) EnqueueNotificacao(ctx context.Context, payload NotificacaoPayload) error {
	return d.enqueue(ctx, QueueNotificacao, "notificacao", payload)
}

// EnqueueEmailChamado pushes a leader-mail job to Redis.
func (d *Dispatcher) EnqueueEmailChamado(ctx context.Context, payload EmailChamadoPayload) error {
	return d.enqueue(ctx, QueueEmail, "email_chamado", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// WorkerHandlers holds the concrete processors, wired at the composition root.
type WorkerHandlers struct {
	Notificacao *NotificacaoWorker
	Email       *EmailWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueNotificacao, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "notificacao":
		err = handlers.Notificacao.Process(ctx, job.Payload)
	case "email_chamado":
		err = handlers.Email.Process(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
		return
	}

	if err != nil {
		// No inline retry: failed jobs go straight to the DLQ for inspection.
		log.Error().Str("type", job.Type).Err(err).Msg("job failed")
		registrarFalha(ctx, rdb, queue, job, err.Error())
	}
}
