package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rncdesk/internal/dto"
	"rncdesk/internal/model"
	"rncdesk/internal/repository"
	"rncdesk/internal/store"
	"rncdesk/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// janelaNotificacao: only records created this recently are notification-worthy.
// Defends against stale records resurfacing through eventual consistency.
const janelaNotificacao = time.Hour

var (
	ErrOcorrenciaNaoEncontrada = errors.New("ocorrência não encontrada")
	ErrSalvamentoEmAndamento   = errors.New("salvamento em andamento, aguarde")
	ErrTransicaoInvalida       = errors.New("transição de status inválida")
	ErrExcluirConcluida        = errors.New("ocorrência concluída não pode ser excluída")
)

// ProjecaoFunc receives the merged, sorted occurrence list after each ingest.
// The slice is a read-only copy; consumers must not mutate it.
type ProjecaoFunc func(ocorrencias []model.Ocorrencia)

// Notificador is the slice of the notification gateway this service needs.
type Notificador interface {
	NotifyGranted(ctx context.Context, titulo, corpo string)
}

// OcorrenciaService owns the occurrence lifecycle: the two in-memory
// projections, every status transition, and notification evaluation. All
// mutations route through here so persistence and projections never diverge.
type OcorrenciaService interface {
	// Iniciar opens the live subscription for the configured ambiente.
	Iniciar(ctx context.Context)
	// TrocarAmbiente cancels the current subscription, resets both projections
	// and resubscribes scoped to the new ambiente.
	TrocarAmbiente(ctx context.Context, ambiente string) error
	Ambiente() string

	Salvar(ctx context.Context, req dto.SalvarOcorrenciaRequest, solicitante, email string) (*model.Ocorrencia, error)
	Rejeitar(ctx context.Context, id uuid.UUID) error
	Concluir(ctx context.Context, id uuid.UUID) error
	Excluir(ctx context.Context, id uuid.UUID) error
	BuscarPorID(ctx context.Context, id uuid.UUID) (*model.Ocorrencia, error)

	// IngestSnapshot rebuilds both projections from a full snapshot. Idempotent.
	IngestSnapshot(ocorrencias []model.Ocorrencia)
	// AvaliarDelta evaluates added/modified records for notification-worthiness.
	AvaliarDelta(alteradas []model.Ocorrencia)

	Pendentes() []model.Ocorrencia
	Concluidas() []model.Ocorrencia
	// RegistrarConsumidor subscribes a projection consumer; the returned func
	// unsubscribes it (wallboard connections come and go).
	RegistrarConsumidor(fn ProjecaoFunc) func()

	// VerificarLembretes scans the pending projection for stale records.
	VerificarLembretes(ctx context.Context)
	// IniciarLembretes starts the 5-minute reminder cron exactly once.
	IniciarLembretes(ctx context.Context)
}

// OcorrenciaDeps wires the service. Dispatcher and RDB may be nil in tests;
// Now defaults to time.Now.
type OcorrenciaDeps struct {
	Repo           repository.OcorrenciaRepository
	Adapter        *store.Adapter
	Notificador    Notificador
	Dispatcher     *worker.Dispatcher
	RDB            *redis.Client
	Ambiente       string
	LimiarLembrete time.Duration
	Now            func() time.Time
}

type ocorrenciaService struct {
	repo        repository.OcorrenciaRepository
	adapter     *store.Adapter
	notificador Notificador
	dispatcher  *worker.Dispatcher
	rdb         *redis.Client
	limiar      time.Duration
	now         func() time.Time

	// salvando is the reentrancy guard on Salvar: rapid double-submits produce
	// exactly one write.
	salvando atomic.Bool

	lembretesOnce sync.Once

	mu           sync.Mutex
	baseCtx      context.Context // set by Iniciar; anchors resubscriptions
	ambiente     string
	pendentes    []model.Ocorrencia
	concluidas   []model.Ocorrencia
	baseline     bool // true once the first snapshot has been ingested
	consumidores map[int]ProjecaoFunc
	proximoID    int
}

func NewOcorrenciaService(deps OcorrenciaDeps) OcorrenciaService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.LimiarLembrete <= 0 {
		deps.LimiarLembrete = 30 * time.Minute
	}
	return &ocorrenciaService{
		repo:         deps.Repo,
		adapter:      deps.Adapter,
		notificador:  deps.Notificador,
		dispatcher:   deps.Dispatcher,
		rdb:          deps.RDB,
		limiar:       deps.LimiarLembrete,
		now:          deps.Now,
		ambiente:     deps.Ambiente,
		consumidores: make(map[int]ProjecaoFunc),
	}
}

// ── Subscription lifecycle ────────────────────────────────────────────────────

func (s *ocorrenciaService) Iniciar(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()
	s.adapter.Subscribe(ctx, s.Ambiente(), s.IngestSnapshot, s.AvaliarDelta)
}

// TrocarAmbiente ignores the caller's context for the new subscription; it is
// anchored to the context given to Iniciar, so a switch triggered by a request
// survives that request.
func (s *ocorrenciaService) TrocarAmbiente(_ context.Context, ambiente string) error {
	if ambiente != "teste" && ambiente != "producao" {
		return fmt.Errorf("ambiente inválido: %q", ambiente)
	}

	s.mu.Lock()
	if s.ambiente == ambiente {
		s.mu.Unlock()
		return nil
	}
	s.ambiente = ambiente
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	// Projections from the old ambiente are meaningless now; the next snapshot
	// is treated as a fresh baseline (no notifications for it).
	s.pendentes = nil
	s.concluidas = nil
	s.baseline = false
	s.mu.Unlock()

	log.Info().Str("ambiente", ambiente).Msg("ocorrencias: ambiente switched")
	// Subscribe cancels the prior subscription before starting the new one.
	s.adapter.Subscribe(ctx, ambiente, s.IngestSnapshot, s.AvaliarDelta)
	return nil
}

func (s *ocorrenciaService) Ambiente() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ambiente
}

// ── Validation gate ───────────────────────────────────────────────────────────

// ValidarItens is the pure guard evaluated before every save: the list must be
// non-empty, every item needs a product code, and quantities must be positive
// integers. Returns nil when valid.
func ValidarItens(itens []dto.ItemOcorrenciaRequest) error {
	if len(itens) == 0 {
		return errors.New("adicione ao menos um item à ocorrência")
	}
	for i, item := range itens {
		if item.Codigo == "" {
			return fmt.Errorf("item %d sem código de produto", i+1)
		}
		if item.Quantidade <= 0 {
			return fmt.Errorf("item %d com quantidade inválida (%d)", i+1, item.Quantidade)
		}
	}
	return nil
}

// ── Write operations ──────────────────────────────────────────────────────────

func (s *ocorrenciaService) Salvar(ctx context.Context, req dto.SalvarOcorrenciaRequest, solicitante, email string) (*model.Ocorrencia, error) {
	if !s.salvando.CompareAndSwap(false, true) {
		return nil, ErrSalvamentoEmAndamento
	}
	defer s.salvando.Store(false)

	if err := ValidarItens(req.Itens); err != nil {
		return nil, err // aborted before any network call
	}

	itens := make([]model.ItemOcorrencia, len(req.Itens))
	for i, it := range req.Itens {
		itens[i] = model.ItemOcorrencia{
			Tipo:             it.Tipo,
			Codigo:           it.Codigo,
			Descricao:        it.Descricao,
			Lote:             it.Lote,
			Quantidade:       it.Quantidade,
			Observacao:       it.Observacao,
			Local:            it.Local,
			EnderecoOriginal: it.Endereco,
		}
	}

	if req.ID == "" {
		// New draft being persisted for the first time: rascunho → pendente.
		o := &model.Ocorrencia{
			Ambiente:         s.Ambiente(),
			Status:           model.StatusPendente,
			Solicitante:      solicitante,
			SolicitanteEmail: email,
			Local:            req.Local,
			Tipo:             req.Tipo,
			Observacoes:      req.Observacoes,
			Itens:            itens,
		}
		if err := s.repo.Create(ctx, o); err != nil {
			return nil, err
		}
		log.Info().Str("id", o.ID.String()).Str("status", string(o.Status)).Msg("ocorrencia created")
		s.publishChange(ctx)
		return o, nil
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, ErrOcorrenciaNaoEncontrada
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrOcorrenciaNaoEncontrada
	}
	if o.Status == model.StatusConcluido {
		return nil, ErrTransicaoInvalida // concluded records are immutable
	}

	o.Status = model.StatusPendente
	o.Rejeitada = false
	o.Solicitante = solicitante
	o.SolicitanteEmail = email
	o.Local = req.Local
	o.Tipo = req.Tipo
	o.Observacoes = req.Observacoes
	o.Itens = itens
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	log.Info().Str("id", o.ID.String()).Msg("ocorrencia updated")
	s.publishChange(ctx)
	return o, nil
}

// Rejeitar sends a pending occurrence back to rascunho, flagged, so the
// requester can fix or delete it. The item list is kept.
func (s *ocorrenciaService) Rejeitar(ctx context.Context, id uuid.UUID) error {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrOcorrenciaNaoEncontrada
	}
	if !o.Status.PodeIrPara(model.StatusRascunho) {
		return ErrTransicaoInvalida
	}
	o.Status = model.StatusRascunho
	o.Rejeitada = true
	if err := s.repo.Update(ctx, o); err != nil {
		return err
	}
	log.Info().Str("id", id.String()).Msg("ocorrencia rejected: pendente → rascunho")
	s.publishChange(ctx)
	return nil
}

func (s *ocorrenciaService) Concluir(ctx context.Context, id uuid.UUID) error {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrOcorrenciaNaoEncontrada
	}
	// Rascunho can never skip pendente to reach concluido.
	if !o.Status.PodeIrPara(model.StatusConcluido) {
		return ErrTransicaoInvalida
	}
	o.Status = model.StatusConcluido
	if err := s.repo.Update(ctx, o); err != nil {
		return err
	}
	log.Info().Str("id", id.String()).Msg("ocorrencia concluded")
	s.publishChange(ctx)
	return nil
}

func (s *ocorrenciaService) Excluir(ctx context.Context, id uuid.UUID) error {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrOcorrenciaNaoEncontrada
	}
	if !o.Status.PodeExcluir() {
		return ErrExcluirConcluida
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("id", id.String()).Msg("ocorrencia permanently deleted")
	s.publishChange(ctx)
	return nil
}

func (s *ocorrenciaService) BuscarPorID(ctx context.Context, id uuid.UUID) (*model.Ocorrencia, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrOcorrenciaNaoEncontrada
	}
	return o, nil
}

// publishChange wakes every subscribed adapter (this instance's included) so
// projections refresh without waiting for the poll tick.
func (s *ocorrenciaService) publishChange(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Publish(ctx, store.ChannelOcorrencias(s.Ambiente()), "1").Err(); err != nil {
		log.Warn().Err(err).Msg("ocorrencias: publish invalidation failed")
	}
}

// ── Projections ───────────────────────────────────────────────────────────────

func (s *ocorrenciaService) IngestSnapshot(ocorrencias []model.Ocorrencia) {
	// Full rebuild on every snapshot. Delivery order from the store is not
	// monotonic, so patching stale state incrementally would corrupt the
	// projections; reconstruct from scratch instead.
	pendentes := make([]model.Ocorrencia, 0, len(ocorrencias))
	concluidas := make([]model.Ocorrencia, 0)
	for _, o := range ocorrencias {
		if o.Status == model.StatusConcluido {
			concluidas = append(concluidas, o)
		} else {
			pendentes = append(pendentes, o)
		}
	}
	ordenarPorCriacaoDesc(pendentes)
	ordenarPorCriacaoDesc(concluidas)

	merged := make([]model.Ocorrencia, 0, len(ocorrencias))
	merged = append(merged, pendentes...)
	merged = append(merged, concluidas...)
	ordenarPorCriacaoDesc(merged)

	s.mu.Lock()
	s.pendentes = pendentes
	s.concluidas = concluidas
	s.baseline = true
	fns := make([]ProjecaoFunc, 0, len(s.consumidores))
	for _, fn := range s.consumidores {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(merged)
	}
}

func (s *ocorrenciaService) AvaliarDelta(alteradas []model.Ocorrencia) {
	s.mu.Lock()
	pronto := s.baseline
	s.mu.Unlock()
	if !pronto {
		// Never notify before the first snapshot: historical data on load is
		// not news.
		return
	}

	agora := s.now()
	for _, o := range alteradas {
		if !notificavel(o, agora) {
			continue
		}
		s.notificador.NotifyGranted(context.Background(),
			"Nova ocorrência",
			fmt.Sprintf("%s registrou uma ocorrência em %s", o.Solicitante, o.Local))
	}
}

// notificavel: created within the last hour. A zero CreatedAt is treated as
// recent, deliberately permissive so malformed records are surfaced rather
// than silently dropped; do not tighten without product input.
func notificavel(o model.Ocorrencia, agora time.Time) bool {
	if o.CreatedAt.IsZero() {
		return true
	}
	return agora.Sub(o.CreatedAt) <= janelaNotificacao
}

func (s *ocorrenciaService) Pendentes() []model.Ocorrencia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Ocorrencia(nil), s.pendentes...)
}

func (s *ocorrenciaService) Concluidas() []model.Ocorrencia {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Ocorrencia(nil), s.concluidas...)
}

func (s *ocorrenciaService) RegistrarConsumidor(fn ProjecaoFunc) func() {
	s.mu.Lock()
	id := s.proximoID
	s.proximoID++
	s.consumidores[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.consumidores, id)
		s.mu.Unlock()
	}
}

func ordenarPorCriacaoDesc(ocorrencias []model.Ocorrencia) {
	sort.SliceStable(ocorrencias, func(i, j int) bool {
		return ocorrencias[i].CreatedAt.After(ocorrencias[j].CreatedAt)
	})
}

// ── Reminders ─────────────────────────────────────────────────────────────────

// VerificarLembretes flags pending occurrences older than the threshold.
// Operates only on the pending projection; concluded records never remind.
func (s *ocorrenciaService) VerificarLembretes(ctx context.Context) {
	limite := s.now().Add(-s.limiar)

	s.mu.Lock()
	var atrasadas int
	for _, o := range s.pendentes {
		if !o.CreatedAt.IsZero() && o.CreatedAt.Before(limite) {
			atrasadas++
		}
	}
	s.mu.Unlock()

	if atrasadas == 0 {
		return
	}

	corpo := fmt.Sprintf("%d ocorrência(s) pendente(s) há mais de %d minutos",
		atrasadas, int(s.limiar.Minutes()))
	log.Info().Int("atrasadas", atrasadas).Msg("lembretes: pending occurrences overdue")

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueNotificacao(ctx, worker.NotificacaoPayload{
			Titulo: "Ocorrências aguardando ação",
			Corpo:  corpo,
		}); err != nil {
			log.Error().Err(err).Msg("lembretes: enqueue failed")
		}
		return
	}
	s.notificador.NotifyGranted(ctx, "Ocorrências aguardando ação", corpo)
}

// IniciarLembretes is safe to call more than once; only the first call starts
// the cron. The flag-based guard in older consoles leaked duplicate timers on
// re-login; sync.Once closes that hole.
func (s *ocorrenciaService) IniciarLembretes(ctx context.Context) {
	s.lembretesOnce.Do(func() {
		worker.StartLembreteCron(ctx, s.VerificarLembretes)
	})
}
