package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rncdesk/internal/dto"
	"rncdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeOcorrenciaRepo struct {
	mu        sync.Mutex
	registros map[uuid.UUID]*model.Ocorrencia
	creates   int
	// bloquearCreate, when non-nil, makes Create wait until the channel closes.
	bloquearCreate chan struct{}
}

func newFakeOcorrenciaRepo() *fakeOcorrenciaRepo {
	return &fakeOcorrenciaRepo{registros: make(map[uuid.UUID]*model.Ocorrencia)}
}

func (r *fakeOcorrenciaRepo) Create(_ context.Context, o *model.Ocorrencia) error {
	r.mu.Lock()
	bloqueio := r.bloquearCreate
	r.mu.Unlock()
	if bloqueio != nil {
		<-bloqueio
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	copia := *o
	r.registros[o.ID] = &copia
	r.creates++
	return nil
}

func (r *fakeOcorrenciaRepo) Update(_ context.Context, o *model.Ocorrencia) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.UpdatedAt = time.Now()
	copia := *o
	r.registros[o.ID] = &copia
	return nil
}

func (r *fakeOcorrenciaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registros, id)
	return nil
}

func (r *fakeOcorrenciaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ocorrencia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.registros[id]
	if !ok {
		return nil, ErrOcorrenciaNaoEncontrada
	}
	copia := *o
	return &copia, nil
}

func (r *fakeOcorrenciaRepo) ListDesde(_ context.Context, ambiente string, desde time.Time) ([]model.Ocorrencia, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Ocorrencia
	for _, o := range r.registros {
		if o.Ambiente == ambiente && !o.CreatedAt.Before(desde) {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeNotificador struct {
	mu        sync.Mutex
	mensagens []string
}

func (n *fakeNotificador) NotifyGranted(_ context.Context, titulo, corpo string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mensagens = append(n.mensagens, titulo+": "+corpo)
}

func (n *fakeNotificador) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mensagens)
}

func novoServicoTeste(repo *fakeOcorrenciaRepo, notif *fakeNotificador, agora func() time.Time) OcorrenciaService {
	return NewOcorrenciaService(OcorrenciaDeps{
		Repo:        repo,
		Notificador: notif,
		Ambiente:    "producao",
		Now:         agora,
	})
}

func requisicaoValida() dto.SalvarOcorrenciaRequest {
	return dto.SalvarOcorrenciaRequest{
		Local: "DOCA-03",
		Tipo:  "recebimento",
		Itens: []dto.ItemOcorrenciaRequest{
			{Tipo: model.ItemFalta, Codigo: "SKU-100", Quantidade: 2},
		},
	}
}

// ── Validation gate ───────────────────────────────────────────────────────────

func TestValidarItens(t *testing.T) {
	t.Run("lista vazia", func(t *testing.T) {
		err := ValidarItens(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ao menos um item")
	})

	t.Run("item sem codigo", func(t *testing.T) {
		err := ValidarItens([]dto.ItemOcorrenciaRequest{
			{Tipo: model.ItemFalta, Quantidade: 1},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sem código")
	})

	t.Run("quantidade zero", func(t *testing.T) {
		err := ValidarItens([]dto.ItemOcorrenciaRequest{
			{Tipo: model.ItemSobra, Codigo: "SKU-1", Quantidade: 0},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quantidade inválida")
	})

	t.Run("quantidade negativa", func(t *testing.T) {
		err := ValidarItens([]dto.ItemOcorrenciaRequest{
			{Tipo: model.ItemAvaria, Codigo: "SKU-1", Quantidade: -3},
		})
		require.Error(t, err)
	})

	t.Run("lista valida", func(t *testing.T) {
		assert.NoError(t, ValidarItens([]dto.ItemOcorrenciaRequest{
			{Tipo: model.ItemFalta, Codigo: "SKU-1", Quantidade: 1},
			{Tipo: model.ItemSobra, Codigo: "SKU-2", Quantidade: 5},
		}))
	})
}

// ── Salvar ────────────────────────────────────────────────────────────────────

func TestSalvarCriaPendente(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)

	o, err := svc.Salvar(context.Background(), requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendente, o.Status)
	assert.Equal(t, "producao", o.Ambiente)
	assert.Equal(t, "Maria", o.Solicitante)
	assert.Equal(t, 1, repo.creates)
}

func TestSalvarRejeitaListaInvalidaAntesDeGravar(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)

	req := requisicaoValida()
	req.Itens = nil
	_, err := svc.Salvar(context.Background(), req, "Maria", "maria@acme.com")

	require.Error(t, err)
	assert.Zero(t, repo.creates, "nothing may be written when the gate rejects")
}

func TestSalvarGuardaContraReentrada(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	repo.bloquearCreate = make(chan struct{})
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)

	primeiro := make(chan error, 1)
	go func() {
		_, err := svc.Salvar(context.Background(), requisicaoValida(), "Maria", "maria@acme.com")
		primeiro <- err
	}()

	// Wait until the first save is inside Create, then double-submit.
	require.Eventually(t, func() bool {
		_, err := svc.Salvar(context.Background(), requisicaoValida(), "Maria", "maria@acme.com")
		return err == ErrSalvamentoEmAndamento
	}, time.Second, 5*time.Millisecond)

	close(repo.bloquearCreate)
	require.NoError(t, <-primeiro)
	assert.Equal(t, 1, repo.creates, "double submit must produce exactly one record")
}

func TestSalvarAtualizaEVoltaParaPendente(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Rejeitar(ctx, criada.ID))

	req := requisicaoValida()
	req.ID = criada.ID.String()
	req.Local = "DOCA-07"
	atualizada, err := svc.Salvar(ctx, req, "Maria", "maria@acme.com")
	require.NoError(t, err)

	assert.Equal(t, model.StatusPendente, atualizada.Status)
	assert.False(t, atualizada.Rejeitada, "resubmitting clears the rejection flag")
	assert.Equal(t, "DOCA-07", atualizada.Local)
}

func TestSalvarNaoReabreConcluida(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Concluir(ctx, criada.ID))

	req := requisicaoValida()
	req.ID = criada.ID.String()
	_, err = svc.Salvar(ctx, req, "Maria", "maria@acme.com")
	assert.ErrorIs(t, err, ErrTransicaoInvalida)
}

// ── Transitions ───────────────────────────────────────────────────────────────

func TestRejeitarSoDePendente(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)

	require.NoError(t, svc.Rejeitar(ctx, criada.ID))
	devolvida, err := svc.BuscarPorID(ctx, criada.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRascunho, devolvida.Status)
	assert.True(t, devolvida.Rejeitada)
	assert.Len(t, devolvida.Itens, 1, "reject keeps the item list")

	// Already rascunho, so a second reject is an invalid transition.
	assert.ErrorIs(t, svc.Rejeitar(ctx, criada.ID), ErrTransicaoInvalida)
}

func TestConcluirNaoPulaPendente(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Rejeitar(ctx, criada.ID)) // back to rascunho

	assert.ErrorIs(t, svc.Concluir(ctx, criada.ID), ErrTransicaoInvalida)
}

func TestExcluirConcluidaEhProibido(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Concluir(ctx, criada.ID))

	assert.ErrorIs(t, svc.Excluir(ctx, criada.ID), ErrExcluirConcluida)
}

func TestExcluirPendente(t *testing.T) {
	repo := newFakeOcorrenciaRepo()
	svc := novoServicoTeste(repo, &fakeNotificador{}, time.Now)
	ctx := context.Background()

	criada, err := svc.Salvar(ctx, requisicaoValida(), "Maria", "maria@acme.com")
	require.NoError(t, err)
	require.NoError(t, svc.Excluir(ctx, criada.ID))

	_, err = svc.BuscarPorID(ctx, criada.ID)
	assert.ErrorIs(t, err, ErrOcorrenciaNaoEncontrada)
}

// ── Projections ───────────────────────────────────────────────────────────────

func ocorrenciaComStatus(status model.StatusOcorrencia, criadaEm time.Time) model.Ocorrencia {
	return model.Ocorrencia{
		ID:        uuid.New(),
		Ambiente:  "producao",
		Status:    status,
		CreatedAt: criadaEm,
		UpdatedAt: criadaEm,
	}
}

func TestIngestSnapshotParticionaExaustivamente(t *testing.T) {
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)
	agora := time.Now()

	snapshot := []model.Ocorrencia{
		ocorrenciaComStatus(model.StatusPendente, agora.Add(-1*time.Hour)),
		ocorrenciaComStatus(model.StatusConcluido, agora.Add(-2*time.Hour)),
		ocorrenciaComStatus(model.StatusRascunho, agora.Add(-30*time.Minute)),
		ocorrenciaComStatus(model.StatusPendente, agora),
	}
	svc.IngestSnapshot(snapshot)

	pendentes := svc.Pendentes()
	concluidas := svc.Concluidas()

	// Exhaustive and disjoint: every record lands in exactly one projection;
	// anything not concluded counts as pending work.
	assert.Len(t, pendentes, 3)
	assert.Len(t, concluidas, 1)
	assert.Equal(t, len(snapshot), len(pendentes)+len(concluidas))

	// Newest first.
	for i := 1; i < len(pendentes); i++ {
		assert.False(t, pendentes[i-1].CreatedAt.Before(pendentes[i].CreatedAt))
	}
}

func TestIngestSnapshotEhIdempotente(t *testing.T) {
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)
	snapshot := []model.Ocorrencia{
		ocorrenciaComStatus(model.StatusPendente, time.Now()),
		ocorrenciaComStatus(model.StatusConcluido, time.Now()),
	}

	svc.IngestSnapshot(snapshot)
	svc.IngestSnapshot(snapshot)
	svc.IngestSnapshot(snapshot)

	assert.Len(t, svc.Pendentes(), 1)
	assert.Len(t, svc.Concluidas(), 1)
}

func TestConsumidorRecebeEPodeSair(t *testing.T) {
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)

	var entregas int
	sair := svc.RegistrarConsumidor(func(_ []model.Ocorrencia) { entregas++ })

	svc.IngestSnapshot([]model.Ocorrencia{ocorrenciaComStatus(model.StatusPendente, time.Now())})
	assert.Equal(t, 1, entregas)

	sair()
	svc.IngestSnapshot(nil)
	assert.Equal(t, 1, entregas, "unregistered consumer must not be called")
}

// ── Notification window ───────────────────────────────────────────────────────

func TestAvaliarDeltaAntesDaBaselineNaoNotifica(t *testing.T) {
	notif := &fakeNotificador{}
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), notif, time.Now)

	svc.AvaliarDelta([]model.Ocorrencia{ocorrenciaComStatus(model.StatusPendente, time.Now())})
	assert.Zero(t, notif.total())
}

func TestAvaliarDeltaJanelaDeUmaHora(t *testing.T) {
	agora := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	notif := &fakeNotificador{}
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), notif, func() time.Time { return agora })
	svc.IngestSnapshot(nil) // establish the baseline

	svc.AvaliarDelta([]model.Ocorrencia{
		ocorrenciaComStatus(model.StatusPendente, agora.Add(-10*time.Minute)), // recent: notifies
		ocorrenciaComStatus(model.StatusPendente, agora.Add(-2*time.Hour)),    // stale: silent
	})
	assert.Equal(t, 1, notif.total())
}

func TestAvaliarDeltaTimestampZeradoNotifica(t *testing.T) {
	notif := &fakeNotificador{}
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), notif, time.Now)
	svc.IngestSnapshot(nil)

	// Malformed record without CreatedAt: surfaced rather than dropped.
	svc.AvaliarDelta([]model.Ocorrencia{{ID: uuid.New(), Status: model.StatusPendente}})
	assert.Equal(t, 1, notif.total())
}

// ── Reminders ─────────────────────────────────────────────────────────────────

func TestVerificarLembretesContaAtrasadas(t *testing.T) {
	agora := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	notif := &fakeNotificador{}
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), notif, func() time.Time { return agora })

	svc.IngestSnapshot([]model.Ocorrencia{
		ocorrenciaComStatus(model.StatusPendente, agora.Add(-45*time.Minute)), // overdue
		ocorrenciaComStatus(model.StatusPendente, agora.Add(-5*time.Minute)),  // fresh
		ocorrenciaComStatus(model.StatusConcluido, agora.Add(-2*time.Hour)),   // never reminds
	})

	svc.VerificarLembretes(context.Background())
	assert.Equal(t, 1, notif.total())
	assert.Contains(t, notif.mensagens[0], "1 ocorrência(s)")
}

func TestVerificarLembretesSemAtrasadasFicaCalado(t *testing.T) {
	notif := &fakeNotificador{}
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), notif, time.Now)

	svc.IngestSnapshot([]model.Ocorrencia{
		ocorrenciaComStatus(model.StatusPendente, time.Now()),
	})
	svc.VerificarLembretes(context.Background())
	assert.Zero(t, notif.total())
}

// ── Ambiente ──────────────────────────────────────────────────────────────────

func TestTrocarAmbienteValidaValor(t *testing.T) {
	svc := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)
	assert.Error(t, svc.TrocarAmbiente(context.Background(), "staging"))
	assert.Equal(t, "producao", svc.Ambiente())
}
