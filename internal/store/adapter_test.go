package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rncdesk/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoFake struct {
	mu        sync.Mutex
	registros []model.Ocorrencia
	falhar    bool
	// bloquear parks the next ListDesde until closed, ignoring ctx like a
	// driver without cancellation support; entering is signalled on emCarga.
	bloquear chan struct{}
	emCarga  chan struct{}
}

func (r *repoFake) definir(ocorrencias ...model.Ocorrencia) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registros = ocorrencias
}

func (r *repoFake) Create(context.Context, *model.Ocorrencia) error { return nil }
func (r *repoFake) Update(context.Context, *model.Ocorrencia) error { return nil }
func (r *repoFake) Delete(context.Context, uuid.UUID) error         { return nil }
func (r *repoFake) FindByID(context.Context, uuid.UUID) (*model.Ocorrencia, error) {
	return nil, errors.New("not implemented")
}

func (r *repoFake) ListDesde(_ context.Context, _ string, _ time.Time) ([]model.Ocorrencia, error) {
	r.mu.Lock()
	bloqueio, sinal := r.bloquear, r.emCarga
	r.bloquear, r.emCarga = nil, nil
	r.mu.Unlock()
	if sinal != nil {
		close(sinal)
	}
	if bloqueio != nil {
		<-bloqueio
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.falhar {
		return nil, errors.New("store indisponível")
	}
	return append([]model.Ocorrencia(nil), r.registros...), nil
}

func registro(criadaEm time.Time) model.Ocorrencia {
	return model.Ocorrencia{
		ID:        uuid.New(),
		Ambiente:  "producao",
		Status:    model.StatusPendente,
		CreatedAt: criadaEm,
		UpdatedAt: criadaEm,
	}
}

func TestInicioDoMes(t *testing.T) {
	em := time.Date(2026, 3, 17, 15, 42, 3, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), InicioDoMes(em))
}

func TestBaselineNaoGeraDelta(t *testing.T) {
	repo := &repoFake{}
	repo.definir(registro(time.Now()))
	adapter := NewAdapter(repo, nil, 10*time.Millisecond)
	defer adapter.Close()

	snapshots := make(chan int, 16)
	deltas := make(chan int, 16)
	adapter.Subscribe(context.Background(), "producao",
		func(o []model.Ocorrencia) { snapshots <- len(o) },
		func(d []model.Ocorrencia) { deltas <- len(d) },
	)

	select {
	case n := <-snapshots:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("baseline snapshot never delivered")
	}
	select {
	case <-deltas:
		t.Fatal("the baseline load must not produce a delta")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistroModificadoChegaComoDelta(t *testing.T) {
	repo := &repoFake{}
	original := registro(time.Now())
	repo.definir(original)
	adapter := NewAdapter(repo, nil, 10*time.Millisecond)
	defer adapter.Close()

	deltas := make(chan []model.Ocorrencia, 16)
	adapter.Subscribe(context.Background(), "producao",
		func([]model.Ocorrencia) {},
		func(d []model.Ocorrencia) { deltas <- d },
	)

	// Let the baseline land, then touch the record.
	time.Sleep(30 * time.Millisecond)
	modificado := original
	modificado.UpdatedAt = original.UpdatedAt.Add(time.Minute)
	repo.definir(modificado)

	select {
	case d := <-deltas:
		require.Len(t, d, 1)
		assert.Equal(t, original.ID, d[0].ID)
	case <-time.After(time.Second):
		t.Fatal("modified record never arrived as delta")
	}
}

func TestNovaAssinaturaCancelaAAnterior(t *testing.T) {
	repo := &repoFake{}
	adapter := NewAdapter(repo, nil, 10*time.Millisecond)
	defer adapter.Close()

	var mu sync.Mutex
	antigas, novas := 0, 0

	adapter.Subscribe(context.Background(), "producao",
		func([]model.Ocorrencia) { mu.Lock(); antigas++; mu.Unlock() }, nil)
	time.Sleep(30 * time.Millisecond)

	adapter.Subscribe(context.Background(), "teste",
		func([]model.Ocorrencia) { mu.Lock(); novas++; mu.Unlock() }, nil)
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	congeladas := antigas
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, congeladas, antigas, "old subscription must stop after the switch")
	assert.Greater(t, novas, 0)
}

func TestAssinaturaCanceladaNaoEntregaCargaEmVoo(t *testing.T) {
	repo := &repoFake{}
	repo.definir(registro(time.Now()))
	bloqueio := make(chan struct{})
	emCarga := make(chan struct{})
	repo.mu.Lock()
	repo.bloquear, repo.emCarga = bloqueio, emCarga
	repo.mu.Unlock()

	adapter := NewAdapter(repo, nil, time.Hour)
	defer adapter.Close()

	antigas := make(chan []model.Ocorrencia, 16)
	adapter.Subscribe(context.Background(), "producao",
		func(o []model.Ocorrencia) { antigas <- o }, nil)

	// The baseline load is parked inside the repo; the switch cancels it
	// mid-flight.
	<-emCarga
	novas := make(chan []model.Ocorrencia, 16)
	adapter.Subscribe(context.Background(), "teste",
		func(o []model.Ocorrencia) { novas <- o }, nil)

	select {
	case <-novas:
	case <-time.After(time.Second):
		t.Fatal("new subscription never delivered its baseline")
	}

	close(bloqueio) // the old load now returns, after its cancellation
	select {
	case <-antigas:
		t.Fatal("cancelled subscription must not deliver an in-flight load")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFalhaDeCargaDegradaParaListaVazia(t *testing.T) {
	repo := &repoFake{falhar: true}
	adapter := NewAdapter(repo, nil, 10*time.Millisecond)
	defer adapter.Close()

	snapshots := make(chan []model.Ocorrencia, 16)
	adapter.Subscribe(context.Background(), "producao",
		func(o []model.Ocorrencia) { snapshots <- o }, nil)

	select {
	case o := <-snapshots:
		assert.Empty(t, o, "a load failure degrades to an empty snapshot")
	case <-time.After(time.Second):
		t.Fatal("degraded snapshot never delivered")
	}
}
