package service

import (
	"testing"
	"time"

	"rncdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstatisticasAgregamPorTipoELocal(t *testing.T) {
	engine := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)
	agora := time.Now()

	engine.IngestSnapshot([]model.Ocorrencia{
		{
			ID: uuid.New(), Status: model.StatusPendente, Local: "DOCA-03", CreatedAt: agora,
			Itens: []model.ItemOcorrencia{
				{Tipo: model.ItemFalta, Codigo: "A", Quantidade: 3},
				{Tipo: model.ItemSobra, Codigo: "B", Quantidade: 1},
			},
		},
		{
			ID: uuid.New(), Status: model.StatusConcluido, Local: "DOCA-05", CreatedAt: agora,
			Itens: []model.ItemOcorrencia{
				{Tipo: model.ItemFalta, Codigo: "C", Quantidade: 1},
			},
		},
	})

	stats := NewDashboardService(engine).Estatisticas()

	assert.Equal(t, 1, stats.TotalPendentes)
	assert.Equal(t, 1, stats.TotalConcluidas)
	assert.Equal(t, 5, stats.TotalItens)

	require.Len(t, stats.PorTipo, 2)
	assert.Equal(t, model.ItemFalta, stats.PorTipo[0].Tipo)
	assert.Equal(t, 4, stats.PorTipo[0].Quantidade)
	assert.True(t, stats.PorTipo[0].Percentual.Equal(decimal.NewFromInt(80)))
	assert.True(t, stats.PorTipo[1].Percentual.Equal(decimal.NewFromInt(20)))

	require.Len(t, stats.PorLocal, 2)
	assert.Equal(t, "DOCA-03", stats.PorLocal[0].Local)
}

func TestEstatisticasVazias(t *testing.T) {
	engine := novoServicoTeste(newFakeOcorrenciaRepo(), &fakeNotificador{}, time.Now)
	stats := NewDashboardService(engine).Estatisticas()

	assert.Zero(t, stats.TotalPendentes)
	assert.Zero(t, stats.TotalItens)
	assert.Empty(t, stats.PorTipo)
}
