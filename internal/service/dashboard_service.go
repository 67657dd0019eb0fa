package service

import (
	"sort"

	"rncdesk/internal/dto"

	"github.com/shopspring/decimal"
)

// DashboardService folds the engine's projections into the numbers the
// dashboard cards and the TV wallboard display. Read-only consumer; it never
// mutates occurrence state.
type DashboardService interface {
	Estatisticas() dto.EstatisticasResponse
}

type dashboardService struct {
	engine OcorrenciaService
}

func NewDashboardService(engine OcorrenciaService) DashboardService {
	return &dashboardService{engine: engine}
}

func (s *dashboardService) Estatisticas() dto.EstatisticasResponse {
	pendentes := s.engine.Pendentes()
	concluidas := s.engine.Concluidas()

	porTipo := make(map[string]int)
	porLocal := make(map[string]int)
	totalItens := 0

	for _, o := range append(pendentes, concluidas...) {
		porLocal[o.Local]++
		for _, item := range o.Itens {
			porTipo[item.Tipo] += item.Quantidade
			totalItens += item.Quantidade
		}
	}

	resp := dto.EstatisticasResponse{
		Ambiente:        s.engine.Ambiente(),
		TotalPendentes:  len(pendentes),
		TotalConcluidas: len(concluidas),
		TotalItens:      totalItens,
	}

	total := decimal.NewFromInt(int64(totalItens))
	for tipo, qtd := range porTipo {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = decimal.NewFromInt(int64(qtd)).Div(total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		resp.PorTipo = append(resp.PorTipo, dto.ResumoTipo{Tipo: tipo, Quantidade: qtd, Percentual: pct})
	}
	sort.Slice(resp.PorTipo, func(i, j int) bool { return resp.PorTipo[i].Tipo < resp.PorTipo[j].Tipo })

	for local, qtd := range porLocal {
		resp.PorLocal = append(resp.PorLocal, dto.ResumoLocal{Local: local, Ocorrencias: qtd})
	}
	sort.Slice(resp.PorLocal, func(i, j int) bool {
		if resp.PorLocal[i].Ocorrencias != resp.PorLocal[j].Ocorrencias {
			return resp.PorLocal[i].Ocorrencias > resp.PorLocal[j].Ocorrencias
		}
		return resp.PorLocal[i].Local < resp.PorLocal[j].Local
	})

	return resp
}
