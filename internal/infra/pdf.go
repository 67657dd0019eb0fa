package infra

// pdf.go: printable RNC report generation using go-pdf/fpdf.
// The console prints this sheet for physical signature by the leader; label
// printing itself goes through the ZPL pipeline and is not handled here.

import (
	"fmt"
	"os"
	"path/filepath"

	"rncdesk/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateOcorrenciaPDF renders an A4 report for an occurrence and returns the
// absolute path of the written file. storagePath is created if needed.
func GenerateOcorrenciaPDF(o *model.Ocorrencia, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("rnc_%s.pdf", o.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 10, "Relatório de Não Conformidade", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("RNC %s", o.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Record info ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 10)
	linhas := [][2]string{
		{"Solicitante", o.Solicitante},
		{"Local", o.Local},
		{"Tipo", o.Tipo},
		{"Status", string(o.Status)},
		{"Data", o.CreatedAt.Format("02/01/2006 15:04")},
	}
	for _, l := range linhas {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, l[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentW-35, 6, l[1], "", 1, "L", false, 0, "")
	}
	if o.Observacoes != nil && *o.Observacoes != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(35, 6, "Observações", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW-35, 6, *o.Observacoes, "", "L", false)
	}
	pdf.Ln(4)

	// ── Item table ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	colW := []float64{25, 30, 55, 25, 15, 30}
	headers := []string{"Tipo", "Código", "Descrição", "Lote", "Qtd", "Endereço"}
	for i, h := range headers {
		pdf.CellFormat(colW[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range o.Itens {
		cols := []string{
			item.Tipo, item.Codigo, item.Descricao, item.Lote,
			fmt.Sprintf("%d", item.Quantidade), item.EnderecoOriginal,
		}
		for i, v := range cols {
			pdf.CellFormat(colW[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(12)

	// ── Signature line ───────────────────────────────────────────────────────
	pdf.CellFormat(contentW/2, 6, "_______________________________", "", 0, "C", false, 0, "")
	pdf.CellFormat(contentW/2, 6, "_______________________________", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW/2, 5, "Solicitante", "", 0, "C", false, 0, "")
	pdf.CellFormat(contentW/2, 5, "Líder responsável", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
