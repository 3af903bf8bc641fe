package production

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow/models"
)

func TestRenderBatchTicketPDF(t *testing.T) {
	t.Parallel()

	pdf, err := renderBatchTicketPDF(models.ProductionBatch{
		NumPlanej:          "0000123",
		Lote:               "L2024",
		DescProdutoAcabado: "Semente de Soja Tratada Peneira 6,0",
		DescMateriaPrima:   "Soja em grão",
		DataPrd:            "20240115",
		HoraProduzir:       "073000",
		DescStatus:         "Programada",
	}, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderBatchTicketPDFNeedsPlanningNumber(t *testing.T) {
	t.Parallel()

	_, err := renderBatchTicketPDF(models.ProductionBatch{Lote: "L1"}, time.Now())
	assert.Error(t, err)
}
