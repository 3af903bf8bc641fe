package production

import (
	"encoding/csv"
	"io"

	"seedflow/models"
)

var exportHeader = []string{
	"numPlanej", "ordemPrd", "lote", "produtoacab", "descProdutoAcabado",
	"materiaPrima", "descMateriaPrima", "qtdeProduzir", "umb", "dataPrd",
	"horaProduzir", "numMaquina", "descPrioridade", "status", "descStatus",
}

// writeBatchesCSV writes the filtered list with the bridge field names as
// header. Dates and times are formatted the way the table shows them.
func writeBatchesCSV(w io.Writer, batches []models.ProductionBatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, b := range batches {
		if err := cw.Write([]string{
			b.NumPlanej, b.OrdemPrd, b.Lote, b.ProdutoAcab, b.DescProdutoAcabado,
			b.MateriaPrima, b.DescMateriaPrima, b.QtdeProduzir, b.Umb, b.ProductionDate(),
			b.ProductionTime(), b.NumMaquina, b.DescPrioridade, b.Status, b.DescStatus,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
