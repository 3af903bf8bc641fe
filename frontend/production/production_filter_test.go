package production

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedflow/models"
)

func makeBatches(n int) []models.ProductionBatch {
	out := make([]models.ProductionBatch, 0, n)
	for i := 1; i <= n; i++ {
		status := "Programada"
		if i%2 == 0 {
			status = "Pendente"
		}
		out = append(out, models.ProductionBatch{
			NumPlanej:          fmt.Sprintf("%04d", i),
			Lote:               fmt.Sprintf("L%03d", i),
			OrdemPrd:           fmt.Sprintf("OP%d", i),
			ProdutoAcab:        fmt.Sprintf("PA-%d", i),
			MateriaPrima:       fmt.Sprintf("MP-%d", i),
			DescProdutoAcabado: fmt.Sprintf("Semente Soja %d", i),
			DescMateriaPrima:   "Grão bruto",
			DescStatus:         status,
		})
	}
	return out
}

func TestApplySearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	batches := makeBatches(12)
	batches[4].DescMateriaPrima = "Milho Tratado"

	cases := map[string]int{
		"soja 1":  4, // 1, 10, 11, 12
		"MILHO":   1,
		"l007":    1,
		"op12":    1,
		"pa-3":    1,
		"mp-11":   1,
		"  ":      12,
		"inexist": 0,
	}
	for term, want := range cases {
		res := Apply(batches, FilterState{SearchTerm: term, FilterStatus: StatusAll}, DefaultPagination().WithPageSize(100))
		assert.Equal(t, want, res.FilteredCount, "term %q", term)
		assert.Equal(t, 12, res.TotalCount)
	}
}

func TestApplyStatusFilter(t *testing.T) {
	batches := makeBatches(9)
	res := Apply(batches, FilterState{FilterStatus: "Pendente"}, DefaultPagination())
	assert.Equal(t, 4, res.FilteredCount)
	for _, r := range res.Rows {
		assert.Equal(t, "Pendente", r.Batch.DescStatus)
	}

	res = Apply(batches, FilterState{FilterStatus: ""}, DefaultPagination())
	assert.Equal(t, 9, res.FilteredCount)
}

func TestApplySlicesAndClampsPages(t *testing.T) {
	batches := makeBatches(25)

	res := Apply(batches, FilterState{}, PaginationState{CurrentPage: 3, ItemsPerPage: 10})
	require.Len(t, res.Rows, 5)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, "0021", res.Rows[0].Batch.NumPlanej)
	assert.Equal(t, 21, res.FirstItem)
	assert.Equal(t, 25, res.LastItem)

	res = Apply(batches, FilterState{}, PaginationState{CurrentPage: 9, ItemsPerPage: 10})
	assert.Equal(t, 3, res.CurrentPage)

	res = Apply(batches, FilterState{}, PaginationState{CurrentPage: 1, ItemsPerPage: 7})
	assert.Equal(t, DefaultPageSize, res.ItemsPerPage)

	res = Apply(nil, FilterState{}, DefaultPagination())
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalPages)
	assert.Equal(t, 1, res.CurrentPage)
	assert.Zero(t, res.FirstItem)
}

func TestApplyRowKeysUsePageIndexFallback(t *testing.T) {
	batches := []models.ProductionBatch{{NumPlanej: "9"}, {NumPlanej: "9"}}
	res := Apply(batches, FilterState{}, DefaultPagination())
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "9-lt-0", res.Rows[0].Key)
	assert.Equal(t, "9-lt-1", res.Rows[1].Key)
	assert.Empty(t, DuplicateKeys(res.Rows))

	dup := []Row{{Key: "a"}, {Key: "a"}, {Key: "a"}, {Key: "b"}}
	assert.Equal(t, []string{"a"}, DuplicateKeys(dup))
}

func pages(items []PageItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Ellipsis:
			out = append(out, "…")
		case it.Current:
			out = append(out, fmt.Sprintf("[%d]", it.Page))
		default:
			out = append(out, fmt.Sprint(it.Page))
		}
	}
	return out
}

func TestPageNumbers(t *testing.T) {
	assert.Nil(t, PageNumbers(1, 0))
	assert.Equal(t, []string{"1", "[2]", "3"}, pages(PageNumbers(2, 3)))
	assert.Equal(t, []string{"[1]", "2", "3", "4", "5"}, pages(PageNumbers(1, 5)))
	assert.Equal(t, []string{"1", "2", "[3]", "4", "…", "10"}, pages(PageNumbers(3, 10)))
	assert.Equal(t, []string{"1", "…", "4", "[5]", "6", "…", "10"}, pages(PageNumbers(5, 10)))
	assert.Equal(t, []string{"1", "…", "7", "[8]", "9", "10"}, pages(PageNumbers(8, 10)))
}

func TestPaginationTransitions(t *testing.T) {
	p := PaginationState{CurrentPage: 4, ItemsPerPage: 10}

	assert.Equal(t, PaginationState{CurrentPage: 1, ItemsPerPage: 50}, p.WithPageSize(50))
	assert.Equal(t, p, p.WithPageSize(33))

	next, changed := p.WithPage(5)
	assert.True(t, changed)
	assert.Equal(t, 5, next.CurrentPage)
	_, changed = p.WithPage(4)
	assert.False(t, changed)
	_, changed = p.WithPage(0)
	assert.False(t, changed)

	assert.Equal(t, 1, p.Reconcile(40, 12).CurrentPage)
	assert.Equal(t, 4, p.Reconcile(40, 40).CurrentPage)
}

func TestStatusTones(t *testing.T) {
	assert.Equal(t, ToneBlue, StatusTone("1", ""))
	assert.Equal(t, ToneYellow, StatusTone("2", "whatever"))
	assert.Equal(t, ToneRed, StatusTone("", "Cancelada"))
	assert.Equal(t, ToneGray, StatusTone("9", "Desconhecido"))
	assert.Equal(t, ToneRed, PriorityTone("Alta"))
	assert.Equal(t, ToneGreen, PriorityTone("Baixa"))
	assert.Equal(t, StatusAll, StatusFilterOptions()[0])
	assert.True(t, validStatusFilter("Separação"))
	assert.False(t, validStatusFilter("Arquivada"))
}
