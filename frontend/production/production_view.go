package production

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/html"
	"seedflow/models"
)

const basePath = "/tasker/production"

// ProductionPage renders the production list inside the dashboard layout.
func ProductionPage(data PageData) templ.Component {
	data.Layout.Title = "Lista de Produção"
	return html.Layout(data.Layout, productionBody(data))
}

func productionBody(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<div class="flex flex-wrap items-center justify-between gap-2 mb-4"><h2 class="text-2xl font-bold">Lista de Produção</h2><div class="flex gap-2">`)
		reloadAttr := ""
		reloadLabel := "Atualizar lotes"
		if data.Reloading {
			reloadAttr = " disabled"
			reloadLabel = "Atualizando..."
		}
		hw.Printf(`<form method="post" action="%s/reload"><button class="btn btn-primary btn-sm" type="submit"%s>%s</button></form>`, basePath, html.Trusted(reloadAttr), reloadLabel)
		hw.Printf(`<form method="post" action="%s/refresh"><button class="btn btn-sm" type="submit">Recarregar</button></form>`, basePath)
		if data.CanDownload {
			hw.Printf(`<a class="btn btn-sm btn-outline" href="%s/export.csv">Exportar CSV</a>`, basePath)
		}
		hw.Raw(`</div></div>`)

		html.Flash(hw, data.Flash, false)
		html.Flash(hw, data.FlashError, true)
		renderFilters(hw, data)

		switch {
		case data.Batches.Loading && !data.Batches.HasLoadedOnce:
			hw.Raw(`<div class="flex justify-center p-10"><span class="loading loading-spinner loading-lg"></span></div>`)
		case data.Batches.Error != "" && !data.Batches.HasLoadedOnce:
			hw.Printf(`<div class="alert alert-error">%s</div>`, data.Batches.Error)
		default:
			if data.Batches.Error != "" {
				hw.Printf(`<div class="alert alert-warning mb-2">%s</div>`, data.Batches.Error)
			}
			if data.Refetching {
				hw.Raw(`<div class="text-sm opacity-70 mb-2" id="refetch-hint">Atualizando lista...</div>`)
			}
			renderTable(hw, data)
			renderPager(hw, data)
		}
		renderDialog(hw, data.Controller)
		return hw.Err()
	})
}

func renderFilters(hw *html.Writer, data PageData) {
	f := data.View.Filter
	hw.Printf(`<form method="get" action="%s" class="card bg-base-100 shadow mb-4"><div class="card-body grid gap-3 md:grid-cols-5">`, basePath)
	hw.Printf(`<label class="form-control md:col-span-2"><span class="label-text">Buscar</span><input class="input input-bordered input-sm" type="search" name="q" value="%s" placeholder="Produto, matéria-prima, lote ou ordem"></label>`, f.SearchTerm)
	hw.Raw(`<label class="form-control"><span class="label-text">Status</span><select class="select select-bordered select-sm" name="status">`)
	for _, opt := range StatusFilterOptions() {
		sel := ""
		if opt == f.FilterStatus {
			sel = " selected"
		}
		hw.Printf(`<option value="%s"%s>%s</option>`, opt, html.Trusted(sel), opt)
	}
	hw.Raw(`</select></label>`)
	hw.Printf(`<label class="form-control"><span class="label-text">Data inicial</span><input class="input input-bordered input-sm" type="date" name="dataInicial" value="%s"></label>`, f.DataInicial)
	hw.Printf(`<label class="form-control"><span class="label-text">Data final</span><input class="input input-bordered input-sm" type="date" name="dataFinal" value="%s"></label>`, f.DataFinal)
	hw.Raw(`<div class="md:col-span-5 flex justify-end gap-2"><a class="btn btn-ghost btn-sm" href="` + basePath + `?reset=1">Limpar</a><button class="btn btn-sm btn-primary" type="submit">Filtrar</button></div></div></form>`)
}

func renderTable(hw *html.Writer, data PageData) {
	if len(data.Result.Rows) == 0 {
		hw.Raw(`<div class="alert">Nenhum lote encontrado.</div>`)
		return
	}
	hw.Raw(`<div class="overflow-x-auto bg-base-100 rounded-box shadow"><table class="table table-sm"><thead><tr><th></th><th>Nº Planej.</th><th>Produto</th><th>Matéria-prima</th><th>Lote</th><th>Ordem</th><th>Data</th><th>Hora</th><th>Prioridade</th><th>Status</th></tr></thead><tbody>`)
	for _, row := range data.Result.Rows {
		b := row.Batch
		hw.Printf(`<tr id="row-%s" class="hover">`, row.Key)
		icon := "▸"
		if row.Expanded {
			icon = "▾"
		}
		hw.Printf(`<td><form method="post" action="%s/rows/toggle"><input type="hidden" name="key" value="%s"><button class="btn btn-ghost btn-xs" type="submit" aria-expanded="%s">%s</button></form></td>`,
			basePath, row.Key, strconv.FormatBool(row.Expanded), icon)
		hw.Printf(`<td class="font-mono">%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
			html.OrDash(b.NumPlanej), html.OrDash(b.DescProdutoAcabado), html.OrDash(b.DescMateriaPrima),
			html.OrDash(b.Lote), html.OrDash(b.OrdemPrd), b.ProductionDate(), b.ProductionTime())
		hw.Printf(`<td><span class="badge badge-%s">%s</span></td>`, string(PriorityTone(b.DescPrioridade)), html.OrDash(b.DescPrioridade))
		hw.Printf(`<td><span class="badge badge-%s">%s</span></td></tr>`, string(StatusTone(b.Status, b.DescStatus)), html.OrDash(b.DescStatus))
		if row.Expanded {
			renderDetail(hw, row, data.CanDownload)
		}
	}
	hw.Raw(`</tbody></table></div>`)
}

func renderDetail(hw *html.Writer, row Row, canDownload bool) {
	b := row.Batch
	hw.Raw(`<tr class="bg-base-200"><td colspan="10"><div class="grid gap-2 md:grid-cols-4 text-sm p-2">`)
	for _, f := range detailFields(b) {
		hw.Printf(`<div><div class="opacity-60">%s</div><div class="font-medium">%s</div></div>`, f[0], html.OrDash(f[1]))
	}
	hw.Raw(`</div><div class="flex flex-wrap gap-2 p-2">`)
	for _, kind := range Actions() {
		class := "btn-primary"
		switch kind {
		case ActionDelete:
			class = "btn-error"
		case ActionEdit:
			class = "btn-warning"
		}
		hw.Printf(`<form method="post" action="%s/actions/open"><input type="hidden" name="key" value="%s"><input type="hidden" name="kind" value="%s"><button class="btn btn-sm %s" type="submit">%s</button></form>`,
			basePath, row.Key, string(kind), class, kind.Label())
	}
	if canDownload && b.NumPlanej != "" {
		hw.Printf(`<a class="btn btn-sm btn-outline" href="%s/%s/ticket.pdf" target="_blank">Imprimir ficha</a>`, basePath, url.PathEscape(b.NumPlanej))
	}
	hw.Raw(`</div></td></tr>`)
}

func detailFields(b models.ProductionBatch) [][2]string {
	return [][2]string{
		{"Produto acabado", b.ProdutoAcab},
		{"Matéria-prima", b.MateriaPrima},
		{"Lote fornecedor", b.LoteForn},
		{"Quantidade a produzir", b.QtdeProduzir + " " + b.Umb},
		{"Peso a produzir", b.PesoProduzir},
		{"Qtde. matéria-prima", b.QtdeConsumirMp},
		{"Peso matéria-prima", b.PesoConsumirMp},
		{"Máquina", b.NumMaquina},
		{"Embalagem", b.DescCodEmbalagem},
		{"Cultivar", b.DescCultivar},
		{"Tecnologia", b.DescTecnologia},
		{"Peneira", b.Peneira},
		{"Tratamento", b.DescCodTsi},
		{"Categoria", b.DescCodCategoria},
		{"Qtde. produzida", b.QtdeRealProd},
		{"Registrado em", models.FormatSAPDate(b.DataRegistro) + " " + models.FormatSAPTime(b.HoraRegistro)},
		{"Usuário", b.Usuario},
		{"Observação", b.Observacao},
	}
}

func renderPager(hw *html.Writer, data PageData) {
	res := data.Result
	hw.Raw(`<div class="flex flex-wrap items-center justify-between gap-2 mt-4">`)
	hw.Printf(`<div class="text-sm opacity-70">Mostrando %d a %d de %d lotes (total %d)</div>`, res.FirstItem, res.LastItem, res.FilteredCount, res.TotalCount)

	hw.Raw(`<div class="join">`)
	if res.CurrentPage > 1 {
		hw.Printf(`<a class="join-item btn btn-sm" href="%s?page=%d">«</a>`, basePath, res.CurrentPage-1)
	} else {
		hw.Raw(`<button class="join-item btn btn-sm" disabled>«</button>`)
	}
	for _, p := range data.Pages {
		switch {
		case p.Ellipsis:
			hw.Raw(`<button class="join-item btn btn-sm btn-disabled">…</button>`)
		case p.Current:
			hw.Printf(`<button class="join-item btn btn-sm btn-active" aria-current="page">%d</button>`, p.Page)
		default:
			hw.Printf(`<a class="join-item btn btn-sm" href="%s?page=%d">%d</a>`, basePath, p.Page, p.Page)
		}
	}
	if res.CurrentPage < res.TotalPages {
		hw.Printf(`<a class="join-item btn btn-sm" href="%s?page=%d">»</a>`, basePath, res.CurrentPage+1)
	} else {
		hw.Raw(`<button class="join-item btn btn-sm" disabled>»</button>`)
	}
	hw.Raw(`</div>`)

	hw.Printf(`<form method="get" action="%s" class="flex items-center gap-2"><span class="text-sm">Itens por página</span><select class="select select-bordered select-sm" name="size" data-autosubmit>`, basePath)
	for _, size := range PageSizes {
		sel := ""
		if size == res.ItemsPerPage {
			sel = " selected"
		}
		hw.Printf(`<option value="%d"%s>%d</option>`, size, html.Trusted(sel), size)
	}
	hw.Raw(`</select><noscript><button class="btn btn-sm" type="submit">OK</button></noscript></form></div>`)
}

func renderDialog(hw *html.Writer, c ControllerState) {
	p := c.Pending
	if p == nil {
		return
	}
	b := p.Target
	hw.Raw(`<dialog class="modal modal-open" open><div class="modal-box">`)
	hw.Printf(`<h3 class="font-bold text-lg">%s</h3>`, p.Kind.Label())
	hw.Printf(`<p class="py-2">Confirmar "%s" para o lote <strong>%s</strong> (Nº Planej. %s)?</p>`, p.Kind.Label(), html.OrDash(b.Lote), html.OrDash(b.NumPlanej))
	hw.Printf(`<p class="text-sm opacity-70">%s</p>`, html.OrDash(b.DescProdutoAcabado))
	hw.Printf(`<form method="post" action="%s/actions/confirm" class="mt-4">`, basePath)
	if p.Kind.RequiresReason() {
		hw.Printf(`<label class="form-control"><span class="label-text">Motivo da exclusão</span><textarea class="textarea textarea-bordered" name="reason" maxlength="%d" required data-reason-for="confirm-btn">%s</textarea></label>`, MaxReasonLength, p.Reason)
	}
	disabled := ""
	if !p.CanConfirm() {
		disabled = " disabled"
	}
	hw.Printf(`<div class="modal-action"><button id="confirm-btn" class="btn btn-primary" type="submit"%s>Confirmar</button>`, html.Trusted(disabled))
	hw.Printf(`<button class="btn" type="submit" formaction="%s/actions/cancel" formnovalidate>Cancelar</button></div></form>`, basePath)
	hw.Raw(`</div></dialog>`)
}
