package commandlog

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/html"
)

func outcomeClass(outcome string) string {
	switch outcome {
	case "accepted":
		return "badge-success"
	case "rejected", "transport_error":
		return "badge-error"
	case "malformed":
		return "badge-warning"
	default:
		return "badge-ghost"
	}
}

func CommandLogPage(data PageData) templ.Component {
	data.Layout.Title = "Histórico de comandos"
	return html.Layout(data.Layout, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<h2 class="text-2xl font-bold mb-4">Histórico de comandos</h2>`)
		hw.Printf(`<form method="get" class="flex gap-2 mb-4"><input class="input input-bordered input-sm" name="numPlanej" placeholder="Nº planejamento" value="%s"><button class="btn btn-sm" type="submit">Filtrar</button></form>`, data.NumPlanej)

		if len(data.Rows) == 0 {
			hw.Raw(`<p class="opacity-70">Nenhum comando registrado.</p>`)
			return hw.Err()
		}
		hw.Raw(`<div class="overflow-x-auto bg-base-100 rounded-box shadow"><table class="table table-xs"><thead><tr><th>Data</th><th>Usuário</th><th>Ação</th><th>Planejamento</th><th>Status anterior</th><th>Código</th><th>Motivo</th><th>Resultado</th><th>Correlação</th></tr></thead><tbody>`)
		for _, r := range data.Rows {
			hw.Printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td>`,
				r.CreatedAtBR, r.Actor, r.Action, html.OrDash(r.EntityID), html.OrDash(r.StatusBefore), html.OrDash(r.StatusCode), html.OrDash(r.Reason))
			hw.Printf(`<td><span class="badge badge-sm %s">%s</span></td><td class="font-mono text-xs">%s</td></tr>`,
				html.Trusted(outcomeClass(r.Outcome)), html.OrDash(r.Outcome), r.CorrelationID)
		}
		hw.Raw(`</tbody></table></div>`)
		return hw.Err()
	}))
}
