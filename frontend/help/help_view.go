package help

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/html"
)

func HelpPage(data PageData) templ.Component {
	data.Layout.Title = "Ajuda"
	return html.Layout(data.Layout, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<h2 class="text-2xl font-bold mb-4">Ajuda</h2>`)

		hw.Raw(`<section class="mb-6"><h3 class="text-lg font-semibold mb-2">Status dos lotes</h3><table class="table table-sm bg-base-100"><thead><tr><th>Código</th><th>Status</th></tr></thead><tbody>`)
		for _, s := range data.Statuses {
			hw.Printf(`<tr><td>%s</td><td><span class="badge badge-%s">%s</span></td></tr>`, html.OrDash(s.Code), html.Trusted(s.Tone), s.Label)
		}
		hw.Raw(`</tbody></table></section>`)

		hw.Raw(`<section class="mb-6"><h3 class="text-lg font-semibold mb-2">Comandos</h3><table class="table table-sm bg-base-100"><thead><tr><th>Botão</th><th>statusAtualizado</th><th>Descrição</th></tr></thead><tbody>`)
		for _, c := range data.Commands {
			hw.Printf(`<tr><td>%s</td><td>%s</td><td>%s</td></tr>`, c.Label, c.StatusCode, c.Meaning)
		}
		hw.Raw(`</tbody></table>`)
		hw.Raw(`<p class="text-sm opacity-70 mt-2">Todo comando pede confirmação. Após a confirmação a lista é recarregada e, um segundo depois, consultada novamente para refletir a mudança feita pelo CLP.</p></section>`)

		hw.Raw(`<section><h3 class="text-lg font-semibold mb-2">Indicador do CLP</h3><p>O selo na barra lateral mostra se o CLP respondeu na última consulta. Ele é atualizado a cada 5 segundos.</p>`)
		if data.IsAdmin {
			hw.Raw(`<p class="mt-2">Administradores podem consultar o histórico de comandos e gerenciar as contas locais.</p>`)
		}
		hw.Raw(`</section>`)
		return hw.Err()
	}))
}
