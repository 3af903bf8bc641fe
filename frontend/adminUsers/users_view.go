package adminusers

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/html"
)

func UsersListPage(data PageData) templ.Component {
	data.Layout.Title = "Operadores"
	return html.Layout(data.Layout, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<h2 class="text-2xl font-bold mb-4">Operadores</h2>`)
		html.Flash(hw, data.Status, false)
		html.Flash(hw, data.ErrorMessage, true)
		if !data.LocalMode {
			hw.Raw(`<div class="alert alert-info mb-4">A autenticação é feita pelo bridge da planta. Operadores aparecem aqui após o primeiro login; contas locais servem apenas para administração.</div>`)
		}

		hw.Raw(`<div class="overflow-x-auto bg-base-100 rounded-box shadow mb-6"><table class="table table-sm"><thead><tr><th>Usuário</th><th>Perfil</th><th>Origem</th><th>Criado em</th><th></th></tr></thead><tbody>`)
		for _, u := range data.Users {
			hw.Printf(`<tr><td>%s</td><td><span class="badge">%s</span></td><td>%s</td><td>%s</td><td>`, u.Username, u.Role, u.AuthSource, u.CreatedAt.Format("02/01/2006 15:04"))
			if u.ID != data.CurrentID {
				hw.Printf(`<form method="post" action="%s/%d/delete" onsubmit="return confirm('Excluir este usuário?')"><button class="btn btn-xs btn-error" type="submit">Excluir</button></form>`, usersPath, u.ID)
			}
			hw.Raw(`</td></tr>`)
		}
		hw.Raw(`</tbody></table></div>`)

		hw.Printf(`<form method="post" action="%s" class="card bg-base-100 shadow max-w-md"><div class="card-body grid gap-3"><h3 class="card-title">Nova conta local</h3>`, usersPath)
		hw.Raw(`<label class="form-control"><span class="label-text">Usuário</span><input class="input input-bordered input-sm" name="username" minlength="3" maxlength="64" required></label>`)
		hw.Raw(`<label class="form-control"><span class="label-text">Senha</span><input class="input input-bordered input-sm" type="password" name="password" minlength="8" required></label>`)
		hw.Raw(`<label class="form-control"><span class="label-text">Perfil</span><select class="select select-bordered select-sm" name="role">`)
		for _, role := range data.Roles {
			hw.Printf(`<option value="%s">%s</option>`, role, role)
		}
		hw.Raw(`</select></label><button class="btn btn-primary btn-sm" type="submit">Criar</button></div></form>`)
		return hw.Err()
	}))
}
