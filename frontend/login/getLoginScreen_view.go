package login

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"seedflow/frontend/shared/html"
)

func GetLoginScreen(errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := html.NewWriter(w)
		hw.Raw(`<!doctype html><html lang="pt-BR" data-theme="corporate"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>Entrar · Gestão de Produção</title><link rel="stylesheet" href="/assets/app.css"></head>`)
		hw.Raw(`<body class="min-h-screen bg-base-200 flex items-center justify-center"><div class="card w-full max-w-sm bg-base-100 shadow"><div class="card-body">`)
		hw.Raw(`<h1 class="card-title">Gestão de Produção</h1><p class="text-sm opacity-70">Entre com seu usuário da planta.</p>`)
		html.Flash(hw, errorMessage, true)
		hw.Raw(`<form method="post" action="/login" class="grid gap-3">`)
		hw.Raw(`<label class="form-control"><span class="label-text">Usuário</span><input class="input input-bordered" name="username" autocomplete="username" minlength="3" required autofocus></label>`)
		hw.Raw(`<label class="form-control"><span class="label-text">Senha</span><input class="input input-bordered" type="password" name="password" autocomplete="current-password" minlength="3" required></label>`)
		hw.Raw(`<button class="btn btn-primary" type="submit">Entrar</button></form>`)
		hw.Raw(`</div></div>`)
		hw.Raw(html.CSRFFormScript())
		hw.Raw(`</body></html>`)
		return hw.Err()
	})
}
