package help

import (
	"seedflow/frontend/production"
	"seedflow/frontend/shared/html"
)

type PageData struct {
	Layout   html.LayoutData
	IsAdmin  bool
	Statuses []StatusRow
	Commands []CommandRow
}

type StatusRow struct {
	Code  string
	Label string
	Tone  string
}

type CommandRow struct {
	Label          string
	StatusCode     string
	RequiresReason bool
	Meaning        string
}

var commandMeaning = map[production.ActionKind]string{
	production.ActionStartSeparation: "Libera o lote para separação da matéria-prima.",
	production.ActionStartProduction: "Envia o lote para produção no CLP.",
	production.ActionEdit:            "Devolve o lote para edição no planejamento.",
	production.ActionDelete:          "Solicita a exclusão do lote. Exige um motivo de até 255 caracteres.",
}

func statusRows() []StatusRow {
	statuses := production.Statuses()
	out := make([]StatusRow, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusRow{Code: s.Code, Label: s.Label, Tone: string(s.Tone)})
	}
	return out
}

func commandRows() []CommandRow {
	actions := production.Actions()
	out := make([]CommandRow, 0, len(actions))
	for _, a := range actions {
		out = append(out, CommandRow{
			Label:          a.Label(),
			StatusCode:     a.StatusCode(),
			RequiresReason: a.RequiresReason(),
			Meaning:        commandMeaning[a],
		})
	}
	return out
}
