package commandlog

import "seedflow/frontend/shared/html"

// PageLimit caps the rows shown on the command log page.
const PageLimit = 200

type PageData struct {
	Layout    html.LayoutData
	NumPlanej string
	Rows      []CommandLogRow
}

type CommandLogRow struct {
	CreatedAtBR   string
	Actor         string
	Action        string
	EntityType    string
	EntityID      string
	StatusBefore  string
	StatusCode    string
	Reason        string
	Outcome       string
	CorrelationID string
}
