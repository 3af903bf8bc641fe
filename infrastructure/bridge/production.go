package bridge

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"seedflow/models"
)

// DateRange bounds the production list query. Empty bounds are omitted.
type DateRange struct {
	Start string
	End   string
}

// ListBatches fetches the production list for the range.
func (c *Client) ListBatches(ctx context.Context, r DateRange) ([]models.ProductionBatch, error) {
	q := url.Values{}
	if s := strings.TrimSpace(r.Start); s != "" {
		q.Set("dateInicial", s)
	}
	if e := strings.TrimSpace(r.End); e != "" {
		q.Set("dateFinal", e)
	}
	body, err := c.get(ctx, "list batches", c.paths.ListPath, q)
	if err != nil {
		return nil, err
	}
	return decodeArray[models.ProductionBatch]("list batches", body)
}

// TriggerListReload asks the bridge to re-read the production list from SAP.
func (c *Client) TriggerListReload(ctx context.Context) (models.CommandResult, error) {
	body, err := c.get(ctx, "reload list", c.paths.ReadListPath, nil)
	if err != nil {
		return models.CommandResult{}, err
	}
	return decodeCommandResult("reload list", body)
}

// UpdateStatus sends a status command for one planning number. motivo is
// omitted from the query when empty.
func (c *Client) UpdateStatus(ctx context.Context, numPlanej, statusCode, motivo string) (models.CommandResult, error) {
	q := url.Values{}
	q.Set("numPlanej", numPlanej)
	q.Set("statusAtualizado", statusCode)
	if motivo != "" {
		q.Set("motivo", motivo)
	}
	body, err := c.get(ctx, "update status", c.paths.UpdateStatusPath, q)
	if err != nil {
		return models.CommandResult{}, err
	}
	return decodeCommandResult("update status", body)
}

// decodeCommandResult requires an object carrying a boolean statusErro.
func decodeCommandResult(op string, body []byte) (models.CommandResult, error) {
	var raw struct {
		StatusErro *bool `json:"statusErro"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.CommandResult{}, malformed(op, err)
	}
	if raw.StatusErro == nil {
		return models.CommandResult{}, malformed(op, nil)
	}
	return models.CommandResult{StatusErro: *raw.StatusErro}, nil
}
