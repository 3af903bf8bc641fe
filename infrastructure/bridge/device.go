package bridge

import (
	"context"
	"net/url"

	"seedflow/models"
)

// DeviceStatus reads the CLP connectivity array.
func (c *Client) DeviceStatus(ctx context.Context) ([]models.DeviceStatus, error) {
	body, err := c.get(ctx, "device status", c.paths.DeviceStatusPath, nil)
	if err != nil {
		return nil, err
	}
	return decodeArray[models.DeviceStatus]("device status", body)
}

// CheckCredentials asks the bridge whether the operator credentials are valid.
func (c *Client) CheckCredentials(ctx context.Context, username, password string) ([]models.CredentialStatus, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	body, err := c.get(ctx, "check credentials", c.paths.CredentialsPath, q)
	if err != nil {
		return nil, err
	}
	return decodeArray[models.CredentialStatus]("check credentials", body)
}
