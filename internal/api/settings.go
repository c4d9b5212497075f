package api

import "context"

// Settings is kept as a loose map; the backend's settings shape varies
// between releases.
type Settings map[string]any

func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	var resp Settings
	if err := c.get(ctx, "/api/settings", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UpdateSettings(ctx context.Context, update Settings) (Settings, error) {
	var resp Settings
	if err := c.put(ctx, "/api/settings", update, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
