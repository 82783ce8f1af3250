package qlik

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// listResponse is the envelope shape shared by tenant list endpoints.
type listResponse[T any] struct {
	Data []T `json:"data"`
}

// App is an application on the tenant.
type App struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SpaceID     string    `json:"spaceId,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdDate,omitempty"`
	ModifiedAt  time.Time `json:"modifiedDate,omitempty"`
}

// Space is a shared or managed workspace.
type Space struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Reload is one reload run of an app.
type Reload struct {
	ID        string    `json:"id"`
	AppID     string    `json:"appId"`
	Status    string    `json:"status"`
	Partial   bool      `json:"partial"`
	StartTime time.Time `json:"startTime,omitempty"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Log       string    `json:"log,omitempty"`
}

// Automation is a tenant automation workflow.
type Automation struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	State      string    `json:"state"`
	RunMode    string    `json:"runMode,omitempty"`
	LastRunAt  time.Time `json:"lastRunAt,omitempty"`
	ModifiedAt time.Time `json:"updatedAt,omitempty"`
}

// Item is a data catalog entry.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId,omitempty"`
	SpaceID      string    `json:"spaceId,omitempty"`
	Description  string    `json:"description,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// ListApps returns up to limit apps on the tenant.
func (c *Client) ListApps(ctx context.Context, limit int) ([]App, error) {
	query := url.Values{"resourceType": {"app"}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse[Item]
	if err := c.get(ctx, "/api/v1/items", query, &resp); err != nil {
		return nil, err
	}

	apps := make([]App, 0, len(resp.Data))
	for _, item := range resp.Data {
		apps = append(apps, App{
			ID:          item.ResourceID,
			Name:        item.Name,
			Description: item.Description,
			SpaceID:     item.SpaceID,
			ModifiedAt:  item.UpdatedAt,
		})
	}
	return apps, nil
}

// GetApp fetches a single app by id.
func (c *Client) GetApp(ctx context.Context, appID string) (*App, error) {
	var resp struct {
		Attributes App `json:"attributes"`
	}
	if err := c.get(ctx, "/api/v1/apps/"+url.PathEscape(appID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Attributes, nil
}

// ListSpaces returns up to limit spaces.
func (c *Client) ListSpaces(ctx context.Context, limit int) ([]Space, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse[Space]
	if err := c.get(ctx, "/api/v1/spaces", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListReloads returns recent reloads, optionally filtered by app.
func (c *Client) ListReloads(ctx context.Context, appID string, limit int) ([]Reload, error) {
	query := url.Values{}
	if appID != "" {
		query.Set("appId", appID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse[Reload]
	if err := c.get(ctx, "/api/v1/reloads", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TriggerReload starts a reload of the given app.
func (c *Client) TriggerReload(ctx context.Context, appID string, partial bool) (*Reload, error) {
	body := map[string]any{
		"appId":   appID,
		"partial": partial,
	}
	var reload Reload
	if err := c.post(ctx, "/api/v1/reloads", body, &reload); err != nil {
		return nil, err
	}
	return &reload, nil
}

// ListAutomations returns up to limit automations.
func (c *Client) ListAutomations(ctx context.Context, limit int) ([]Automation, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse[Automation]
	if err := c.get(ctx, "/api/v1/automations", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// RunAutomation triggers an automation run.
func (c *Client) RunAutomation(ctx context.Context, automationID string) error {
	endpoint := "/api/v1/automations/" + url.PathEscape(automationID) + "/runs"
	return c.post(ctx, endpoint, map[string]any{}, nil)
}

// ListItems returns data catalog entries, optionally filtered by
// resource type (app, dataset, automation, ...).
func (c *Client) ListItems(ctx context.Context, resourceType string, limit int) ([]Item, error) {
	query := url.Values{}
	if resourceType != "" {
		query.Set("resourceType", resourceType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp listResponse[Item]
	if err := c.get(ctx, "/api/v1/items", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
