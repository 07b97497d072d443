package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/mbolis/quick-event/model"
)

func (c *Client) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/events", body: e, auth: true}, &resp)
	if err != nil {
		return model.Event{}, err
	}
	e.ID = resp.ID
	return c.Event(ctx, e.ID)
}

// Event returns an event, from the session cache when possible.
func (c *Client) Event(ctx context.Context, id int64) (model.Event, error) {
	if e, ok := c.session.Event(id); ok {
		return e, nil
	}
	var e model.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: eventPath(id, ""), auth: true}, &e); err != nil {
		return model.Event{}, err
	}
	c.session.CacheEvent(e)
	return e, nil
}

func (c *Client) UpdateEvent(ctx context.Context, e model.Event) error {
	c.session.ForgetEvent(e.ID)
	return c.do(ctx, request{method: http.MethodPut, path: eventPath(e.ID, ""), body: e, auth: true}, nil)
}

func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	c.session.ForgetEvent(id)
	return c.do(ctx, request{method: http.MethodDelete, path: eventPath(id, ""), auth: true}, nil)
}

func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var resp struct {
		Events []model.Event `json:"events"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/events", auth: true}, &resp)
	return resp.Events, err
}

func (c *Client) LoadFormConfig(ctx context.Context, eventID int64) (model.FormConfig, error) {
	var cfg model.FormConfig
	err := c.do(ctx, request{method: http.MethodGet, path: eventPath(eventID, "/form-config"), auth: true}, &cfg)
	return cfg, err
}

func (c *Client) SaveFormConfig(ctx context.Context, eventID int64, fields []model.Field) error {
	body := model.SaveFormConfig{Fields: fields}
	return c.do(ctx, request{method: http.MethodPost, path: eventPath(eventID, "/form-config"), body: body, auth: true}, nil)
}

// PublicFormConfig fetches the published fields of an event by id or slug.
func (c *Client) PublicFormConfig(ctx context.Context, ref string) (model.PublicFormConfig, error) {
	var cfg model.PublicFormConfig
	path := "/api/events/" + url.PathEscape(ref) + "/public-form-config"
	err := c.do(ctx, request{method: http.MethodGet, path: path}, &cfg)
	return cfg, err
}

func (c *Client) Register(ctx context.Context, req model.RegistrationRequest) (model.Registration, error) {
	var reg model.Registration
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/register", body: req}, &reg)
	return reg, err
}

func (c *Client) Attendees(ctx context.Context, eventID int64) ([]model.Attendee, error) {
	var resp struct {
		Attendees []model.Attendee `json:"attendees"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: eventPath(eventID, "/attendees"), auth: true}, &resp)
	return resp.Attendees, err
}

func (c *Client) CreateDataSource(ctx context.Context, ds model.DataSource) (model.DataSource, error) {
	var created model.DataSource
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/data-sources", body: ds, auth: true}, &created)
	return created, err
}

// DataSources lists every data source the user can see.
func (c *Client) DataSources(ctx context.Context) ([]model.DataSource, error) {
	var resp struct {
		DataSources []model.DataSource `json:"data_sources"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/data-sources", auth: true}, &resp)
	return resp.DataSources, err
}

func (c *Client) EventDataSources(ctx context.Context, eventID int64) ([]model.DataSource, error) {
	var resp struct {
		DataSources []model.DataSource `json:"data_sources"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: eventPath(eventID, "/data-sources"), auth: true}, &resp)
	return resp.DataSources, err
}

// Sync triggers one import run of a data source.
func (c *Client) Sync(ctx context.Context, id int64) (model.SyncResult, error) {
	var res model.SyncResult
	path := "/api/data-sources/" + strconv.FormatInt(id, 10) + "/sync"
	err := c.do(ctx, request{method: http.MethodPost, path: path, auth: true}, &res)
	return res, err
}

func (c *Client) GoogleAuthURL(ctx context.Context, state string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := "/api/integrations/google/auth-url?state=" + url.QueryEscape(state)
	err := c.do(ctx, request{method: http.MethodGet, path: path, auth: true}, &resp)
	return resp.URL, err
}

// ExchangeGoogleCode lets the backend trade an OAuth code for tokens; the
// client secret never leaves the server.
func (c *Client) ExchangeGoogleCode(ctx context.Context, code string) (*oauth2.Token, error) {
	var tok oauth2.Token
	body := map[string]string{"code": code}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/integrations/google/token", body: body, auth: true}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}
