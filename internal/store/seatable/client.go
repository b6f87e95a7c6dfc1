// Package seatable implements the plugin store on top of the SeaTable REST
// API. A base API token is exchanged for an app access token on first use;
// all later calls go through the api-gateway endpoints of that base.
package seatable

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
)

const service = "seatable"

// AccessToken is the response of the app-access-token endpoint.
type AccessToken struct {
	AppName      string `json:"app_name"`
	AccessToken  string `json:"access_token"`
	DTableUUID   string `json:"dtable_uuid"`
	DTableServer string `json:"dtable_server"`
	DTableName   string `json:"dtable_name"`
	WorkspaceID  int    `json:"workspace_id"`
}

// apiError is the error body SeaTable returns on 4xx.
type apiError struct {
	ErrorMsg string `json:"error_msg"`
	Detail   string `json:"detail"`
}

func (e *apiError) message() string {
	if e.ErrorMsg != "" {
		return e.ErrorMsg
	}
	return e.Detail
}

// Client is an authenticated SeaTable base client.
type Client struct {
	http     *resty.Client
	server   string
	apiToken string

	mu     sync.Mutex
	access *AccessToken
}

// Option configures a Client.
type Option func(*Client)

// WithServerURL overrides the SeaTable server.
func WithServerURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.server = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).
			SetTimeout(constants.DefaultHTTPTimeout).
			SetHeader("User-Agent", "pluginsync")
	}
}

// NewClient creates a client for the base behind apiToken.
func NewClient(apiToken string, opts ...Option) (*Client, error) {
	if apiToken == "" {
		return nil, errors.NewConfigError("seatable", "API token is required", nil)
	}
	c := &Client{
		http: resty.New().
			SetTimeout(constants.DefaultHTTPTimeout).
			SetHeader("User-Agent", "pluginsync"),
		server:   constants.SeaTableServerURL,
		apiToken: apiToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Auth exchanges the API token for an app access token. The token is cached
// for the lifetime of the client.
func (c *Client) Auth(ctx context.Context) (*AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.access != nil {
		return c.access, nil
	}

	var token AccessToken
	var apiErr apiError
	endpoint := c.server + "/api/v2.1/dtable/app-access-token/"
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Token "+c.apiToken).
		SetHeader("Accept", "application/json").
		SetResult(&token).
		SetError(&apiErr).
		Get(endpoint)
	if err != nil {
		return nil, errors.WrapNetwork(service, endpoint, err)
	}
	if resp.IsError() {
		return nil, errors.NewNetworkError(service, endpoint, resp.StatusCode(), apiErr.message())
	}
	if token.AccessToken == "" || token.DTableUUID == "" {
		return nil, errors.NewNetworkError(service, endpoint, resp.StatusCode(), "response carries no access token")
	}

	logging.FromContext(ctx).Debug().
		Str("base", token.DTableName).
		Str("app", token.AppName).
		Msg("Authenticated with SeaTable")
	c.access = &token
	return c.access, nil
}

// request builds an authenticated api-gateway request and returns it with
// the absolute endpoint for path.
func (c *Client) request(ctx context.Context, path string) (*resty.Request, string, error) {
	access, err := c.Auth(ctx)
	if err != nil {
		return nil, "", err
	}
	endpoint := fmt.Sprintf("%s/api-gateway/api/v2/dtables/%s/%s", c.server, access.DTableUUID, strings.TrimLeft(path, "/"))
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+access.AccessToken).
		SetHeader("Accept", "application/json")
	return req, endpoint, nil
}

// check converts a resty outcome into a NetworkError.
func check(resp *resty.Response, endpoint string, err error, apiErr *apiError) error {
	if err != nil {
		return errors.WrapNetwork(service, endpoint, err)
	}
	if resp.IsError() {
		msg := apiErr.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return errors.NewNetworkError(service, endpoint, resp.StatusCode(), msg)
	}
	return nil
}

// QueryResult is the body of a SQL query.
type QueryResult struct {
	Results  []map[string]any `json:"results"`
	Metadata []Column         `json:"metadata"`
	Success  bool             `json:"success"`
}

// Query runs a SQL statement with column names as result keys.
func (c *Client) Query(ctx context.Context, sql string) (*QueryResult, error) {
	req, endpoint, err := c.request(ctx, "sql/")
	if err != nil {
		return nil, err
	}
	var result QueryResult
	var apiErr apiError
	resp, err := req.
		SetBody(map[string]any{"sql": sql, "convert_keys": true}).
		SetResult(&result).
		SetError(&apiErr).
		Post(endpoint)
	if err := check(resp, endpoint, err, &apiErr); err != nil {
		return nil, err
	}
	return &result, nil
}

// Column describes a table column.
type Column struct {
	Key  string         `json:"key"`
	Name string         `json:"name"`
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Table describes a base table.
type Table struct {
	ID      string   `json:"_id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Metadata fetches the base's table definitions.
func (c *Client) Metadata(ctx context.Context) ([]Table, error) {
	req, endpoint, err := c.request(ctx, "metadata/")
	if err != nil {
		return nil, err
	}
	var body struct {
		Metadata struct {
			Tables []Table `json:"tables"`
		} `json:"metadata"`
	}
	var apiErr apiError
	resp, err := req.SetResult(&body).SetError(&apiErr).Get(endpoint)
	if err := check(resp, endpoint, err, &apiErr); err != nil {
		return nil, err
	}
	return body.Metadata.Tables, nil
}

// LinkID returns the link id of a link column.
func (c *Client) LinkID(ctx context.Context, table, column string) (string, error) {
	tables, err := c.Metadata(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range tables {
		if t.Name != table {
			continue
		}
		for _, col := range t.Columns {
			if col.Name != column {
				continue
			}
			if id, ok := col.Data["link_id"].(string); ok && id != "" {
				return id, nil
			}
			return "", errors.NewValidationError(column, col.Type, "column is not a link column")
		}
	}
	return "", errors.NewNotFoundError("column", table+"."+column)
}

// AppendRow inserts one row and returns its row id.
func (c *Client) AppendRow(ctx context.Context, table string, row map[string]any) (string, error) {
	req, endpoint, err := c.request(ctx, "rows/")
	if err != nil {
		return "", err
	}
	var body struct {
		FirstRow map[string]any `json:"first_row"`
		RowIDs   []struct {
			ID string `json:"_id"`
		} `json:"row_ids"`
	}
	var apiErr apiError
	resp, err := req.
		SetBody(map[string]any{"table_name": table, "rows": []map[string]any{row}}).
		SetResult(&body).
		SetError(&apiErr).
		Post(endpoint)
	if err := check(resp, endpoint, err, &apiErr); err != nil {
		return "", err
	}
	if len(body.RowIDs) > 0 && body.RowIDs[0].ID != "" {
		return body.RowIDs[0].ID, nil
	}
	if id, ok := body.FirstRow["_id"].(string); ok && id != "" {
		return id, nil
	}
	return "", errors.NewNetworkError(service, endpoint, resp.StatusCode(), "response carries no row id")
}

// UpdateRow writes column values to a row.
func (c *Client) UpdateRow(ctx context.Context, table, rowID string, values map[string]any) error {
	req, endpoint, err := c.request(ctx, "rows/")
	if err != nil {
		return err
	}
	var apiErr apiError
	resp, err := req.
		SetBody(map[string]any{
			"table_name": table,
			"updates":    []map[string]any{{"row_id": rowID, "row": values}},
		}).
		SetError(&apiErr).
		Put(endpoint)
	return check(resp, endpoint, err, &apiErr)
}

// DeleteRow removes a row.
func (c *Client) DeleteRow(ctx context.Context, table, rowID string) error {
	req, endpoint, err := c.request(ctx, "rows/")
	if err != nil {
		return err
	}
	var apiErr apiError
	resp, err := req.
		SetBody(map[string]any{"table_name": table, "row_ids": []string{rowID}}).
		SetError(&apiErr).
		Delete(endpoint)
	return check(resp, endpoint, err, &apiErr)
}

// Link is one link between a row and rows of another table.
type Link struct {
	LinkID     string
	Table      string
	OtherTable string
	RowID      string
	OtherRowID string
}

func (l Link) body() map[string]any {
	return map[string]any{
		"link_id":            l.LinkID,
		"table_name":         l.Table,
		"other_table_name":   l.OtherTable,
		"other_rows_ids_map": map[string][]string{l.RowID: {l.OtherRowID}},
	}
}

// AddLink creates a link.
func (c *Client) AddLink(ctx context.Context, l Link) error {
	req, endpoint, err := c.request(ctx, "links/")
	if err != nil {
		return err
	}
	var apiErr apiError
	resp, err := req.SetBody(l.body()).SetError(&apiErr).Post(endpoint)
	return check(resp, endpoint, err, &apiErr)
}

// RemoveLink deletes a link.
func (c *Client) RemoveLink(ctx context.Context, l Link) error {
	req, endpoint, err := c.request(ctx, "links/")
	if err != nil {
		return err
	}
	var apiErr apiError
	resp, err := req.SetBody(l.body()).SetError(&apiErr).Delete(endpoint)
	return check(resp, endpoint, err, &apiErr)
}
