package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/entity"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 30 * time.Second

var (
	errMissingBaseURL = errors.New("remote base url is required")
	errMissingSyncKey = errors.New("remote sync key is required")
)

// Record is one wire row returned by a watermark-bounded fetch. Fields
// holds the full payload; ID, UpdatedAtMillis, and IsDeleted are lifted
// out because the pull reconciler branches on them.
type Record struct {
	ID              string
	UpdatedAtMillis int64
	IsDeleted       bool
	Fields          map[string]interface{}
}

// Config describes how to reach the remote store.
type Config struct {
	BaseURL    string
	SyncKey    string
	DeviceID   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the remote store API. It lazily exchanges the shared
// sync key for a bearer token and refreshes it once on rejection.
type Client struct {
	baseURL    string
	syncKey    string
	deviceID   string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	token string
}

// NewClient constructs a remote store client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingBaseURL
	}
	if strings.TrimSpace(cfg.SyncKey) == "" {
		return nil, errMissingSyncKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	deviceID := strings.TrimSpace(cfg.DeviceID)
	if deviceID == "" {
		deviceID = "hurvest-replica"
	}

	return &Client{
		baseURL:    base,
		syncKey:    cfg.SyncKey,
		deviceID:   deviceID,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Upsert ships one scrubbed record to the remote store, keyed by its id.
func (c *Client) Upsert(ctx context.Context, table string, fields map[string]interface{}) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", table, err)
	}
	response, err := c.do(ctx, http.MethodPost, "/v1/"+table, body)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return decodeStoreError(response)
	}
	return nil
}

// Delete removes a record from the remote store by id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	response, err := c.do(ctx, http.MethodDelete, "/v1/"+table+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return decodeStoreError(response)
	}
	return nil
}

// FetchSince returns every remote record of a table updated strictly
// after the provided epoch-millisecond watermark, in ascending server
// update order.
func (c *Client) FetchSince(ctx context.Context, table string, sinceMillis int64) ([]Record, error) {
	updatedAfter := entity.FormatTimestamp(time.UnixMilli(sinceMillis))
	path := "/v1/" + table + "?updated_after=" + url.QueryEscape(updatedAfter)

	response, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, decodeStoreError(response)
	}

	var payload struct {
		Records []map[string]interface{} `json:"records"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode %s fetch response: %w", table, err)
	}

	records := make([]Record, 0, len(payload.Records))
	for _, fields := range payload.Records {
		records = append(records, parseRecord(fields))
	}
	return records, nil
}

func parseRecord(fields map[string]interface{}) Record {
	record := Record{Fields: fields}
	if id, ok := fields[entity.ColumnID].(string); ok {
		record.ID = id
	}
	if updatedAt, ok := fields[entity.ColumnUpdatedAt].(string); ok {
		record.UpdatedAtMillis = entity.ParseTimestampMillis(updatedAt)
	}
	record.IsDeleted = truthy(fields[entity.ColumnIsDeleted])
	return record
}

func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	token, err := c.ensureToken(ctx, false)
	if err != nil {
		return nil, err
	}

	response, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusUnauthorized {
		return response, nil
	}

	// Token expired mid-session; refresh once and retry.
	io.Copy(io.Discard, response.Body) //nolint:errcheck
	response.Body.Close()

	token, err = c.ensureToken(ctx, true)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, body, token)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bearer "+token)
	return c.httpClient.Do(request)
}

func (c *Client) ensureToken(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && !refresh {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"sync_key":  c.syncKey,
		"device_id": c.deviceID,
	})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return "", decodeStoreError(response)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", errors.New("remote store issued an empty token")
	}

	c.token = payload.AccessToken
	c.logger.Debug("sync token refreshed", zap.String("device_id", c.deviceID))
	return c.token, nil
}

func decodeStoreError(response *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<16))
	if err != nil {
		return &StoreError{Message: response.Status}
	}

	var storeError StoreError
	if err := json.Unmarshal(raw, &storeError); err != nil || (storeError.Code == "" && storeError.Message == "") {
		return &StoreError{Message: fmt.Sprintf("%s: %s", response.Status, strings.TrimSpace(string(raw)))}
	}
	return &storeError
}
