package service

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
	"time"

	"quiz_console/internal/config"
	"quiz_console/internal/model"
	"quiz_console/pkg/logger"
	"quiz_console/pkg/monitoring"
	"quiz_console/pkg/tracing"

	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// BackendClient 远端内容后端的 HTTP 客户端，所有调用携带 Bearer 凭证和超时
type BackendClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewBackendClient(cfg config.BackendConfig, httpClient *http.Client) *BackendClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BackendClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    httpClient,
	}
}

type readEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type writeEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type call struct {
	resource  string
	operation string
	method    string
	path      string
	query     url.Values
	body      interface{}
}

// do 发送请求并返回 2xx 响应体。非 2xx 时若响应体是 {success:false} 视为后端拒绝
func (c *BackendClient) do(ctx context.Context, cl call) (body []byte, err error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracing.StartBackendSpan(ctx, cl.resource, cl.operation)
	defer func() {
		outcome := "ok"
		var rejected *BackendRejectedError
		if errors.As(err, &rejected) {
			outcome = "rejected"
		} else if err != nil {
			outcome = "error"
		}
		monitoring.ObserveBackend(cl.resource, cl.operation, outcome, started)
		tracing.EndWithError(span, err)
	}()

	transportErr := func(cause error) error {
		return &TransportError{Resource: cl.resource, Operation: cl.operation, Err: cause}
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(cl.path, "/")
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return nil, transportErr(fmt.Errorf("encode payload: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return nil, transportErr(err)
	}
	requestID := model.GenerateUUID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.Error("Backend request failed",
			zap.String("resource", cl.resource),
			zap.String("operation", cl.operation),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, transportErr(err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportErr(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env writeEnvelope
		if json.Unmarshal(body, &env) == nil && bytes.Contains(body, []byte(`"success"`)) && !env.Success {
			return nil, &BackendRejectedError{Resource: cl.resource, Operation: cl.operation, Status: resp.StatusCode}
		}
		logger.Log.Error("Backend returned unexpected status",
			zap.String("resource", cl.resource),
			zap.String("operation", cl.operation),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
		)
		return nil, transportErr(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	logger.Log.Debug("Backend request",
		zap.String("resource", cl.resource),
		zap.String("operation", cl.operation),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)
	return body, nil
}

func decodeData(resource, operation string, body []byte, out interface{}) error {
	var env readEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Resource: resource, Operation: operation, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return &TransportError{Resource: resource, Operation: operation, Err: errors.New("decode response: missing data")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Resource: resource, Operation: operation, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func decodeWrite(resource, operation string, body []byte) (writeEnvelope, error) {
	var env writeEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return env, &TransportError{Resource: resource, Operation: operation, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		return env, &BackendRejectedError{Resource: resource, Operation: operation, Status: http.StatusOK}
	}
	return env, nil
}

// Endpoint 一种资源在后端的 CRUD 接口
type Endpoint[K model.Entity] struct {
	client      *BackendClient
	resource    string
	path        string
	filterParam string
}

// NewEndpoint filterParam 为空表示该资源不支持按父级过滤
func NewEndpoint[K model.Entity](client *BackendClient, resource, path, filterParam string) *Endpoint[K] {
	return &Endpoint[K]{
		client:      client,
		resource:    resource,
		path:        path,
		filterParam: filterParam,
	}
}

func (e *Endpoint[K]) Resource() string {
	return e.resource
}

// List GET /{resource}[?filterParam=filterKey]
func (e *Endpoint[K]) List(ctx context.Context, filterKey string) ([]K, error) {
	var query url.Values
	if filterKey != "" && e.filterParam != "" {
		query = url.Values{e.filterParam: {filterKey}}
	}
	body, err := e.client.do(ctx, call{
		resource: e.resource, operation: "list",
		method: http.MethodGet, path: e.path, query: query,
	})
	if err != nil {
		return nil, err
	}
	var items []K
	if err := decodeData(e.resource, "list", body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Get GET /{resource}?id=
func (e *Endpoint[K]) Get(ctx context.Context, id string) (K, error) {
	var item K
	body, err := e.client.do(ctx, call{
		resource: e.resource, operation: "get",
		method: http.MethodGet, path: e.path, query: url.Values{"id": {id}},
	})
	if err != nil {
		return item, err
	}
	err = decodeData(e.resource, "get", body, &item)
	return item, err
}

// Create POST /{resource}，后端可能回传新建的实体
func (e *Endpoint[K]) Create(ctx context.Context, payload interface{}) (*K, error) {
	body, err := e.client.do(ctx, call{
		resource: e.resource, operation: "create",
		method: http.MethodPost, path: e.path, body: payload,
	})
	if err != nil {
		return nil, err
	}
	env, err := decodeWrite(e.resource, "create", body)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, nil
	}
	var created K
	if err := json.Unmarshal(env.Data, &created); err != nil {
		// 创建已成功，回传数据无法解析不影响结果
		logger.Log.Warn("Failed to decode created entity", zap.String("resource", e.resource), zap.Error(err))
		return nil, nil
	}
	return &created, nil
}

// Update PUT /{resource}?id=
func (e *Endpoint[K]) Update(ctx context.Context, id string, payload interface{}) error {
	body, err := e.client.do(ctx, call{
		resource: e.resource, operation: "update",
		method: http.MethodPut, path: e.path, query: url.Values{"id": {id}}, body: payload,
	})
	if err != nil {
		return err
	}
	_, err = decodeWrite(e.resource, "update", body)
	return err
}

// Delete DELETE /{resource}?id=
func (e *Endpoint[K]) Delete(ctx context.Context, id string) error {
	body, err := e.client.do(ctx, call{
		resource: e.resource, operation: "delete",
		method: http.MethodDelete, path: e.path, query: url.Values{"id": {id}},
	})
	if err != nil {
		return err
	}
	_, err = decodeWrite(e.resource, "delete", body)
	return err
}
