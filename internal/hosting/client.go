// Package hosting is a typed HTTP client for the framebox hosting backend.
package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/logging"
	"github.com/fyrsmithlabs/framebox/internal/telemetry"
)

const (
	instrumentationName = "github.com/fyrsmithlabs/framebox/internal/hosting"

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 << 10
	maxExcerpt   = 2 << 10
	maxViewBody  = 10 << 20
)

// Client talks to one hosting backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("hosting")
		}
	}
}

// WithTelemetry sources the tracer and request metrics from tel.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(c *Client) {
		c.tracer = tel.Tracer(instrumentationName)
		c.initMetrics(tel.Meter(instrumentationName))
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logging.NewNop(),
		tracer:     otel.Tracer(instrumentationName),
	}
	c.initMetrics(otel.Meter(instrumentationName))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) initMetrics(meter metric.Meter) {
	var err error
	c.requests, err = meter.Int64Counter("framebox.api.requests",
		metric.WithDescription("Requests sent to the hosting backend"),
		metric.WithUnit("{request}"))
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create request counter", zap.Error(err))
	}
	c.duration, err = meter.Float64Histogram("framebox.api.duration",
		metric.WithDescription("Hosting backend request latency"),
		metric.WithUnit("s"))
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create duration histogram", zap.Error(err))
	}
}

// ListProjects returns projects in server order.
func (c *Client) ListProjects(ctx context.Context, opts ListOptions) ([]Project, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var out projectList
	err := c.send(ctx, "ListProjects", request{method: http.MethodGet, path: "/api/projects", query: q}, decodeJSON(&out))
	if err != nil {
		return nil, err
	}
	if out.Projects == nil {
		out.Projects = []Project{}
	}
	return out.Projects, nil
}

// GetProject looks a project up by id or by name.
func (c *Client) GetProject(ctx context.Context, idOrName string) (*Project, error) {
	var p Project
	err := c.send(ctx, "GetProject", request{method: http.MethodGet, path: "/api/projects/" + url.PathEscape(idOrName)}, decodeJSON(&p))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject creates a project. A blank entry file is sent as index.html.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.EntryFile = NormalizeEntryFile(req.EntryFile)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project: %w", err)
	}

	var p Project
	err = c.send(ctx, "CreateProject", request{
		method:      http.MethodPost,
		path:        "/api/projects",
		body:        body,
		contentType: "application/json",
	}, decodeJSON(&p))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject renames a project or changes its entry file.
func (c *Client) UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*Project, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode project update: %w", err)
	}

	var p Project
	err = c.send(logging.WithProjectID(ctx, id), "UpdateProject", request{
		method:      http.MethodPut,
		path:        "/api/projects/" + url.PathEscape(id),
		body:        body,
		contentType: "application/json",
	}, decodeJSON(&p))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProject removes a project and all of its files.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.send(logging.WithProjectID(ctx, id), "DeleteProject", request{
		method: http.MethodDelete,
		path:   "/api/projects/" + url.PathEscape(id),
	}, discardBody)
}

// ListFiles returns the stored files of a project ordered by name.
func (c *Client) ListFiles(ctx context.Context, id string) ([]FileInfo, error) {
	var files []FileInfo
	err := c.send(logging.WithProjectID(ctx, id), "ListFiles", request{
		method: http.MethodGet,
		path:   "/api/projects/" + url.PathEscape(id) + "/files",
	}, decodeJSON(&files))
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []FileInfo{}
	}
	return files, nil
}

// UploadFiles sends every upload to a project in one multipart request.
// An empty set sends nothing.
func (c *Client) UploadFiles(ctx context.Context, id string, uploads []Upload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return &UploadResult{Uploaded: []string{}}, nil
	}
	if err := CheckUploads(uploads); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(uploads)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithProjectID(ctx, id)
	var out UploadResult
	err = c.send(ctx, "UploadFiles", request{
		method:      http.MethodPost,
		path:        "/api/projects/" + url.PathEscape(id) + "/files",
		body:        body,
		contentType: contentType,
		attrs:       []attribute.KeyValue{attribute.Int("upload.files", len(uploads))},
	}, decodeJSON(&out))
	if err != nil {
		return nil, err
	}
	if out.Uploaded == nil {
		out.Uploaded = []string{}
	}
	return &out, nil
}

// ServerInfo asks the backend for its advertised addresses.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if err := c.send(ctx, "ServerInfo", request{method: http.MethodGet, path: "/api/server-info"}, decodeJSON(&info)); err != nil {
		return nil, err
	}
	return &info, nil
}

// Health reports backend liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.send(ctx, "Health", request{method: http.MethodGet, path: "/api/health"}, decodeJSON(&h)); err != nil {
		return nil, err
	}
	return &h, nil
}

// View fetches the entry document of a project the way a browser preview
// would and summarizes it.
func (c *Client) View(ctx context.Context, idOrName string) (*ViewResult, error) {
	result := &ViewResult{URL: ViewURL(c.baseURL, idOrName)}
	err := c.send(ctx, "View", request{method: http.MethodGet, path: viewPath(idOrName), accept: "*/*"}, func(resp *http.Response) error {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxViewBody))
		if err != nil {
			return networkError(resp.StatusCode, "failed to read preview", err)
		}
		result.Status = resp.StatusCode
		result.Size = resp.ContentLength
		if result.Size < 0 {
			result.Size = int64(len(data))
		}
		result.ContentType = resp.Header.Get("Content-Type")
		if result.ContentType == "" {
			result.ContentType = mimetype.Detect(data).String()
		}
		result.Excerpt = excerpt(data, result.ContentType)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ViewURL is the public preview address of a project under base.
func ViewURL(base, idOrName string) string {
	return strings.TrimRight(base, "/") + viewPath(idOrName)
}

func viewPath(idOrName string) string {
	return "/view/" + url.PathEscape(idOrName) + "/"
}

// NormalizeEntryFile trims entry and defaults it to index.html.
func NormalizeEntryFile(entry string) string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return DefaultEntryFile
	}
	return entry
}

// DefaultEntryFile is served when a project is created without one.
const DefaultEntryFile = "index.html"

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	accept      string
	attrs       []attribute.KeyValue
}

// send performs one request inside a client span. handle runs only for 2xx
// responses.
func (c *Client) send(ctx context.Context, op string, r request, handle func(*http.Response) error) error {
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)

	attrs := append([]attribute.KeyValue{
		attribute.String("http.request.method", r.method),
		attribute.String("url.path", r.path),
		attribute.String("request.id", requestID),
	}, r.attrs...)
	if projectID := logging.ProjectIDFromContext(ctx); projectID != "" {
		attrs = append(attrs, attribute.String("project.id", projectID))
	}

	ctx, span := c.tracer.Start(ctx, "hosting."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, requestID, r, handle)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if herr, ok := AsError(err); ok {
			outcome = herr.Kind.String()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	metricAttrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	)
	if c.requests != nil {
		c.requests.Add(ctx, 1, metricAttrs)
	}
	if c.duration != nil {
		c.duration.Record(ctx, elapsed.Seconds(), metricAttrs)
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	}
	if err != nil {
		c.logger.Warn(ctx, "hosting request failed", append(fields, zap.Error(err))...)
	} else {
		c.logger.Debug(ctx, "hosting request", fields...)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, requestID string, r request, handle func(*http.Response) error) (int, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return 0, networkError(0, "invalid request", err)
	}
	req.Header.Set(RequestIDHeader, requestID)
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	c.logger.Trace(ctx, "hosting request headers",
		zap.String("url", target),
		zap.Any("headers", req.Header),
		zap.Int("body_bytes", len(r.body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, networkError(0, transportMessage(err), err)
	}
	defer resp.Body.Close()

	c.logger.Trace(ctx, "hosting response headers",
		zap.Int("status", resp.StatusCode),
		zap.Any("headers", resp.Header))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, responseError(resp)
	}
	return resp.StatusCode, handle(resp)
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return "cannot reach server: " + uerr.Err.Error()
	}
	return "cannot reach server: " + err.Error()
}

// responseError classifies a non-2xx response by whether it carries a
// {"detail": ...} payload.
func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if msg := detailMessage(payload.Detail); msg != "" {
			return validationError(resp.StatusCode, msg)
		}
	}
	return networkError(resp.StatusCode,
		fmt.Sprintf("server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
}

func decodeJSON(out any) func(*http.Response) error {
	return func(resp *http.Response) error {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return networkError(resp.StatusCode, "invalid response from server", err)
		}
		return nil
	}
}

func discardBody(resp *http.Response) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return nil
}

func excerpt(data []byte, contentType string) string {
	if !strings.HasPrefix(contentType, "text/") &&
		!strings.Contains(contentType, "json") &&
		!strings.Contains(contentType, "javascript") &&
		!strings.Contains(contentType, "xml") {
		return ""
	}
	if len(data) > maxExcerpt {
		data = data[:maxExcerpt]
	}
	return strings.ToValidUTF8(string(data), "")
}
