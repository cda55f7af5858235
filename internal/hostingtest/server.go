// Package hostingtest provides an in-memory fake of the hosting backend API
// for tests.
package hostingtest

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

const (
	idAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	idLength   = 6

	// timestampLayout matches the naive UTC timestamps the real backend writes.
	timestampLayout = "2006-01-02T15:04:05.000000"
)

// Server is an httptest server speaking the hosting API.
type Server struct {
	URL string

	srv    *httptest.Server
	echo   *echo.Echo
	logger *zap.Logger

	mu         sync.Mutex
	seq        int
	projects   map[string]*project
	serverInfo *hosting.ServerInfo
	calls      map[string]int
	requestIDs []string
	failures   map[string]failure
	started    time.Time
}

type project struct {
	seq       int
	id        string
	name      string
	entryFile string
	createdAt time.Time
	updatedAt time.Time
	files     map[string]*storedFile
}

type storedFile struct {
	data       []byte
	uploadedAt time.Time
}

type failure struct {
	status int
	detail string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs every request the fake handles.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithServerInfo makes GET /api/server-info answer with info.
func WithServerInfo(info hosting.ServerInfo) Option {
	return func(s *Server) { s.serverInfo = &info }
}

// NewServer starts a fake backend that is closed when the test ends.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	s := &Server{
		logger:   zap.NewNop(),
		projects: make(map[string]*project),
		calls:    make(map[string]int),
		failures: make(map[string]failure),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Debug("fake backend request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s.echo = e
	s.registerRoutes()

	s.srv = httptest.NewServer(e)
	s.URL = s.srv.URL
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/api/health", s.op("Health", s.handleHealth))
	s.echo.GET("/api/server-info", s.op("ServerInfo", s.handleServerInfo))

	api := s.echo.Group("/api/projects")
	api.GET("", s.op("ListProjects", s.handleList))
	api.POST("", s.op("CreateProject", s.handleCreate))
	api.GET("/:ref", s.op("GetProject", s.handleGet))
	api.PUT("/:id", s.op("UpdateProject", s.handleUpdate))
	api.DELETE("/:id", s.op("DeleteProject", s.handleDelete))
	api.GET("/:id/files", s.op("ListFiles", s.handleListFiles))
	api.POST("/:id/files", s.op("UploadFiles", s.handleUpload))

	s.echo.GET("/view/:ref", s.op("View", s.handleView))
	s.echo.GET("/view/:ref/*", s.op("View", s.handleView))
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Client returns a hosting client pointed at the fake.
func (s *Server) Client(opts ...hosting.Option) *hosting.Client {
	return hosting.New(s.URL, opts...)
}

// op counts calls to a route and applies injected failures.
func (s *Server) op(name string, h echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.calls[name]++
		if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
			s.requestIDs = append(s.requestIDs, id)
		}
		f, failing := s.failures[name]
		s.mu.Unlock()

		if failing {
			if f.detail == "" {
				return c.String(f.status, http.StatusText(f.status))
			}
			return c.JSON(f.status, map[string]string{"detail": f.detail})
		}
		return h(c)
	}
}

// Fail makes every later call to op answer with status. An empty detail
// produces a response without a {"detail"} body.
func (s *Server) Fail(op string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{status: status, detail: detail}
}

// ClearFailures removes all injected failures.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// SetServerInfo changes the server-info answer. Nil makes the route 404.
func (s *Server) SetServerInfo(info *hosting.ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverInfo = info
}

// Calls returns how many requests reached op.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of requests handled.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// RequestIDs returns the X-Request-ID of every request in arrival order.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// AddProject seeds a project directly.
func (s *Server) AddProject(name, entryFile string) hosting.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(name, hosting.NormalizeEntryFile(entryFile)).toAPI()
}

// AddFile seeds a stored file.
func (s *Server) AddFile(projectID, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %q not found", projectID)
	}
	p.files[name] = &storedFile{data: data, uploadedAt: time.Now().UTC()}
	return nil
}

// File returns a stored file's content.
func (s *Server) File(projectID, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, false
	}
	f, ok := p.files[name]
	if !ok {
		return nil, false
	}
	return f.data, true
}

// Project returns a stored project.
func (s *Server) Project(id string) (hosting.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return hosting.Project{}, false
	}
	return p.toAPI(), true
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var detail any = "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = he.Message
	}
	_ = c.JSON(status, map[string]any{"detail": detail})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, hosting.Health{
		Status: "ok",
		Uptime: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleServerInfo(c echo.Context) error {
	s.mu.Lock()
	info := s.serverInfo
	s.mu.Unlock()
	if info == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleList(c echo.Context) error {
	search := strings.ToLower(c.QueryParam("search"))
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldError{
				{Loc: []any{"query", "limit"}, Msg: "Input should be a valid integer"},
			})
		}
		limit = n
	}

	s.mu.Lock()
	ordered := make([]*project, 0, len(s.projects))
	for _, p := range s.projects {
		if search == "" || strings.Contains(strings.ToLower(p.name), search) {
			ordered = append(ordered, p)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq > ordered[j].seq })
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	out := make([]hosting.Project, len(ordered))
	for i, p := range ordered {
		out[i] = p.toAPI()
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"projects": out, "total": len(out)})
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

type projectBody struct {
	Name      *string `json:"name"`
	EntryFile *string `json:"entry_file"`
}

func validateName(name *string) error {
	if name == nil {
		return nil
	}
	switch n := len(*name); {
	case n < 1:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldError{
			{Loc: []any{"body", "name"}, Msg: "String should have at least 1 character"},
		})
	case n > 100:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldError{
			{Loc: []any{"body", "name"}, Msg: "String should have at most 100 characters"},
		})
	}
	return nil
}

func (s *Server) handleCreate(c echo.Context) error {
	var body projectBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if body.Name == nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldError{
			{Loc: []any{"body", "name"}, Msg: "Field required"},
		})
	}
	if err := validateName(body.Name); err != nil {
		return err
	}
	entry := hosting.DefaultEntryFile
	if body.EntryFile != nil {
		entry = *body.EntryFile
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byNameLocked(*body.Name) != nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Project with name '%s' already exists", *body.Name))
	}
	return c.JSON(http.StatusCreated, s.createLocked(*body.Name, entry).toAPI())
}

func (s *Server) handleGet(c echo.Context) error {
	ref := c.Param("ref")
	s.mu.Lock()
	p := s.resolveLocked(ref)
	s.mu.Unlock()
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", ref))
	}
	return c.JSON(http.StatusOK, p.toAPI())
}

func (s *Server) handleUpdate(c echo.Context) error {
	id := c.Param("id")
	var body projectBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid request body")
	}
	if err := validateName(body.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", id))
	}
	if body.Name != nil && *body.Name != p.name {
		if s.byNameLocked(*body.Name) != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Project with name '%s' already exists", *body.Name))
		}
		p.name = *body.Name
	}
	if body.EntryFile != nil {
		p.entryFile = *body.EntryFile
	}
	p.updatedAt = time.Now().UTC()
	return c.JSON(http.StatusOK, p.toAPI())
}

func (s *Server) handleDelete(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", id))
	}
	delete(s.projects, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListFiles(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", id))
	}

	names := make([]string, 0, len(p.files))
	for name := range p.files {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]map[string]any, len(names))
	for i, name := range names {
		f := p.files[name]
		out[i] = map[string]any{
			"filename":    name,
			"size":        len(f.data),
			"uploaded_at": f.uploadedAt.Format(timestampLayout),
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleUpload(c echo.Context) error {
	id := c.Param("id")
	s.mu.Lock()
	_, ok := s.projects[id]
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", id))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid multipart body")
	}
	headers := form.File[hosting.UploadField]
	if len(headers) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, []fieldError{
			{Loc: []any{"body", hosting.UploadField}, Msg: "Field required"},
		})
	}

	type received struct {
		name string
		data []byte
	}
	files := make([]received, 0, len(headers))
	var total int64
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Upload failed: "+err.Error())
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Upload failed: "+err.Error())
		}
		files = append(files, received{name: rawFilename(fh.Header.Get("Content-Disposition"), fh.Filename), data: data})
		total += int64(len(data))
	}

	if total > hosting.MaxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Total upload size %d bytes exceeds maximum %d bytes", total, hosting.MaxUploadSize))
	}

	uploaded := make([]string, 0, len(files))
	for _, f := range files {
		name, err := hosting.ValidateFilename(f.name)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		uploaded = append(uploaded, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", id))
	}
	now := time.Now().UTC()
	for i, f := range files {
		p.files[uploaded[i]] = &storedFile{data: f.data, uploadedAt: now}
	}

	return c.JSON(http.StatusOK, hosting.UploadResult{Uploaded: uploaded, TotalSize: total})
}

// rawFilename recovers the filename parameter as sent. The multipart reader
// reduces it to its base name, which loses nested paths.
func rawFilename(disposition, fallback string) string {
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return fallback
	}
	return params["filename"]
}

func (s *Server) handleView(c echo.Context) error {
	ref := c.Param("ref")
	path := c.Param("*")

	s.mu.Lock()
	p := s.resolveLocked(ref)
	var f *storedFile
	if p != nil {
		if path == "" {
			path = p.entryFile
		}
		f = p.files[path]
	}
	s.mu.Unlock()

	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Project '%s' not found", ref))
	}
	if f == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("File '%s' not found", path))
	}
	return c.Blob(http.StatusOK, mimetype.Detect(f.data).String(), f.data)
}

func (s *Server) createLocked(name, entryFile string) *project {
	s.seq++
	now := time.Now().UTC()
	p := &project{
		seq:       s.seq,
		id:        s.newIDLocked(),
		name:      name,
		entryFile: entryFile,
		createdAt: now,
		updatedAt: now,
		files:     make(map[string]*storedFile),
	}
	s.projects[p.id] = p
	return p
}

func (s *Server) newIDLocked() string {
	for {
		b := make([]byte, idLength)
		for i := range b {
			b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
		}
		if _, taken := s.projects[string(b)]; !taken {
			return string(b)
		}
	}
}

func (s *Server) byNameLocked(name string) *project {
	for _, p := range s.projects {
		if p.name == name {
			return p
		}
	}
	return nil
}

// resolveLocked tries ref as an id when it has id length, then as a name.
func (s *Server) resolveLocked(ref string) *project {
	if len(ref) == idLength {
		if p, ok := s.projects[ref]; ok {
			return p
		}
	}
	return s.byNameLocked(ref)
}

func (p *project) toAPI() hosting.Project {
	return hosting.Project{
		ID:        p.id,
		Name:      p.name,
		EntryFile: p.entryFile,
		CreatedAt: hosting.Timestamp{Time: p.createdAt},
		UpdatedAt: hosting.Timestamp{Time: p.updatedAt},
	}
}
