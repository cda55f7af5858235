package app

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/logging"
)

// API is the part of the hosting client the executor uses.
type API interface {
	ListProjects(ctx context.Context, opts hosting.ListOptions) ([]hosting.Project, error)
	CreateProject(ctx context.Context, req hosting.CreateProjectRequest) (*hosting.Project, error)
	DeleteProject(ctx context.Context, id string) error
	UploadFiles(ctx context.Context, id string, uploads []hosting.Upload) (*hosting.UploadResult, error)
	ListFiles(ctx context.Context, id string) ([]hosting.FileInfo, error)
	ServerInfo(ctx context.Context) (*hosting.ServerInfo, error)
	View(ctx context.Context, idOrName string) (*hosting.ViewResult, error)
}

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard is the operating system clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// Executor performs effects.
type Executor struct {
	api       API
	clipboard Clipboard
	logger    *logging.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) ExecutorOption {
	return func(e *Executor) { e.clipboard = c }
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(l *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l.Named("app")
		}
	}
}

// NewExecutor creates an executor backed by api.
func NewExecutor(api API, opts ...ExecutorOption) *Executor {
	e := &Executor{
		api:       api,
		clipboard: SystemClipboard{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs eff and returns the command reporting its outcome, or nil
// when there is nothing to report.
func (e *Executor) Run(ctx context.Context, eff Effect) Command {
	e.logger.Debug(ctx, "running effect", zap.String("effect", fmt.Sprintf("%T", eff)))

	switch ef := eff.(type) {
	case FetchProjects:
		projects, err := e.api.ListProjects(ctx, hosting.ListOptions{})
		if err != nil {
			e.logger.Warn(ctx, "failed to load projects", zap.Error(err))
			return LoadFailed{Err: err}
		}
		return ProjectsLoaded{Projects: projects}

	case SubmitProject:
		p, err := e.api.CreateProject(ctx, ef.Request)
		if err != nil {
			e.logger.Warn(ctx, "failed to create project", zap.String("name", ef.Request.Name), zap.Error(err))
			return CreateFailed{Err: err}
		}
		e.logger.Info(logging.WithProjectID(ctx, p.ID), "project created", zap.String("name", p.Name))
		return ProjectCreated{Project: *p}

	case RemoveProject:
		ctx = logging.WithProjectID(ctx, ef.ID)
		if err := e.api.DeleteProject(ctx, ef.ID); err != nil {
			e.logger.Warn(ctx, "failed to delete project", zap.Error(err))
			return DeleteFailed{ID: ef.ID, Err: err}
		}
		e.logger.Info(ctx, "project deleted")
		return ProjectDeleted{ID: ef.ID}

	case SendFiles:
		ctx = logging.WithProjectID(ctx, ef.ID)
		result, err := e.api.UploadFiles(ctx, ef.ID, ef.Uploads)
		if err != nil {
			e.logger.Warn(ctx, "failed to upload files", zap.Int("files", len(ef.Uploads)), zap.Error(err))
			return UploadFailed{ID: ef.ID, Err: err}
		}
		e.logger.Info(ctx, "files uploaded",
			zap.Int("files", len(result.Uploaded)),
			zap.Int64("total_size", result.TotalSize))
		return FilesUploaded{ID: ef.ID, Result: *result}

	case FetchPreview:
		view, err := e.api.View(ctx, ef.ID)
		if err != nil {
			e.logger.Warn(logging.WithProjectID(ctx, ef.ID), "failed to load preview", zap.Error(err))
			return PreviewFailed{ID: ef.ID, Err: err}
		}
		return PreviewLoaded{ID: ef.ID, Result: *view}

	case FetchServerInfo:
		info, err := e.api.ServerInfo(ctx)
		if err != nil {
			e.logger.Warn(ctx, "failed to fetch server info", zap.Error(err))
			return ServerInfoLoaded{}
		}
		return ServerInfoLoaded{Info: info}

	case FetchFiles:
		files, err := e.api.ListFiles(ctx, ef.ID)
		if err != nil {
			e.logger.Warn(logging.WithProjectID(ctx, ef.ID), "failed to load files", zap.Error(err))
			return FilesFailed{ID: ef.ID, Err: err}
		}
		return FilesListed{ID: ef.ID, Files: files}

	case WriteClipboard:
		if err := e.clipboard.WriteAll(ef.Text); err != nil {
			e.logger.Warn(ctx, "failed to copy to clipboard", zap.Error(err))
			return CopyFailed{Err: err}
		}
		return Copied{}

	case ScheduleDismiss:
		timer := time.NewTimer(ef.After)
		defer timer.Stop()
		select {
		case <-timer.C:
			return DismissNotice{ID: ef.ID}
		case <-ctx.Done():
			return nil
		}
	}

	e.logger.Warn(ctx, "unknown effect", zap.String("effect", fmt.Sprintf("%T", eff)))
	return nil
}
