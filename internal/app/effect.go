package app

import (
	"time"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

// Effect is a side effect requested by Reduce.
type Effect interface {
	effect()
}

// FetchProjects loads the project list.
type FetchProjects struct{}

// SubmitProject creates a project.
type SubmitProject struct{ Request hosting.CreateProjectRequest }

// RemoveProject deletes a project.
type RemoveProject struct{ ID string }

// SendFiles uploads files to a project.
type SendFiles struct {
	ID      string
	Uploads []hosting.Upload
}

// FetchPreview loads what the backend serves for a project.
type FetchPreview struct{ ID string }

// FetchServerInfo loads the backend's server info.
type FetchServerInfo struct{}

// FetchFiles lists a project's files.
type FetchFiles struct{ ID string }

// WriteClipboard copies text to the system clipboard.
type WriteClipboard struct{ Text string }

// ScheduleDismiss clears notice ID after a delay.
type ScheduleDismiss struct {
	ID    int
	After time.Duration
}

func (FetchProjects) effect()   {}
func (SubmitProject) effect()   {}
func (RemoveProject) effect()   {}
func (SendFiles) effect()       {}
func (FetchPreview) effect()    {}
func (FetchServerInfo) effect() {}
func (FetchFiles) effect()      {}
func (WriteClipboard) effect()  {}
func (ScheduleDismiss) effect() {}
