// Package app holds the framebox project client: an explicit State, typed
// Commands reduced into new states and side Effects, and an Executor that
// performs those effects against the hosting backend.
//
// Reduce is pure. Every network call, clipboard write and timer is an
// Effect; running one yields the Command that reports its outcome.
package app

import (
	"strings"
	"time"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

// DefaultToastDuration is how long a notice stays visible.
const DefaultToastDuration = 3 * time.Second

// NoticeKind distinguishes success and error notices.
type NoticeKind int

const (
	NoticeSuccess NoticeKind = iota
	NoticeError
)

func (k NoticeKind) String() string {
	if k == NoticeError {
		return "error"
	}
	return "success"
}

// Notice is a transient notification.
type Notice struct {
	ID      int
	Kind    NoticeKind
	Message string
}

// DragState tracks a drag-and-drop gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

// Preview is an open preview of one project.
type Preview struct {
	ProjectID string
	URL       string
	Loading   bool
	Result    *hosting.ViewResult
	Err       string
}

// Embed is an open embed-code view.
type Embed struct {
	ProjectID string
	Name      string
	Pending   bool
	Base      string
	Code      string
}

// FileListing is an open file listing of one project.
type FileListing struct {
	ProjectID string
	Loading   bool
	Files     []hosting.FileInfo
	Err       string
}

// State is a snapshot of the client. Reduce never mutates a State it is
// given; pointer fields are replaced, not modified.
type State struct {
	// Origin is the backend base URL the client talks to.
	Origin        string
	ToastDuration time.Duration

	// Projects is the authoritative list in server order.
	Projects []hosting.Project
	Query    string

	// Loading counts requests that hold the loading indicator up.
	Loading int

	Notice *Notice
	Drag   DragState

	// UploadTarget is the project chosen for the next file selection.
	UploadTarget  string
	PendingDelete *hosting.Project

	Preview *Preview
	Embed   *Embed
	Files   *FileListing

	noticeSeq int
}

// NewState returns the initial state for a backend at origin.
func NewState(origin string, toastDuration time.Duration) State {
	if toastDuration <= 0 {
		toastDuration = DefaultToastDuration
	}
	return State{
		Origin:        strings.TrimRight(origin, "/"),
		ToastDuration: toastDuration,
		Projects:      []hosting.Project{},
	}
}

// IsLoading reports whether the loading indicator is shown.
func (s State) IsLoading() bool {
	return s.Loading > 0
}

// Visible returns the projects matching Query, case-insensitively on name or
// id, in server order.
func (s State) Visible() []hosting.Project {
	return Filter(s.Projects, s.Query)
}

// Filter returns the projects whose name or id contains query, ignoring case.
func Filter(projects []hosting.Project, query string) []hosting.Project {
	q := strings.ToLower(query)
	out := make([]hosting.Project, 0, len(projects))
	for _, p := range projects {
		if q == "" ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.ID), q) {
			out = append(out, p)
		}
	}
	return out
}

// Project finds a project in the authoritative list.
func (s State) Project(id string) (hosting.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return hosting.Project{}, false
}

// ViewOpen reports whether a preview, embed or file view is showing.
func (s State) ViewOpen() bool {
	return s.Preview != nil || s.Embed != nil || s.Files != nil
}
