package hosting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Project is a named collection of uploaded static files with one entry file.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	EntryFile string    `json:"entry_file"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// FileInfo describes one stored file of a project.
type FileInfo struct {
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt Timestamp `json:"uploaded_at"`
}

// UploadResult is the backend's answer to a multipart upload.
type UploadResult struct {
	Uploaded  []string `json:"uploaded"`
	TotalSize int64    `json:"total_size"`
}

// ServerInfo is what the backend advertises about its own address.
// Only SuggestedURL influences client behavior.
type ServerInfo struct {
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	LocalIP      string `json:"local_ip,omitempty"`
	SuggestedURL string `json:"suggested_url,omitempty"`
}

// Health is the backend liveness report.
type Health struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

// UptimeDuration returns Uptime as a time.Duration.
func (h Health) UptimeDuration() time.Duration {
	return time.Duration(h.Uptime * float64(time.Second))
}

// ListOptions narrows a project listing on the server side.
type ListOptions struct {
	Search string
	Limit  int
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name      string `json:"name"`
	EntryFile string `json:"entry_file"`
}

// UpdateProjectRequest is the body of PUT /api/projects/{id}.
// Nil fields are left unchanged.
type UpdateProjectRequest struct {
	Name      *string `json:"name,omitempty"`
	EntryFile *string `json:"entry_file,omitempty"`
}

// ViewResult summarizes what the backend serves for a project's preview.
type ViewResult struct {
	URL         string
	Status      int
	ContentType string
	Size        int64
	Excerpt     string
}

type projectList struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

// timestampLayouts are tried in order. The backend writes naive UTC
// timestamps without a zone designator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Timestamp decodes the ISO-8601 forms the backend produces.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
