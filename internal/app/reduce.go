package app

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

// Notice texts.
const (
	MsgLoadFailed      = "Failed to load projects"
	MsgCreateFailed    = "Failed to create project"
	MsgDeleteFailed    = "Failed to delete project"
	MsgUploadFailed    = "Failed to upload files"
	MsgFilesFailed     = "Failed to load files"
	MsgPreviewFailed   = "Failed to load preview"
	MsgCopyFailed      = "Failed to copy to clipboard"
	MsgDropOutside     = "Please drop files on a project card"
	MsgNameRequired    = "Project name is required"
	MsgCreated         = "Project created successfully!"
	MsgDeleted         = "Project deleted successfully!"
	MsgCopied          = "Embed code copied to clipboard!"
	msgUploadedPattern = "Uploaded %d file(s) successfully!"
)

// UploadedMessage is the success notice for n uploaded files.
func UploadedMessage(n int) string {
	return fmt.Sprintf(msgUploadedPattern, n)
}

// Reduce applies cmd to s and returns the next state with the effects to run.
func Reduce(s State, cmd Command) (State, []Effect) {
	switch c := cmd.(type) {
	case LoadProjects:
		return s.load()

	case ProjectsLoaded:
		s.Loading = decrement(s.Loading)
		s.Projects = append([]hosting.Project{}, c.Projects...)
		return s, nil

	case LoadFailed:
		s.Loading = decrement(s.Loading)
		return s.notify(NoticeError, MsgLoadFailed)

	case CreateProject:
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return s.notify(NoticeError, MsgNameRequired)
		}
		return s, []Effect{SubmitProject{Request: hosting.CreateProjectRequest{
			Name:      name,
			EntryFile: hosting.NormalizeEntryFile(c.EntryFile),
		}}}

	case ProjectCreated:
		return s.succeedAndReload(MsgCreated)

	case CreateFailed:
		return s.notify(NoticeError, hosting.MessageOr(c.Err, MsgCreateFailed))

	case RequestDelete:
		p, ok := s.Project(c.ID)
		if !ok {
			p = hosting.Project{ID: c.ID}
		}
		s.PendingDelete = &p
		return s, nil

	case ConfirmDelete:
		if s.PendingDelete == nil {
			return s, nil
		}
		id := s.PendingDelete.ID
		s.PendingDelete = nil
		return s, []Effect{RemoveProject{ID: id}}

	case CancelDelete:
		s.PendingDelete = nil
		return s, nil

	case ProjectDeleted:
		if s.Preview != nil && s.Preview.ProjectID == c.ID ||
			s.Embed != nil && s.Embed.ProjectID == c.ID ||
			s.Files != nil && s.Files.ProjectID == c.ID {
			s = s.closeViews()
		}
		return s.succeedAndReload(MsgDeleted)

	case DeleteFailed:
		return s.notify(NoticeError, hosting.MessageOr(c.Err, MsgDeleteFailed))

	case BeginUpload:
		s.UploadTarget = c.ID
		return s, nil

	case FilesSelected:
		target := s.UploadTarget
		s.UploadTarget = ""
		if target == "" {
			return s, nil
		}
		return s.upload(target, c.Uploads)

	case UploadFiles:
		return s.upload(c.ID, c.Uploads)

	case FilesUploaded:
		s.Loading = decrement(s.Loading)
		next, effects := s.succeedAndReload(UploadedMessage(len(c.Result.Uploaded)))
		if next.Files != nil && next.Files.ProjectID == c.ID {
			f := *next.Files
			f.Loading = true
			next.Files = &f
			effects = append(effects, FetchFiles{ID: c.ID})
		}
		return next, effects

	case UploadFailed:
		s.Loading = decrement(s.Loading)
		return s.notify(NoticeError, hosting.MessageOr(c.Err, MsgUploadFailed))

	case Search:
		s.Query = c.Query
		return s, nil

	case ShowPreview:
		s = s.closeViews()
		s.Preview = &Preview{
			ProjectID: c.ID,
			URL:       hosting.ViewURL(s.Origin, c.ID),
			Loading:   true,
		}
		return s, []Effect{FetchPreview{ID: c.ID}}

	case PreviewLoaded:
		if s.Preview == nil || s.Preview.ProjectID != c.ID {
			return s, nil
		}
		p := *s.Preview
		result := c.Result
		p.Loading = false
		p.Result = &result
		p.Err = ""
		s.Preview = &p
		return s, nil

	case PreviewFailed:
		if s.Preview == nil || s.Preview.ProjectID != c.ID {
			return s, nil
		}
		p := *s.Preview
		p.Loading = false
		p.Err = hosting.MessageOr(c.Err, MsgPreviewFailed)
		s.Preview = &p
		return s, nil

	case ShowEmbed:
		s = s.closeViews()
		s.Embed = &Embed{ProjectID: c.ID, Name: c.Name, Pending: true}
		return s, []Effect{FetchServerInfo{}}

	case ServerInfoLoaded:
		if s.Embed == nil || !s.Embed.Pending {
			return s, nil
		}
		e := *s.Embed
		e.Pending = false
		e.Base = EmbedBase(s.Origin, c.Info)
		e.Code = EmbedCode(e.Base, e.Name)
		s.Embed = &e
		return s, nil

	case CopyEmbed:
		if s.Embed == nil || s.Embed.Code == "" {
			return s, nil
		}
		return s, []Effect{WriteClipboard{Text: s.Embed.Code}}

	case Copied:
		return s.notify(NoticeSuccess, MsgCopied)

	case CopyFailed:
		return s.notify(NoticeError, MsgCopyFailed)

	case ShowFiles:
		s = s.closeViews()
		s.Files = &FileListing{ProjectID: c.ID, Loading: true}
		return s, []Effect{FetchFiles{ID: c.ID}}

	case FilesListed:
		if s.Files == nil || s.Files.ProjectID != c.ID {
			return s, nil
		}
		s.Files = &FileListing{ProjectID: c.ID, Files: append([]hosting.FileInfo{}, c.Files...)}
		return s, nil

	case FilesFailed:
		if s.Files != nil && s.Files.ProjectID == c.ID {
			f := *s.Files
			f.Loading = false
			f.Err = MsgFilesFailed
			s.Files = &f
		}
		return s.notify(NoticeError, MsgFilesFailed)

	case CloseView:
		return s.closeViews(), nil

	case DragEnter:
		s.Drag = DragDragging
		return s, nil

	case DragLeave:
		if c.FromDropZone {
			s.Drag = DragIdle
		}
		return s, nil

	case Drop:
		s.Drag = DragIdle
		if c.Card == "" {
			return s.notify(NoticeError, MsgDropOutside)
		}
		return s.upload(c.Card, c.Uploads)

	case ReportError:
		return s.notify(NoticeError, c.Message)

	case DismissNotice:
		if s.Notice != nil && s.Notice.ID == c.ID {
			s.Notice = nil
		}
		return s, nil
	}

	return s, nil
}

func (s State) load() (State, []Effect) {
	s.Loading++
	return s, []Effect{FetchProjects{}}
}

func (s State) upload(id string, uploads []hosting.Upload) (State, []Effect) {
	if len(uploads) == 0 {
		return s, nil
	}
	s.Loading++
	return s, []Effect{SendFiles{ID: id, Uploads: append([]hosting.Upload{}, uploads...)}}
}

func (s State) notify(kind NoticeKind, msg string) (State, []Effect) {
	s.noticeSeq++
	s.Notice = &Notice{ID: s.noticeSeq, Kind: kind, Message: msg}
	return s, []Effect{ScheduleDismiss{ID: s.noticeSeq, After: s.ToastDuration}}
}

func (s State) succeedAndReload(msg string) (State, []Effect) {
	s, notice := s.notify(NoticeSuccess, msg)
	s, reload := s.load()
	return s, append(notice, reload...)
}

func (s State) closeViews() State {
	s.Preview = nil
	s.Embed = nil
	s.Files = nil
	return s
}

func decrement(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}
