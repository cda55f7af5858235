package app

import "github.com/fyrsmithlabs/framebox/internal/hosting"

// Command is a user action or the outcome of an Effect.
type Command interface {
	command()
}

// LoadProjects refreshes the project list.
type LoadProjects struct{}

// ProjectsLoaded carries a fresh project list.
type ProjectsLoaded struct{ Projects []hosting.Project }

// LoadFailed reports a failed project list fetch.
type LoadFailed struct{ Err error }

// CreateProject creates a project. A blank EntryFile means index.html.
type CreateProject struct {
	Name      string
	EntryFile string
}

// ProjectCreated reports a created project.
type ProjectCreated struct{ Project hosting.Project }

// CreateFailed reports a failed creation.
type CreateFailed struct{ Err error }

// RequestDelete asks for confirmation before deleting a project.
type RequestDelete struct{ ID string }

// ConfirmDelete deletes the project awaiting confirmation.
type ConfirmDelete struct{}

// CancelDelete drops the pending deletion.
type CancelDelete struct{}

// ProjectDeleted reports a deleted project.
type ProjectDeleted struct{ ID string }

// DeleteFailed reports a failed deletion.
type DeleteFailed struct {
	ID  string
	Err error
}

// BeginUpload marks a project as the target of the next file selection.
type BeginUpload struct{ ID string }

// FilesSelected completes a file selection. An empty selection cancels it.
type FilesSelected struct{ Uploads []hosting.Upload }

// UploadFiles sends files to a project in one request.
type UploadFiles struct {
	ID      string
	Uploads []hosting.Upload
}

// FilesUploaded reports a finished upload.
type FilesUploaded struct {
	ID     string
	Result hosting.UploadResult
}

// UploadFailed reports a failed upload.
type UploadFailed struct {
	ID  string
	Err error
}

// Search sets the list filter.
type Search struct{ Query string }

// ShowPreview opens the preview of a project.
type ShowPreview struct{ ID string }

// PreviewLoaded carries the fetched preview of a project.
type PreviewLoaded struct {
	ID     string
	Result hosting.ViewResult
}

// PreviewFailed reports a failed preview fetch.
type PreviewFailed struct {
	ID  string
	Err error
}

// ShowEmbed opens the embed code of a project.
type ShowEmbed struct {
	ID   string
	Name string
}

// ServerInfoLoaded carries the backend's server info. Info is nil when the
// lookup failed.
type ServerInfoLoaded struct{ Info *hosting.ServerInfo }

// CopyEmbed writes the shown embed code to the clipboard.
type CopyEmbed struct{}

// Copied reports a clipboard write.
type Copied struct{}

// CopyFailed reports a failed clipboard write.
type CopyFailed struct{ Err error }

// ShowFiles opens the file listing of a project.
type ShowFiles struct{ ID string }

// FilesListed carries a project's file listing.
type FilesListed struct {
	ID    string
	Files []hosting.FileInfo
}

// FilesFailed reports a failed file listing.
type FilesFailed struct {
	ID  string
	Err error
}

// CloseView closes any open preview, embed or file view.
type CloseView struct{}

// DragEnter starts a drag gesture.
type DragEnter struct{}

// DragLeave ends a drag gesture when it leaves the drop zone itself.
type DragLeave struct{ FromDropZone bool }

// Drop releases files over Card, the id of the project card under the drop
// point. An empty Card means the drop landed outside every card.
type Drop struct {
	Card    string
	Uploads []hosting.Upload
}

// ReportError shows an error notice for a failure outside the backend,
// such as unreadable local files.
type ReportError struct{ Message string }

// DismissNotice clears the notice with ID if it is still showing.
type DismissNotice struct{ ID int }

func (LoadProjects) command()     {}
func (ProjectsLoaded) command()   {}
func (LoadFailed) command()       {}
func (CreateProject) command()    {}
func (ProjectCreated) command()   {}
func (CreateFailed) command()     {}
func (RequestDelete) command()    {}
func (ConfirmDelete) command()    {}
func (CancelDelete) command()     {}
func (ProjectDeleted) command()   {}
func (DeleteFailed) command()     {}
func (BeginUpload) command()      {}
func (FilesSelected) command()    {}
func (UploadFiles) command()      {}
func (FilesUploaded) command()    {}
func (UploadFailed) command()     {}
func (Search) command()           {}
func (ShowPreview) command()      {}
func (PreviewLoaded) command()    {}
func (PreviewFailed) command()    {}
func (ShowEmbed) command()        {}
func (ServerInfoLoaded) command() {}
func (CopyEmbed) command()        {}
func (Copied) command()           {}
func (CopyFailed) command()       {}
func (ShowFiles) command()        {}
func (FilesListed) command()      {}
func (FilesFailed) command()      {}
func (CloseView) command()        {}
func (DragEnter) command()        {}
func (DragLeave) command()        {}
func (Drop) command()             {}
func (ReportError) command()      {}
func (DismissNotice) command()    {}
