package hosting

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/fyrsmithlabs/framebox/internal/ignore"
)

// MaxUploadSize is the backend cap on the total size of one upload request.
const MaxUploadSize int64 = 50 << 20

// UploadField is the repeated multipart field carrying files.
const UploadField = "files"

// Upload is one file queued for sending.
type Upload struct {
	// Name is the slash-separated path stored under the project.
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFromBytes wraps in-memory content.
func UploadFromBytes(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// UploadFromFile queues the file at path under name.
func UploadFromFile(path, name string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Upload{}, fmt.Errorf("%s is not a regular file", path)
	}
	return Upload{
		Name: name,
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// UploadsFromPaths expands paths into uploads. A file is stored under its
// base name; a directory is walked and its files are stored under their
// slash-separated path relative to the directory, skipping whatever the
// directory's exclude files name. The result is sorted by name.
func UploadsFromPaths(paths []string) ([]Upload, error) {
	var uploads []Upload
	seen := make(map[string]string)

	add := func(path, name string) error {
		name, err := ValidateFilename(name)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("%s and %s would both be stored as %q", prev, path, name)
		}
		u, err := UploadFromFile(path, name)
		if err != nil {
			return err
		}
		seen[name] = path
		uploads = append(uploads, u)
		return nil
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if err := add(p, filepath.Base(p)); err != nil {
				return nil, err
			}
			continue
		}

		exclude, err := ignore.Load(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read exclude files in %s: %w", p, err)
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(p, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if exclude.Match(rel, d.IsDir()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || isExcludeFile(rel) {
				return nil
			}
			return add(path, rel)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
	}
	sortUploads(uploads)
	return uploads, nil
}

// isExcludeFile matches the exclude files at the top of an uploaded directory.
func isExcludeFile(rel string) bool {
	for _, name := range ignore.DefaultFiles {
		if rel == name {
			return true
		}
	}
	return false
}

// ValidateFilename applies the backend's stored-name rules and returns the
// normalized name: backslashes become slashes and leading slashes are
// dropped. Absolute paths, ".." and non-printable characters are rejected.
func ValidateFilename(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}
	if strings.HasPrefix(name, "/") || (len(name) > 1 && name[1] == ':') {
		return "", fmt.Errorf("absolute paths are not allowed: %q", name)
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("directory traversal (..) is not allowed: %q", name)
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("filename contains invalid characters: %q", name)
		}
	}

	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.TrimLeft(name, "/")
	if name == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}
	return name, nil
}

// CheckUploads validates names and the total size before anything is sent.
// Failures are reported as validation errors.
func CheckUploads(uploads []Upload) error {
	var total int64
	for _, u := range uploads {
		if _, err := ValidateFilename(u.Name); err != nil {
			return validationError(0, err.Error())
		}
		total += u.Size
	}
	if total > MaxUploadSize {
		return validationError(0, fmt.Sprintf("total upload size %s exceeds maximum %s",
			humanize.IBytes(uint64(total)), humanize.IBytes(uint64(MaxUploadSize))))
	}
	return nil
}

// TotalSize sums the declared sizes of uploads.
func TotalSize(uploads []Upload) int64 {
	var total int64
	for _, u := range uploads {
		total += u.Size
	}
	return total
}

// sortUploads orders uploads by name.
func sortUploads(uploads []Upload) {
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Name < uploads[j].Name })
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// encodeMultipart writes every upload under the repeated "files" field with a
// content type detected from its bytes.
func encodeMultipart(uploads []Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, u := range uploads {
		data, err := readUpload(u)
		if err != nil {
			return nil, "", err
		}

		name, _ := ValidateFilename(u.Name)
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			UploadField, quoteEscaper.Replace(name)))
		h.Set("Content-Type", mimetype.Detect(data).String())

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %s: %w", name, err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func readUpload(u Upload) ([]byte, error) {
	if u.Open == nil {
		return nil, fmt.Errorf("upload %s has no content", u.Name)
	}
	rc, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", u.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, u.Size+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", u.Name, err)
	}
	if int64(len(data)) != u.Size {
		return nil, fmt.Errorf("%s changed size while uploading: expected %d bytes, read %d",
			u.Name, u.Size, len(data))
	}
	return data, nil
}
