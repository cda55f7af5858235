package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/framebox/internal/app"
	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/hostingtest"
	"github.com/fyrsmithlabs/framebox/internal/logging"
)

// execute runs the CLI with args and returns everything it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("FRAMEBOX_LOGGING_LEVEL", "error")

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func findCommand(t *testing.T, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := rootCmd.Find(path)
	require.NoError(t, err)
	return cmd
}

func TestCommands_Registered(t *testing.T) {
	paths := [][]string{
		{"ui"},
		{"projects", "list"},
		{"projects", "get"},
		{"projects", "create"},
		{"projects", "update"},
		{"projects", "delete"},
		{"files", "list"},
		{"upload"},
		{"preview"},
		{"embed"},
		{"server-info"},
		{"health"},
		{"descriptor"},
		{"version"},
	}
	for _, p := range paths {
		cmd := findCommand(t, p...)
		assert.Equal(t, p[len(p)-1], cmd.Name())
		assert.NotEmpty(t, cmd.Short, strings.Join(p, " "))
	}

	assert.NotNil(t, findCommand(t, "projects", "delete").Flags().Lookup("yes"))
	assert.NotNil(t, findCommand(t, "upload").Flags().Lookup("watch"))
	assert.NotNil(t, findCommand(t, "upload").Flags().Lookup("metrics-addr"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("server"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Nil(t, rt)
}

func TestProjects_ListEmpty(t *testing.T) {
	srv := hostingtest.NewServer(t)

	out, err := execute(t, "", "projects", "list", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No projects found.")
}

func TestProjects_CreateAndList(t *testing.T) {
	srv := hostingtest.NewServer(t)

	out, err := execute(t, "", "projects", "create", "landing", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Created project landing (")

	out, err = execute(t, "", "projects", "create", "docs", "--entry", "main.html", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Created project docs (")

	out, err = execute(t, "", "projects", "list", "--server", srv.URL)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ENTRY")
	assert.Contains(t, lines[1], "docs")
	assert.Contains(t, lines[1], "main.html")
	assert.Contains(t, lines[2], "landing")
	assert.Contains(t, lines[2], "index.html")
}

func TestProjects_ListSearchJSON(t *testing.T) {
	srv := hostingtest.NewServer(t)
	srv.AddProject("landing", "index.html")
	srv.AddProject("dashboard", "index.html")

	out, err := execute(t, "", "projects", "list", "--search", "LAND", "--json", "--server", srv.URL)
	require.NoError(t, err)

	var projects []hosting.Project
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "landing", projects[0].Name)
}

func TestProjects_CreateDuplicate(t *testing.T) {
	srv := hostingtest.NewServer(t)
	srv.AddProject("landing", "index.html")

	out, err := execute(t, "", "projects", "create", "landing", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create project")
	assert.Contains(t, out, "already exists")
}

func TestProjects_GetAndUpdate(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("landing", "index.html")

	out, err := execute(t, "", "projects", "get", "landing", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, p.ID)
	assert.Contains(t, out, "index.html")

	out, err = execute(t, "", "projects", "update", p.ID, "--entry", "home.html", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "home.html")

	updated, ok := srv.Project(p.ID)
	require.True(t, ok)
	assert.Equal(t, "landing", updated.Name)
	assert.Equal(t, "home.html", updated.EntryFile)

	_, err = execute(t, "", "projects", "update", p.ID, "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestProjects_DeleteDeclined(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("keep", "index.html")

	for _, answer := range []string{"n\n", "\n", ""} {
		out, err := execute(t, answer, "projects", "delete", p.ID, "--server", srv.URL)
		require.NoError(t, err)
		assert.Contains(t, out, "[y/N]")
		assert.Contains(t, out, "Aborted.")
	}

	assert.Equal(t, 0, srv.Calls("DeleteProject"))
	_, ok := srv.Project(p.ID)
	assert.True(t, ok)
}

func TestProjects_DeleteConfirmed(t *testing.T) {
	srv := hostingtest.NewServer(t)
	a := srv.AddProject("a", "index.html")
	b := srv.AddProject("b", "index.html")

	out, err := execute(t, "yes\n", "projects", "delete", a.ID, "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted project "+a.ID)

	_, err = execute(t, "", "projects", "delete", b.ID, "--yes", "--server", srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 2, srv.Calls("DeleteProject"))
	_, ok := srv.Project(b.ID)
	assert.False(t, ok)
}

func TestProjects_DeleteMissing(t *testing.T) {
	srv := hostingtest.NewServer(t)

	_, err := execute(t, "", "projects", "delete", "nope00", "--yes", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFilesList(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("site", "index.html")

	out, err := execute(t, "", "files", "list", p.ID, "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "No files uploaded yet.")

	require.NoError(t, srv.AddFile(p.ID, "index.html", make([]byte, 2048)))
	out, err = execute(t, "", "files", "list", p.ID, "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "index.html")
	assert.Contains(t, out, "2.0 KiB")
}

func TestUpload(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("site", "index.html")

	dir := t.TempDir()
	index := filepath.Join(dir, "index.html")
	css := filepath.Join(dir, "site.css")
	require.NoError(t, os.WriteFile(index, []byte("<h1>hi</h1>"), 0600))
	require.NoError(t, os.WriteFile(css, []byte("h1{}"), 0600))

	out, err := execute(t, "", "upload", p.ID, index, css, "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, app.UploadedMessage(2))

	data, ok := srv.File(p.ID, "site.css")
	require.True(t, ok)
	assert.Equal(t, "h1{}", string(data))
	assert.Equal(t, 1, srv.Calls("UploadFiles"))
}

func TestUpload_FlagErrors(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("site", "index.html")
	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	_, err := execute(t, "", "upload", p.ID, file, "--metrics-addr", ":9102", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires --watch")

	_, err = execute(t, "", "upload", p.ID, dir, file, "--watch", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one directory")

	_, err = execute(t, "", "upload", p.ID, file, "--watch", "--server", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a directory")

	assert.Equal(t, 0, srv.Calls("UploadFiles"))
}

func TestServeMetrics_AddressInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	_, err = serveMetrics(context.Background(), logging.NewNop(), l.Addr().String(), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to serve metrics")
}

func TestPreview(t *testing.T) {
	srv := hostingtest.NewServer(t)
	p := srv.AddProject("site", "index.html")
	require.NoError(t, srv.AddFile(p.ID, "index.html", []byte("<html><body>hello</body></html>")))

	out, err := execute(t, "", "preview", "site", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, srv.URL+"/view/site/")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, "hello")
}

func TestEmbed(t *testing.T) {
	srv := hostingtest.NewServer(t, hostingtest.WithServerInfo(hosting.ServerInfo{
		SuggestedURL: "http://192.168.1.20:8001",
	}))
	p := srv.AddProject("my site", "index.html")

	out, err := execute(t, "", "embed", p.ID, "--server", srv.URL)
	require.NoError(t, err)
	assert.Equal(t,
		`<iframe src="http://192.168.1.20:8001/view/my%20site/" width="100%" height="600" frameborder="0"></iframe>`,
		strings.TrimSpace(out))
}

func TestEmbed_WithoutServerInfo(t *testing.T) {
	srv := hostingtest.NewServer(t)
	srv.AddProject("site", "index.html")

	out, err := execute(t, "", "embed", "site", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, `src="`+srv.URL+`/view/site/"`)
}

func TestServerInfo(t *testing.T) {
	srv := hostingtest.NewServer(t, hostingtest.WithServerInfo(hosting.ServerInfo{
		Host:         "0.0.0.0",
		Port:         8001,
		LocalIP:      "192.168.1.20",
		SuggestedURL: "http://192.168.1.20:8001",
	}))

	out, err := execute(t, "", "server-info", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "192.168.1.20")
	assert.Contains(t, out, "8001")

	srv.SetServerInfo(nil)
	_, err = execute(t, "", "server-info", "--server", srv.URL)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := hostingtest.NewServer(t)

	out, err := execute(t, "", "health", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Server: "+srv.URL)
}

func TestHealth_Unreachable(t *testing.T) {
	srv := hostingtest.NewServer(t)
	url := srv.URL
	srv.Close()

	_, err := execute(t, "", "health", "--server", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestServerURLFromConfigFile(t *testing.T) {
	srv := hostingtest.NewServer(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: "+srv.URL+"\n"), 0600))

	out, err := execute(t, "", "health", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Server: "+srv.URL)
}

func TestInvalidServerFlag(t *testing.T) {
	_, err := execute(t, "", "health", "--server", "ftp://frames.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --server")
}

func TestDescriptor(t *testing.T) {
	t.Setenv("PORT", "9000")

	out, err := execute(t, "", "descriptor")
	require.NoError(t, err)
	var doc struct {
		Apps []struct {
			Name string            `json:"name"`
			Env  map[string]string `json:"env"`
		} `json:"apps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Apps, 1)
	assert.Equal(t, "framebox", doc.Apps[0].Name)
	assert.Equal(t, "9000", doc.Apps[0].Env["PORT"])

	out, err = execute(t, "", "descriptor", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "max_memory_restart: 500M")

	_, err = execute(t, "", "descriptor", "--format", "toml")
	assert.Error(t, err)
}
