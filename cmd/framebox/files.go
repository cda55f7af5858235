package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/framebox/internal/app"
	"github.com/fyrsmithlabs/framebox/internal/hosting"
	"github.com/fyrsmithlabs/framebox/internal/logging"
	"github.com/fyrsmithlabs/framebox/internal/tui"
	"github.com/fyrsmithlabs/framebox/internal/watch"
)

var (
	uploadWatch       bool
	uploadMetricsAddr string
)

func init() {
	uploadCmd.Flags().BoolVarP(&uploadWatch, "watch", "w", false, "keep uploading changes to a directory until interrupted")
	uploadCmd.Flags().StringVar(&uploadMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while watching (e.g. :9102)")

	filesCmd.AddCommand(filesListCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(uploadCmd)
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect project files",
}

var filesListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List the files of a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesList,
}

var uploadCmd = &cobra.Command{
	Use:   "upload ID PATH...",
	Short: "Upload files to a project",
	Long: `Upload files to a project in a single request.

Files are stored under their base name. Directories are uploaded
recursively with paths relative to the directory. At most 50 MiB can be
sent at once.

With --watch, PATH must be a single directory. After the first upload,
changed files are uploaded again once the directory has been quiet for
sync.quiet_period.

Examples:
  # Upload a page and its stylesheet
  framebox upload Ab3xYz index.html site.css

  # Upload a build and keep it in sync, exposing metrics
  framebox upload Ab3xYz ./dist --watch --metrics-addr :9102`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

func runFilesList(cmd *cobra.Command, args []string) error {
	files, err := rt.client.ListFiles(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load files: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No files uploaded yet.")
		return nil
	}

	now := time.Now()
	var total int64
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tUPLOADED")
	for _, f := range files {
		total += f.Size
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Filename, tui.FormatSize(f.Size), tui.FormatCreated(f.UploadedAt.Time, now))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d files, %s\n", len(files), tui.FormatSize(total))
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id, paths := args[0], args[1:]
	out := cmd.OutOrStdout()

	if uploadWatch {
		if len(paths) != 1 {
			return fmt.Errorf("--watch takes exactly one directory")
		}
		if info, err := os.Stat(paths[0]); err != nil || !info.IsDir() {
			return fmt.Errorf("--watch needs a directory, got %s", paths[0])
		}
	} else if uploadMetricsAddr != "" {
		return fmt.Errorf("--metrics-addr requires --watch")
	}

	uploads, err := hosting.UploadsFromPaths(paths)
	if err != nil {
		return err
	}
	if len(uploads) > 0 {
		result, err := rt.client.UploadFiles(ctx, id, uploads)
		if err != nil {
			return fmt.Errorf("failed to upload files: %w", err)
		}
		fmt.Fprintf(out, "%s (%s)\n", app.UploadedMessage(len(result.Uploaded)), tui.FormatSize(result.TotalSize))
	} else {
		fmt.Fprintln(out, "Nothing to upload.")
	}

	if !uploadWatch {
		return nil
	}
	return watchDir(ctx, out, id, paths[0])
}

// watchDir syncs dir into project id until ctx is cancelled.
func watchDir(ctx context.Context, out io.Writer, id, dir string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	syncer, err := watch.New(dir, id, rt.client,
		watch.WithQuietPeriod(rt.cfg.Sync.QuietPeriod.Duration()),
		watch.WithLogger(rt.logger),
		watch.WithMetrics(watch.NewMetrics(reg)),
		watch.WithBatchHook(func(b watch.Batch) {
			if b.Err != nil {
				fmt.Fprintf(out, "Upload of %d file(s) failed: %s\n", len(b.Files), hosting.MessageOr(b.Err, app.MsgUploadFailed))
				return
			}
			fmt.Fprintln(out, app.UploadedMessage(len(b.Result.Uploaded)))
		}),
	)
	if err != nil {
		return err
	}

	if uploadMetricsAddr != "" {
		stop, err := serveMetrics(ctx, rt.logger, uploadMetricsAddr, reg)
		if err != nil {
			_ = syncer.Close()
			return err
		}
		defer stop()
	}

	fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop.\n", syncer.Root())
	return syncer.Run(ctx)
}

// serveMetrics exposes reg on addr at /metrics. The returned func shuts the
// server down.
func serveMetrics(ctx context.Context, logger *logging.Logger, addr string, reg *prometheus.Registry) (func(), error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Surface bind failures before reporting success.
	select {
	case err := <-errCh:
		return nil, fmt.Errorf("failed to serve metrics on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}
	logger.Info(ctx, "serving metrics", zap.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "metrics server shutdown failed", zap.Error(err))
		}
	}, nil
}
