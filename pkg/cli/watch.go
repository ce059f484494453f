package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/avrobuild/pkg/codegen/incremental"
	"github.com/platinummonkey/avrobuild/pkg/observability"
	"github.com/platinummonkey/avrobuild/pkg/schema"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Builder runs one build
type Builder interface {
	Run(ctx context.Context) (*incremental.Result, error)
}

// Watcher rebuilds after schema sources or dependency archives change.
// Changes arriving within the delay of each other trigger a single build.
type Watcher struct {
	builder  Builder
	dirs     []string
	archives map[string]bool
	delay    time.Duration
	log      *logrus.Logger

	// built receives every build result; used by tests
	built chan<- error
}

// NewWatcher creates a watcher over the given source directories and
// archive files
func NewWatcher(builder Builder, dirs, archives []string, delay time.Duration, log *logrus.Logger) *Watcher {
	if log == nil {
		log = logrus.New()
	}

	w := &Watcher{
		builder:  builder,
		dirs:     dirs,
		archives: make(map[string]bool, len(archives)),
		delay:    delay,
		log:      log,
	}
	for _, archive := range archives {
		w.archives[filepath.Clean(archive)] = true
	}
	return w
}

// Run builds once, then watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := addRecursive(watcher, dir); err != nil {
			return err
		}
	}
	for archive := range w.archives {
		if err := watcher.Add(filepath.Dir(archive)); err != nil {
			w.log.WithError(err).WithField("archive", archive).Warn("Cannot watch dependency archive")
		}
	}

	w.build(ctx)

	// The timer only fires after a Reset
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var pending <-chan time.Time

	w.log.WithField("dirs", w.dirs).Info("Watching for schema changes")
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Also watch new directories
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						w.log.WithError(err).WithField("dir", event.Name).Warn("Error watching new directory")
					}
					timer.Reset(w.delay)
					pending = timer.C
					continue
				}
			}

			if !w.relevant(event) {
				continue
			}
			w.log.WithField("file", event.Name).WithField("op", event.Op.String()).Debug("Schema change")
			timer.Reset(w.delay)
			pending = timer.C

		case <-pending:
			pending = nil
			w.build(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	return schema.IsSchemaFile(event.Name) || w.archives[filepath.Clean(event.Name)]
}

// build runs the builder; failures are logged and the watch continues
func (w *Watcher) build(ctx context.Context) {
	result, err := w.builder.Run(ctx)
	if err != nil {
		w.log.WithError(err).Error("Build failed, waiting for changes")
	} else {
		w.log.WithFields(logrus.Fields{
			"state":        result.State,
			"compilations": result.Compilations,
			"files":        len(result.Files),
		}).Info("Build finished")
	}

	if w.built != nil {
		select {
		case w.built <- err:
		case <-ctx.Done():
		}
	}
}

// addRecursive adds dir and every directory below it. A missing directory is
// created so later additions are seen.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create watched directory: %w", err)
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func newWatchCommand(opts *options) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever schemas change",
		Long: `Build once, then rebuild whenever a schema file under the source
directory or a dependency archive changes.

Types may be redefined between builds in watch mode. When
observability.metrics_addr is set, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			driver, err := s.newDriver(true)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("delay") {
				delay = s.cfg.Watch.Delay
			}

			archives := make([]string, 0, len(s.cfg.Dependencies))
			for _, dep := range s.cfg.Dependencies {
				archives = append(archives, dep.Path)
			}
			watcher := NewWatcher(driver, []string{s.cfg.SourceDir}, archives, delay, s.log)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return watcher.Run(ctx)
			})

			if addr := s.cfg.Observability.MetricsAddr; addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", observability.MetricsHandler(s.prom))
				server := &http.Server{Addr: addr, Handler: mux}

				g.Go(func() error {
					s.log.WithField("addr", addr).Info("Serving metrics")
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server failed: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return server.Shutdown(shutdownCtx)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 0, "Quiet period before a rebuild (default from settings)")
	return cmd
}
