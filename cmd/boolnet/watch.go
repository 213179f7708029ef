package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/attractors"
)

var (
	watchOut      string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Recompute the attractor report whenever the network file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "report file, .json or .yaml")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before recomputing")
	_ = watchCmd.MarkFlagRequired("out")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	logger.Info("watching network", zap.String("path", path), zap.String("out", watchOut))

	if err := refresh(ctx, path); err != nil {
		logger.Error("analysis failed", zap.Error(err))
	}

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("network changed", zap.Stringer("op", event.Op))
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-timer.C:
			if err := refresh(ctx, path); err != nil {
				logger.Error("analysis failed", zap.Error(err))
			}
		}
	}
}

// refresh recomputes the report for path and saves it to watchOut.
func refresh(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	net, u, err := load(path)
	if err != nil {
		return err
	}
	a, release, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer release()

	start := time.Now()
	report, err := a.Compute(ctx, net, u, reportOptions())
	if err != nil {
		return err
	}
	if err := attractors.Save(report, watchOut); err != nil {
		return err
	}
	logger.Info("report written",
		zap.String("path", watchOut),
		zap.Int("attractors", len(report.Attractors)),
		zap.String("complete", string(report.IsComplete)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
