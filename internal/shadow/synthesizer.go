// Package shadow builds filtered, structure-preserving copies of a tree.
//
// A run mirrors every source folder into the destination and copies the
// files whose extension is allowed. Folders are created sequentially, parents
// first, before any file copy starts; copies then run on a bounded pool.
package shadow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/compare"
	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/internal/filesystem"
	"github.com/IvanShishkin/shadowsnap/internal/metrics"
	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Failure operations
const (
	OpMkdir  = "mkdir"
	OpCopy   = "copy"
	OpVerify = "verify"
)

// ProgressCallback is called to report run progress. During the copy phase
// it is called from the worker goroutines.
type ProgressCallback func(phase string, current, total int, message string)

// Synthesizer performs shadow copies
type Synthesizer struct {
	enum     filesystem.Enumerator
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Run
	progress ProgressCallback
}

// New creates a synthesizer. m may be nil.
func New(enum filesystem.Enumerator, opts Options, logger *zap.Logger, m *metrics.Run) *Synthesizer {
	return &Synthesizer{
		enum:    enum,
		opts:    opts.normalized(),
		logger:  logger,
		metrics: m,
	}
}

// SetProgressCallback sets the progress callback function
func (s *Synthesizer) SetProgressCallback(cb ProgressCallback) {
	s.progress = cb
}

func (s *Synthesizer) reportProgress(phase string, current, total int, message string) {
	if s.progress != nil {
		s.progress(phase, current, total, message)
	}
}

// copyTask is one file scheduled for copying. Its outcome is written into
// the task itself so results keep source order regardless of completion.
type copyTask struct {
	src       models.Entry
	dest      string
	overwrite bool

	created *models.Entry
	failure *models.CopyFailure
	bytes   int64
}

// Run copies source into destination.
//
// Individual mkdir and copy failures are recorded in the result and do not
// stop the run. The returned error is non-nil only when the run could not
// start (invalid roots, unsupported snapshot name, enumeration failure) or
// the snapshot could not be written; in the latter case the result is
// returned as well.
func (s *Synthesizer) Run(ctx context.Context, source, destination string) (*models.ShadowResult, error) {
	src, dst, err := s.resolveRoots(source, destination)
	if err != nil {
		return nil, err
	}

	result := &models.ShadowResult{
		Source:      src,
		Destination: dst,
		StartTime:   time.Now(),
		Created:     []models.Entry{},
		Overwritten: []models.Entry{},
		Failed:      []models.CopyFailure{},
	}

	s.logger.Info("Starting shadow copy",
		zap.String("source", src),
		zap.String("destination", dst),
		zap.Strings("extensions", s.opts.Extensions),
		zap.Int("workers", s.opts.Workers))

	// Phase 1: enumerate both sides and index the destination once
	s.reportProgress(metrics.PhaseEnumerate, 0, 0, "Enumerating source...")
	stop := s.metrics.Time(metrics.PhaseEnumerate)
	sourceEntries, err := s.enum.Enumerate(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate source: %w", err)
	}
	destEntries, err := s.enum.Enumerate(ctx, dst)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate destination: %w", err)
	}
	elapsed := stop()
	s.metrics.RecordEnumerated(metrics.SideSource, len(sourceEntries))
	s.metrics.RecordEnumerated(metrics.SideDestination, len(destEntries))
	s.logger.Info("Enumerated",
		zap.Int("source_entries", len(sourceEntries)),
		zap.Int("destination_entries", len(destEntries)),
		zap.Duration("elapsed", elapsed))

	index := compare.Index(destEntries, compare.RelativeTo(dst))
	relSource := compare.RelativeTo(src)

	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, errs.IO(OpMkdir, dst, err)
	}

	// Phase 2: folders, parents first
	s.createFolders(sourceEntries, relSource, index, result)

	// Phase 3: files
	tasks := s.planCopies(sourceEntries, relSource, index, result)
	s.copyFiles(ctx, tasks)
	for _, t := range tasks {
		switch {
		case t.failure != nil:
			result.Failed = append(result.Failed, *t.failure)
		case t.overwrite:
			result.Overwritten = append(result.Overwritten, *t.created)
			result.BytesCopied += t.bytes
		default:
			result.Created = append(result.Created, *t.created)
			result.BytesCopied += t.bytes
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	s.logger.Info("Shadow copy completed",
		zap.Duration("duration", result.Duration),
		zap.Int("folders_created", len(result.Folders())),
		zap.Int("files_created", len(result.Files())),
		zap.Int("files_overwritten", len(result.Overwritten)),
		zap.Int("failures", len(result.Failed)),
		zap.Int("skipped", result.Skipped))

	// Phase 4: persist the pre-copy source listing
	if s.opts.EmitSnapshot {
		path := filepath.Join(dst, s.opts.SnapshotName)
		stop := s.metrics.Time(metrics.PhaseSnapshot)
		if err := snapshot.Save(path, sourceEntries); err != nil {
			return result, fmt.Errorf("failed to save snapshot: %w", err)
		}
		s.logger.Info("Snapshot saved",
			zap.String("path", path),
			zap.Int("entries", len(sourceEntries)),
			zap.Duration("elapsed", stop()))
		result.SnapshotPath = path
	}

	return result, nil
}

// resolveRoots validates both roots and the snapshot name before anything
// touches the disk
func (s *Synthesizer) resolveRoots(source, destination string) (string, string, error) {
	src, err := filepath.Abs(source)
	if err != nil {
		return "", "", errs.InvalidInput("shadow", source, "cannot resolve source: %v", err)
	}
	dst, err := filepath.Abs(destination)
	if err != nil {
		return "", "", errs.InvalidInput("shadow", destination, "cannot resolve destination: %v", err)
	}

	if !filesystem.IsDir(src) {
		return "", "", errs.InvalidInput("shadow", src, "source is not an existing directory")
	}
	if dst == src {
		return "", "", errs.InvalidInput("shadow", dst, "destination is the source")
	}
	if rel, err := filepath.Rel(src, dst); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", errs.InvalidInput("shadow", dst, "destination is inside the source")
	}
	if s.opts.EmitSnapshot {
		if _, err := snapshot.FormatFor(s.opts.SnapshotName); err != nil {
			return "", "", err
		}
	}
	return src, dst, nil
}

// createFolders mirrors every source folder missing from the destination
func (s *Synthesizer) createFolders(entries []models.Entry, rel compare.KeyFunc, index map[string]models.Entry, result *models.ShadowResult) {
	type folder struct {
		entry models.Entry
		rel   string
		depth int
	}

	var folders []folder
	seen := make(map[string]bool)
	for _, e := range entries {
		if !e.IsFolder() {
			continue
		}
		r, ok := rel(e)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		if existing, found := index[r]; found && existing.IsFolder() {
			continue
		}
		folders = append(folders, folder{entry: e, rel: r, depth: strings.Count(r, "/")})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].depth < folders[j].depth
	})

	stop := s.metrics.Time(metrics.PhaseMkdir)
	for i, f := range folders {
		path := filepath.Join(result.Destination, filepath.FromSlash(f.rel))
		if err := os.MkdirAll(path, 0755); err != nil {
			s.logger.Warn("Failed to create folder", zap.String("path", path), zap.Error(err))
			s.recordFailure(result, f.entry, OpMkdir, path, errs.IO(OpMkdir, path, err))
			continue
		}
		s.metrics.RecordFolderCreated()
		result.Created = append(result.Created, models.NewFolder(path, time.Now()))
		s.reportProgress(metrics.PhaseMkdir, i+1, len(folders), path)
	}
	s.logger.Debug("Folders created",
		zap.Int("missing", len(folders)),
		zap.Duration("elapsed", stop()))
}

func (s *Synthesizer) recordFailure(result *models.ShadowResult, e models.Entry, op, dest string, err error) {
	s.metrics.RecordFailure()
	result.Failed = append(result.Failed, models.CopyFailure{
		Entry: e,
		Op:    op,
		Dest:  dest,
		Err:   err,
		Cause: err.Error(),
	})
}

// planCopies selects the files to copy, counting the rest as skipped
func (s *Synthesizer) planCopies(entries []models.Entry, rel compare.KeyFunc, index map[string]models.Entry, result *models.ShadowResult) []*copyTask {
	allowed := make(map[string]bool, len(s.opts.Extensions))
	for _, ext := range s.opts.Extensions {
		allowed[ext] = true
	}

	var tasks []*copyTask
	seen := make(map[string]bool)
	for _, e := range entries {
		if !e.IsFile() {
			continue
		}
		r, ok := rel(e)
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		if !s.opts.selects(e, allowed) {
			result.Skipped++
			continue
		}
		existing, found := index[r]
		tasks = append(tasks, &copyTask{
			src:       e,
			dest:      filepath.Join(result.Destination, filepath.FromSlash(r)),
			overwrite: found && existing.IsFile(),
		})
	}
	return tasks
}

// copyFiles runs every task on a bounded pool. Once ctx is done no new copy
// starts; the remaining tasks fail with the context error.
func (s *Synthesizer) copyFiles(ctx context.Context, tasks []*copyTask) {
	stop := s.metrics.Time(metrics.PhaseCopy)

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)

	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			s.fail(t, OpCopy, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				s.fail(t, OpCopy, err)
				return nil
			}
			s.copyOne(t)
			s.reportProgress(metrics.PhaseCopy, i+1, len(tasks), t.dest)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug("Files copied",
		zap.Int("tasks", len(tasks)),
		zap.Duration("elapsed", stop()))
}

func (s *Synthesizer) copyOne(t *copyTask) {
	n, err := filesystem.CopyFile(t.src.Path, t.dest)
	if err != nil {
		s.logger.Warn("Failed to copy file",
			zap.String("source", t.src.Path),
			zap.String("destination", t.dest),
			zap.Error(err))
		s.fail(t, OpCopy, errs.IO(OpCopy, t.src.Path, err))
		return
	}

	if s.opts.Verify {
		if err := verify(t.src.Path, t.dest); err != nil {
			s.logger.Warn("Copy verification failed", zap.String("destination", t.dest), zap.Error(err))
			s.fail(t, OpVerify, err)
			return
		}
	}

	s.metrics.RecordFileCopied(n)
	created := t.src.WithPath(t.dest)
	t.created = &created
	t.bytes = n
}

func (s *Synthesizer) fail(t *copyTask, op string, err error) {
	s.metrics.RecordFailure()
	t.failure = &models.CopyFailure{
		Entry: t.src,
		Op:    op,
		Dest:  t.dest,
		Err:   err,
		Cause: err.Error(),
	}
}

// verify compares the digests of a source file and its copy
func verify(src, dst string) error {
	want, err := filesystem.HashFile(src)
	if err != nil {
		return errs.IO(OpVerify, src, err)
	}
	got, err := filesystem.HashFile(dst)
	if err != nil {
		return errs.IO(OpVerify, dst, err)
	}
	if want != got {
		return errs.IO(OpVerify, dst, fmt.Errorf("digest mismatch"))
	}
	return nil
}
