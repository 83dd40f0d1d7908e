package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/compare"
	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/internal/filesystem"
	"github.com/IvanShishkin/shadowsnap/internal/metrics"
	"github.com/IvanShishkin/shadowsnap/internal/report"
	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// diffCmd creates the diff command
func diffCmd() *cobra.Command {
	var (
		limit        int
		reportFormat string
		outputFile   string
		tolerance    time.Duration
		backend      string
	)

	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Compare two folder trees or snapshots",
		Long: `Compare two trees relative to their roots. Each side is either a folder, which is
enumerated, or a snapshot file, whose root is the deepest folder shared by its entries.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession("")
			if err != nil {
				return err
			}
			defer s.close()

			// Override config with CLI flags
			if cmd.Flags().Changed("limit") {
				s.cfg.DiffLimit = limit
			}
			if reportFormat != "" {
				s.cfg.ReportFormat = reportFormat
			}
			if backend != "" {
				s.cfg.Backend = backend
			}
			if err := s.cfg.Validate(); err != nil {
				return err
			}

			enum, err := filesystem.NewEnumerator(s.cfg, s.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			leftRoot, left, err := loadSide(ctx, s, enum, args[0], metrics.SideLeft)
			if err != nil {
				return err
			}
			rightRoot, right, err := loadSide(ctx, s, enum, args[1], metrics.SideRight)
			if err != nil {
				return err
			}

			done := s.metrics.Time(metrics.PhaseDiff)
			result := compare.DiffRelative(leftRoot, left, rightRoot, right, compare.WithTolerance(tolerance))
			s.logger.Info("Compared",
				zap.Int("left_only", len(result.LeftOnly)),
				zap.Int("right_only", len(result.RightOnly)),
				zap.Int("changed", len(result.Changed)),
				zap.Duration("elapsed", done()))

			gen := report.NewGenerator(os.Stdout, s.cfg.DiffLimit, s.color, s.logger)
			path, err := gen.GenerateDiff(result, s.cfg.ReportFormat, outputFile)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Printf("\n  %s %s\n\n", s.paint(colorGray, "Report:"), path)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "Missing items printed per side (0: all)")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: text, json, md (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report file path, - for stdout")
	cmd.Flags().DurationVar(&tolerance, "tolerance", 0, "Allowed modification time difference before a file counts as changed")
	cmd.Flags().StringVar(&backend, "backend", "", "Enumeration backend for folder sides: native, billy")

	return cmd
}

// loadSide enumerates a folder or loads a snapshot file and returns its root
func loadSide(ctx context.Context, s *session, enum filesystem.Enumerator, arg, side string) (string, []models.Entry, error) {
	done := s.metrics.Time(metrics.PhaseEnumerate)
	defer done()

	if filesystem.IsDir(arg) {
		root, err := filepath.Abs(arg)
		if err != nil {
			return "", nil, err
		}
		entries, err := enum.Enumerate(ctx, root)
		if err != nil {
			return "", nil, fmt.Errorf("failed to enumerate %s: %w", arg, err)
		}
		s.metrics.RecordEnumerated(side, len(entries))
		return root, entries, nil
	}

	if _, err := os.Stat(arg); err != nil {
		return "", nil, errs.InvalidInput("diff", arg, "neither a folder nor a snapshot file")
	}
	entries, err := snapshot.Load(arg, snapshot.WithCompression(s.cfg.Compress))
	if err != nil {
		return "", nil, err
	}
	s.metrics.RecordEnumerated(side, len(entries))
	return compare.CommonRoot(entries), entries, nil
}
