package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/IvanShishkin/shadowsnap/internal/config"
	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/internal/filesystem"
	"github.com/IvanShishkin/shadowsnap/internal/metrics"
	"github.com/IvanShishkin/shadowsnap/internal/shadow"
	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// snapshotCmd creates the snapshot command
func snapshotCmd() *cobra.Command {
	var (
		keepTextFiles bool
		textMaxSize   string
		backend       string
		indexPath     string
		noCompress    bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot <input> <output>",
		Short: "Save the metadata of a folder tree as a snapshot file",
		Long: "Enumerate every file and folder below input and save the listing to output.\n" +
			"The output extension selects the format: " + strings.Join(snapshot.Extensions(), ", ") + ".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]

			s, err := newSession("")
			if err != nil {
				return err
			}
			defer s.close()

			// Override config with CLI flags
			if backend != "" {
				s.cfg.Backend = backend
			}
			if indexPath != "" {
				s.cfg.IndexPath = indexPath
			}
			if noCompress {
				s.cfg.Compress = false
			}
			if textMaxSize != "" {
				s.cfg.TextMaxSize = textMaxSize
			}
			if err := s.cfg.Validate(); err != nil {
				return err
			}

			// The index backend answers from its index, the root need not exist locally
			if s.cfg.Backend != config.BackendIndex && !filesystem.IsDir(input) {
				return errs.InvalidInput("snapshot", input, "not a valid input folder")
			}
			if _, err := snapshot.FormatFor(output); err != nil {
				return err
			}

			enum, err := filesystem.NewEnumerator(s.cfg, s.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			done := s.metrics.Time(metrics.PhaseEnumerate)
			entries, err := enum.Enumerate(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to enumerate %s: %w", input, err)
			}
			s.metrics.RecordEnumerated(metrics.SideSource, len(entries))
			s.logger.Info("Enumerated", zap.Int("entries", len(entries)), zap.Duration("elapsed", done()))

			done = s.metrics.Time(metrics.PhaseSnapshot)
			if err := snapshot.Save(output, entries, snapshot.WithCompression(s.cfg.Compress)); err != nil {
				return err
			}
			s.logger.Info("Snapshot saved", zap.String("path", output), zap.Duration("elapsed", done()))

			size := ""
			if info, err := os.Stat(output); err == nil {
				size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
			}
			fmt.Printf("\n  %s  %d entries -> %s%s\n", s.paint(colorGray, "Snapshot:"), len(entries), output, size)

			if keepTextFiles {
				if err := keepText(ctx, s, enum, input, output+".files"); err != nil {
					return err
				}
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepTextFiles, "keep-text-files", false, "Also copy small text files into <output>.files/")
	cmd.Flags().StringVar(&textMaxSize, "text-max-size", "", "Largest text file kept by --keep-text-files (default: 1M)")
	cmd.Flags().StringVar(&backend, "backend", "", "Enumeration backend: native, billy, index")
	cmd.Flags().StringVar(&indexPath, "index", "", "Snapshot file used by the index backend")
	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Write .lz4/.zst snapshots as raw binary")

	return cmd
}

// keepText shadow-copies every text file up to the configured size into dest
func keepText(ctx context.Context, s *session, enum filesystem.Enumerator, input, dest string) error {
	maxSize, err := config.ParseSize(s.cfg.TextMaxSize)
	if err != nil {
		return err
	}

	opts := shadow.Options{
		Extensions: []string{config.AnyExtension},
		Workers:    s.cfg.Workers,
		Filter: func(e models.Entry) bool {
			if maxSize > 0 && e.Size > maxSize {
				return false
			}
			text, err := filesystem.IsTextFile(e.Path)
			if err != nil {
				s.logger.Debug("Cannot sniff file", zap.String("path", e.Path), zap.Error(err))
				return false
			}
			return text
		},
	}

	result, err := shadow.New(enum, opts, s.logger, s.metrics).Run(ctx, input, dest)
	if err != nil {
		return err
	}

	fmt.Printf("  %s %d text files (%s) -> %s\n", s.paint(colorGray, "Kept:"),
		result.Copied(), humanize.Bytes(uint64(result.BytesCopied)), dest)
	if len(result.Failed) > 0 {
		fmt.Printf("  %s\n", s.paint(colorYellow, fmt.Sprintf("⚠ %d files could not be kept", len(result.Failed))))
	}
	return nil
}
