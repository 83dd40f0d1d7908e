package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/filesystem"
	"github.com/IvanShishkin/shadowsnap/internal/report"
	"github.com/IvanShishkin/shadowsnap/internal/shadow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shadowCmd creates the shadow command
func shadowCmd() *cobra.Command {
	var (
		ignoreWarning bool
		extensions    []string
		noSnapshot    bool
		maxSize       string
		workers       int
		verify        bool
		logFile       string
		reportFormat  string
		outputFile    string
	)

	cmd := &cobra.Command{
		Use:   "shadow <input> <output>",
		Short: "Mirror a folder tree and copy selected files into it",
		Long: `Recreate every folder of input below output and copy the files whose extension
is allowed, overwriting existing copies. A snapshot of input is saved into output afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]

			if logFile == "" {
				logFile = defaultLogFile(time.Now())
			}
			s, err := newSession(logFile)
			if err != nil {
				return err
			}
			defer s.close()

			// Override config with CLI flags
			if len(extensions) > 0 {
				s.cfg.Extensions = extensions
			}
			if noSnapshot {
				s.cfg.EmitSnapshot = false
			}
			if maxSize != "" {
				s.cfg.MaxSize = maxSize
			}
			if workers > 0 {
				s.cfg.Workers = workers
			}
			if verify {
				s.cfg.Verify = true
			}
			if reportFormat != "" {
				s.cfg.ReportFormat = reportFormat
			}
			s.cfg.Extensions = s.cfg.NormalizedExtensions()
			if err := s.cfg.Validate(); err != nil {
				fmt.Printf("\n  %s %s\n\n", s.paint(colorRed, "✗ Invalid parameter:"), err.Error())
				return err
			}

			if !filesystem.IsDir(input) {
				return fmt.Errorf("not a valid input folder: %s", input)
			}
			empty, err := filesystem.IsEmptyDir(output)
			if err != nil {
				return fmt.Errorf("failed to inspect %s: %w", output, err)
			}
			if !empty && !ignoreWarning {
				fmt.Printf("\n  %s output folder %s is not empty; existing files may be overwritten.\n",
					s.paint(colorYellow, "⚠"), output)
				fmt.Printf("  %s\n\n", s.paint(colorGray, "Re-run with --ignore-warning to proceed."))
				return fmt.Errorf("output folder is not empty: %s", output)
			}

			enum, err := filesystem.NewEnumerator(s.cfg, s.logger)
			if err != nil {
				return err
			}

			opts, err := shadow.OptionsFromConfig(s.cfg)
			if err != nil {
				return err
			}
			synth := shadow.New(enum, opts, s.logger, s.metrics)

			// Called from copy workers too
			var mu sync.Mutex
			lastPhase := ""
			synth.SetProgressCallback(func(phase string, current, total int, message string) {
				mu.Lock()
				defer mu.Unlock()
				if phase == lastPhase || !s.color {
					return
				}
				lastPhase = phase
				fmt.Printf("  %s %s\n", s.paint(colorGray, "Phase:"), phase)
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			fmt.Printf("\n  %s  %s -> %s\n", s.paint(colorBold+colorOrange, "Shadow copy:"), input, output)

			result, runErr := synth.Run(ctx, input, output)
			if result == nil {
				s.logger.Error("Shadow copy failed", zap.Error(runErr))
				return runErr
			}

			gen := report.NewGenerator(os.Stdout, s.cfg.DiffLimit, s.color, s.logger)
			path, err := gen.GenerateShadow(result, s.cfg.ReportFormat, outputFile)
			if err != nil {
				return err
			}
			if path != "" {
				fmt.Printf("  %s    %s\n", s.paint(colorGray, "Report:"), path)
			}
			fmt.Printf("  %s  %s\n\n", s.paint(colorGray, "Log file:"), s.cfg.LogFile)

			if runErr != nil {
				return runErr
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d items could not be copied", len(result.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ignoreWarning, "ignore-warning", false, "Proceed even if the output folder is not empty")
	cmd.Flags().StringSliceVar(&extensions, "extensions", nil, "File extensions to copy (comma-separated, default: .txt,.md,.log)")
	cmd.Flags().BoolVar(&noSnapshot, "no-snapshot", false, "Do not save a snapshot of the input into the output")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Largest file copied, e.g. 650K, 10M (default: 0, unlimited)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of copy workers (default: CPU cores)")
	cmd.Flags().BoolVar(&verify, "verify", false, "Compare xxh3 digests of every copy with its source")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: shadowsnap-<timestamp>.log)")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: text, json, md (default: console output)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report file path, - for stdout")

	return cmd
}
