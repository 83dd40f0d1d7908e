package main

import (
	"fmt"

	"github.com/IvanShishkin/shadowsnap/internal/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// convertCmd creates the convert command
func convertCmd() *cobra.Command {
	var noCompress bool

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Re-encode a snapshot in the format named by the output extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession("")
			if err != nil {
				return err
			}
			defer s.close()

			if noCompress {
				s.cfg.Compress = false
			}

			n, err := snapshot.Convert(args[0], args[1], snapshot.WithCompression(s.cfg.Compress))
			if err != nil {
				return err
			}
			s.logger.Info("Converted", zap.String("from", args[0]), zap.String("to", args[1]), zap.Int("entries", n))

			fmt.Printf("%d entries: %s -> %s\n", n, args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Treat .lz4/.zst snapshots as raw binary")

	return cmd
}
