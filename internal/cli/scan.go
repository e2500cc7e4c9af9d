package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagql/tagql/internal/scanner"
)

func newScanCmd() *cobra.Command {
	var (
		skipHidden bool
		prune      bool
	)

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Index a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := scanner.Scan(ctx, st, args[0], scanner.Options{
				SkipHidden: skipHidden,
				Prune:      prune,
			})
			if err != nil {
				return err
			}

			fmt.Printf("indexed %d files, %d directories (%d pruned) in %s\n",
				stats.Files, stats.Dirs, stats.Pruned, stats.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot-prefixed files and directories")
	cmd.Flags().BoolVar(&prune, "prune", false, "remove indexed items no longer on disk")

	return cmd
}
