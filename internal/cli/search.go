package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagql/tagql/tagql"
)

func newSearchCmd() *cobra.Command {
	var (
		asJSON  bool
		explain bool
		limit   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a query against the index",
		Long: `Run a query and print the matching paths.

Examples:
  tagql search 'tag = vacation AND size > 10MB'
  tagql search 'modified >= 2024-01-01 AND NOT tag = archived'
  tagql search 'contains(name, "report") OR tag IN (urgent, review)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			q := strings.Join(args, " ")
			eng := newEngine(st, timeout)

			if explain {
				checked, err := eng.Check(ctx, q)
				if err != nil {
					printQueryError(err)
					return err
				}
				sql, sqlArgs, steps, err := st.Explain(checked)
				if err != nil {
					return err
				}
				fmt.Println(sql)
				fmt.Printf("args: %v\n", sqlArgs)
				for _, s := range steps {
					fmt.Println("  " + s)
				}
				return nil
			}

			result, err := eng.Evaluate(ctx, q)
			if err != nil {
				printQueryError(err)
				return err
			}

			if limit > 0 && len(result.Items) > limit {
				result.Items = result.Items[:limit]
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			for _, item := range result.Items {
				fmt.Println(item.Path)
			}
			fmt.Fprintf(os.Stderr, "%d item(s)\n", result.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the compiled SQL instead of running it")
	cmd.Flags().IntVar(&limit, "limit", 0, "print at most this many items (0 = all)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-query timeout (overrides config)")

	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <query>",
		Short: "Parse and validate a query without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			q := strings.Join(args, " ")
			if _, err := newEngine(st, 0).Check(ctx, q); err != nil {
				printQueryError(err)
				return err
			}

			fmt.Println("ok")
			return nil
		},
	}
}

// printQueryError shows the caret snippet when the error carries one.
func printQueryError(err error) {
	var qerr *tagql.Error
	if errors.As(err, &qerr) && qerr.Snippet != "" {
		fmt.Fprintln(os.Stderr, qerr.Snippet)
	}
}
