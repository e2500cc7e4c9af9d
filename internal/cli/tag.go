package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagql/tagql/tagql/catalog"
	"github.com/tagql/tagql/tagql/store"
)

func newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags on indexed items",
	}
	cmd.AddCommand(newTagAddCmd())
	cmd.AddCommand(newTagRmCmd())
	cmd.AddCommand(newTagLsCmd())
	return cmd
}

func newTagAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path> <group:value>...",
		Short: "Attach tags to an indexed item",
		Long: `Attach one or more tags to an item. Each tag is written as
group:value; missing groups and tags are created on the fly.

Examples:
  tagql tag add docs/report.pdf project:alpha status:draft
  tagql tag add photos/cat.jpg subject:cat`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			item, err := st.GetItemByPath(ctx, args[0])
			if err != nil {
				return fmt.Errorf("item %s not indexed (run scan first): %w", args[0], err)
			}

			for _, spec := range args[1:] {
				tagID, err := ensureTag(ctx, st, spec)
				if err != nil {
					return err
				}
				if err := st.TagItem(ctx, item.ID, tagID); err != nil {
					return err
				}
			}

			fmt.Printf("tagged %s with %d tag(s)\n", args[0], len(args)-1)
			return nil
		},
	}
}

func newTagRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path> <group:value>...",
		Short: "Detach tags from an indexed item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			item, err := st.GetItemByPath(ctx, args[0])
			if err != nil {
				return fmt.Errorf("item %s not indexed: %w", args[0], err)
			}

			for _, spec := range args[1:] {
				tagID, err := ensureTag(ctx, st, spec)
				if err != nil {
					return err
				}
				if err := st.UntagItem(ctx, item.ID, tagID); err != nil {
					return err
				}
			}

			fmt.Printf("untagged %s\n", args[0])
			return nil
		},
	}
}

func newTagLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "List the tags attached to an indexed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			item, err := st.GetItemByPath(ctx, args[0])
			if err != nil {
				return fmt.Errorf("item %s not indexed: %w", args[0], err)
			}

			ids, err := st.ItemTagIDs(ctx, item.ID)
			if err != nil {
				return err
			}
			cat, err := st.LoadCatalog(ctx)
			if err != nil {
				return err
			}

			for _, id := range ids {
				if name, ok := cat.TagName(id); ok {
					fmt.Println(name)
				}
			}
			return nil
		},
	}
}

// ensureTag resolves a "group:value" spec to a tag id, creating the
// group and tag as needed. A bare value goes into the "tag" group.
func ensureTag(ctx context.Context, st *store.Store, spec string) (int64, error) {
	group, value := catalog.SplitGroupValue(spec)
	if group == "" {
		group = "tag"
	}
	if value == "" {
		return 0, fmt.Errorf("empty tag value in %q", spec)
	}

	groupID, err := st.EnsureGroup(ctx, group)
	if err != nil {
		return 0, err
	}
	return st.EnsureTag(ctx, groupID, value)
}
