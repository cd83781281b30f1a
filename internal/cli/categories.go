package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Short:   "Manage categories",
		Long:    `List and create the categories that sessions are tracked in.`,
		Aliases: []string{"category", "cat"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCategories(cmd, e)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Short:   "List categories",
			Aliases: []string{"ls"},
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return listCategories(cmd, e)
			},
		},
		newCategoryAddCmd(e),
	)
	return cmd
}

func newCategoryAddCmd(e *env) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Long: `Create a category. Names are unique regardless of case. The color is
a #rgb or #rrggbb hex value; it defaults to #4287f5.

Examples:
  tempo categories add Work
  tempo categories add "Deep reading" --color "#2ec4b6"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.service(cmd).CreateCategory(cmd.Context(), args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", c.Name, c.Color)
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "hex color, e.g. #ff6b6b")
	return cmd
}

func listCategories(cmd *cobra.Command, e *env) error {
	list, err := e.service(cmd).ListCategories(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No categories yet. Create one with: tempo categories add NAME")
		return nil
	}
	for _, c := range list {
		fmt.Fprintf(out, "  %-24s %s  %s\n", c.Name, c.Color, c.ID)
	}
	return nil
}
