package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/varoOP/anistream/internal/browse"
	"github.com/varoOP/anistream/internal/domain"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "List anime by category, score and year",
	Long: `Browse lists anime matching the given filter. Without flags every
category is included, scores span 0-10 and years span 1950 to now.

Use --pages to walk forward through several pages; walking stops at the
last page reported by the server.`,
	Example: `  anistream browse --category aksiyon --category komedi --score 7,10
  anistream browse --years 2015,2020 --page 2 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		pages, _ := cmd.Flags().GetInt("pages")

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		b := application.Browser()
		defer b.Close()

		b.Apply(filter)
		for i := 0; ; i++ {
			b.Wait()

			state := b.State()
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if state.Status == browse.StatusError {
				return errors.Wrap(state.Err, "browse failed")
			}
			if err := render(cmd, state.Page); err != nil {
				return err
			}

			if i+1 >= pages || !b.NextPage() {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
	},
}

func filterFromFlags(cmd *cobra.Command) (domain.Filter, error) {
	f := domain.DefaultFilter(time.Now())

	categories, _ := cmd.Flags().GetStringSlice("category")
	f.Categories = categories

	if s, _ := cmd.Flags().GetString("score"); s != "" {
		r, err := domain.ParseRange(s)
		if err != nil {
			return f, errors.Wrap(err, "invalid --score")
		}
		f.Score = r
	}
	if s, _ := cmd.Flags().GetString("years"); s != "" {
		r, err := domain.ParseRange(s)
		if err != nil {
			return f, errors.Wrap(err, "invalid --years")
		}
		f.Years = r
	}

	f.Page, _ = cmd.Flags().GetInt("page")

	return f.Normalize(), nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("category", "c", nil, "category to include, repeatable or comma separated")
	cmd.Flags().String("score", "", "score range as lo,hi")
	cmd.Flags().String("years", "", "first air year range as lo,hi")
	cmd.Flags().IntP("page", "p", 1, "page to start from")
}

func init() {
	addFilterFlags(browseCmd)
	browseCmd.Flags().Int("pages", 1, "number of pages to print")

	browseCmd.RegisterFlagCompletionFunc("category", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return domain.Categories, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(browseCmd)
}
