package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search anime by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		results, err := application.Content().Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return render(cmd, results)
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <slug>",
	Short: "Show everything known about an anime",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		details, err := application.Content().Details(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, details)
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <slug>",
	Short: "List the episodes of every season",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		episodes, err := application.Content().Episodes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, episodes)
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar <slug>",
	Short: "List anime similar to the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		results, err := application.Content().Similar(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd, results)
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream <slug> <season> <episode>",
	Short: "Resolve playable stream URLs, best resolution first",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		season, episode, err := seasonEpisode(args[1], args[2])
		if err != nil {
			return err
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		sources, err := application.Content().Stream(cmd.Context(), args[0], season, episode)
		if err != nil {
			return err
		}

		if check, _ := cmd.Flags().GetBool("check"); check {
			for _, s := range sources {
				if !application.Content().Playable(cmd.Context(), s.URL) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %dp source does not look playable\n", s.Resolution)
				}
			}
		}

		return render(cmd, sources)
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip <malId> <episode>",
	Short: "Show AniSkip opening and ending intervals",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		malID, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Errorf("malId %q is not a number", args[0])
		}
		episode, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Errorf("episode %q is not a number", args[1])
		}

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		times, err := application.SkipTimes().SkipTimes(cmd.Context(), malID, episode)
		if err != nil {
			return err
		}
		return render(cmd, times)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "List recently released episodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		application, err := newApp()
		if err != nil {
			return err
		}
		defer application.Close()

		latest, err := application.Content().Latest(cmd.Context(), page, limit)
		if err != nil {
			return err
		}
		return render(cmd, latest)
	},
}

func seasonEpisode(s, e string) (int, int, error) {
	season, err := strconv.Atoi(s)
	if err != nil || season < 1 {
		return 0, 0, errors.Errorf("season %q must be a positive number", s)
	}
	episode, err := strconv.Atoi(e)
	if err != nil || episode < 1 {
		return 0, 0, errors.Errorf("episode %q must be a positive number", e)
	}
	return season, episode, nil
}

func init() {
	streamCmd.Flags().Bool("check", false, "probe each URL with a HEAD request")
	latestCmd.Flags().IntP("page", "p", 1, "page number")
	latestCmd.Flags().IntP("limit", "l", 0, "page size, 0 uses latest_limit")

	rootCmd.AddCommand(searchCmd, detailsCmd, episodesCmd, similarCmd, streamCmd, skipCmd, latestCmd)
}
