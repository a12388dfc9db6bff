package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/anistream/internal/app"
	"github.com/varoOP/anistream/internal/format"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "anistream",
	Short: "Browse, search and stream anime from OpenAnime",
	Long: `anistream is a client and HTTP gateway for the OpenAnime catalogue.
It lists and filters anime, resolves episode streams, looks up
AniSkip intervals and announces new episodes to Discord.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if fi, err := os.Stdout.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.anistream.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", string(format.Table), "output format: json, yaml or table")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("api-url", "", "OpenAnime API base URL")
	rootCmd.PersistentFlags().String("database", "", "SQLite database path, enables the skip cache and notify")

	lo.Must0(rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(format.Formats, func(f format.Format, _ int) string { return string(f) }), cobra.ShellCompDirectiveDefault
	}))

	// Bind flags to viper
	lo.Must0(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	lo.Must0(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory and current directory
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Environment variables
	viper.SetEnvPrefix("ANISTREAM")
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile == "" {
		viper.SetConfigName(".anistream")
		if err := viper.ReadInConfig(); err == nil {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	if v, _ := rootCmd.PersistentFlags().GetString("api-url"); v != "" {
		viper.Set("api_url", v)
	}
	if v, _ := rootCmd.PersistentFlags().GetString("database"); v != "" {
		viper.Set("database_path", v)
	}
}

// newApp builds the application for a single command run.
func newApp() (*app.App, error) {
	application, err := app.NewApp()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

// render writes v to stdout in the --output format.
func render(cmd *cobra.Command, v any) error {
	f, err := format.Parse(viper.GetString("output"))
	if err != nil {
		return err
	}
	return format.Render(cmd.OutOrStdout(), f, v)
}
