package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/contestlog/internal/utils"
	"github.com/sw33tLie/contestlog/pkg/scoring"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// registry holds every scoring algorithm a contest definition can name.
var registry = scoring.NewDefaultRegistry()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contestlog",
	Short: "Contest logging and live scoring for amateur radio.",
	Long: `contestlog keeps a catalog of contests, logs QSOs into a local SQLite log book
and scores the selected contest as you go: QSO points, multipliers, serial numbers
and the exchange to send.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.contestlog.yaml)")

	// Global flags
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite log book (default: db.path from config)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	home, err := homedir.Dir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(home)
		viper.SetConfigName(".contestlog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("contestlog")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default empty values for all keys
	viper.SetDefault("station.callsign", "")
	viper.SetDefault("station.dxcc", "")
	viper.SetDefault("station.ituz", "")
	viper.SetDefault("station.cont", "")
	viper.SetDefault("catalog.path", home+"/.contestlog-contests.json")
	viper.SetDefault("db.path", "contestlog.sqlite")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			configPath := home + "/.contestlog.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Warnf("Error creating config file: %s", err)
			}
		} else {
			utils.Log.WithError(err).Warn("Could not read config file")
		}
	}
}
