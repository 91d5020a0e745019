// Command docmerge merges structured data into JSON document trees from
// the command line.
//
// Configuration is read, in order of precedence, from command-line flags,
// DOCMERGE_* environment variables, and a .docmerge.yml file in the
// current directory (or the file named by --config).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halcyondocs/docmerge/pkg/docmerge"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "docmerge",
	Short:   "docmerge merges record data into document templates",
	Version: version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .docmerge.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error, off)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docmerge")
	}

	viper.SetEnvPrefix("DOCMERGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	viper.SetDefault("max-conditional-passes", docmerge.DefaultConfig().MaxConditionalPasses)
	viper.SetDefault("repeater-warn-limit", docmerge.DefaultConfig().RepeaterWarnLimit)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig builds the engine configuration from the resolved viper
// settings. Unset keys keep the engine defaults.
func engineConfig() (*docmerge.Config, error) {
	cfg := docmerge.DefaultConfig()
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetInt("max-conditional-passes"); v > 0 {
		cfg.MaxConditionalPasses = v
	}
	if v := viper.GetInt("repeater-warn-limit"); v > 0 {
		cfg.RepeaterWarnLimit = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
