package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "GOFRAUDML"
	defaultCfgName = ".gofraudml"
)

type rootCmdConfig struct {
	cfgFile  string
	logLevel string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	config := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:           "gofraudml",
		Short:         "Train and run isolation-forest anomaly scoring on tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initConfig(config, cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&config.cfgFile, "config", "", fmt.Sprintf("config file (default is $HOME/%s.yaml)", defaultCfgName))
	rootCmd.PersistentFlags().StringVar(&config.logLevel, "log-level", "info", "Log level: debug, info, warning, error")
	rootCmd.AddCommand(versionCmd(), trainCmd(), detectCmd())
	return rootCmd
}

// initConfig uses config file and ENV variables if set.
func initConfig(config *rootCmdConfig, cmd *cobra.Command) {
	v := viper.New()

	if config.cfgFile != "" {
		v.SetConfigFile(config.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigName(defaultCfgName)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfgErr := v.ReadInConfig()

	bindFlags(cmd, v)
	initLogger(config.logLevel)

	if cfgErr == nil {
		log.Debugf("using config file %s", v.ConfigFileUsed())
	}
}

// bindFlags applies viper values to flags the user did not set explicitly.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			_ = cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func initLogger(level string) {
	ll, err := log.ParseLevel(level)
	if err != nil {
		ll = log.InfoLevel
	}
	log.SetLevel(ll)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, PadLevelText: true})
}
