// Package cli wires the build pipeline to its command-line surface.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Space-Wizard-Studios/ser-livre-psicologia/internal/logx"
)

// Settings are the resolved flag/env/config values shared by every command.
type Settings struct {
	Site    string `mapstructure:"site"`
	Workers int    `mapstructure:"workers"`
	Port    int    `mapstructure:"port"`
	Debug   bool   `mapstructure:"debug"`
	LogJSON bool   `mapstructure:"logJson"`
}

var (
	cfgFile  string
	settings Settings
)

var rootCmd = &cobra.Command{
	Use:   "serlivre",
	Short: "Build-time assembler for the Ser Livre Psicologia site",
	Long: `serlivre turns a declarative site definition (sections, images, fonts,
design tokens) into a self-contained static bundle: one entry document,
content-hashed assets, and no JavaScript unless a section opted in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initializeSettings(cmd); err != nil {
			return err
		}
		logx.Setup(logx.Config{Debug: settings.Debug, JSON: settings.LogJSON})
		return nil
	},
}

// Execute runs the CLI. Build failures have already written their report;
// anything surfacing here is a usage or environment problem.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./serlivre.yaml)")
	rootCmd.PersistentFlags().String("site", "site.yaml", "site definition file")
	rootCmd.PersistentFlags().Int("workers", 0, "transcoding workers (0 = number of CPUs)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
}

func initializeSettings(cmd *cobra.Command) error {
	v := viper.New()

	v.SetDefault("site", "site.yaml")
	v.SetDefault("workers", 0)
	v.SetDefault("port", 4173)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("serlivre")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SERLIVRE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("reading config: %w", err)
		}
		if cfgFile != "" {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
	}

	bindFlag(v, cmd, "site")
	bindFlag(v, cmd, "workers")
	bindFlag(v, cmd, "debug")
	if f := cmd.Flags().Lookup("log-json"); f != nil {
		_ = v.BindPFlag("logJson", f)
	}
	if f := cmd.Flags().Lookup("port"); f != nil {
		_ = v.BindPFlag("port", f)
	}

	if err := v.Unmarshal(&settings); err != nil {
		return fmt.Errorf("decoding settings: %w", err)
	}
	return nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, name string) {
	if f := cmd.Flags().Lookup(name); f != nil {
		_ = v.BindPFlag(name, f)
	}
}
