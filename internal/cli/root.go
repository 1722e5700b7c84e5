// internal/cli/root.go
package modelmux

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config

	// MODELMUX_OLLAMA_HOST -> ollama.host
	envKeyReplacer = strings.NewReplacer(".", "_")
)

var rootCmd = &cobra.Command{
	Use:   "modelmux",
	Short: "modelmux — unified router for local LLM services (Ollama, LM Studio)",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file, environment, or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) If user did NOT set a flag, copy the config value into the flag so
		//    both pflags and viper reflect the same, final value.
		for _, name := range []string{"debug", "metrics"} {
			if !cmd.Flags().Changed(name) {
				val := viper.GetBool(name)
				_ = cmd.Flags().Set(name, strconv.FormatBool(val))
			}
		}

		// 3) Materialize the fully merged configuration into currentConfig
		//    (flags > env > config > defaults) so every package receives one
		//    stable snapshot rather than reading global state.
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		currentConfig = &cfg

		logging.SetDebug(cfg.Debug)
		return logging.Init(cfg.LogFilePath())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("metrics", false, "collect backend call metrics")

	// Bind flags to Viper keys (flags override config and environment)
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("metrics", rootCmd.PersistentFlags().Lookup("metrics"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file and environment and sets safe
// defaults for every key so MODELMUX_* variables are always picked up.
func ensureConfigLoaded() error {
	viper.SetDefault("debug", false)
	viper.SetDefault("metrics", false)
	viper.SetDefault("ollama.host", "localhost")
	viper.SetDefault("ollama.port", 11434)
	viper.SetDefault("ollama.timeout", 300)
	viper.SetDefault("lmstudio.host", "localhost")
	viper.SetDefault("lmstudio.port", 1234)
	viper.SetDefault("lmstudio.timeout", 300)
	viper.SetDefault("preferredService", "auto")
	viper.SetDefault("defaultModel", "llama2")
	viper.SetDefault("recommendService", "lmstudio")
	viper.SetDefault("recommendKeyword", "deepseek")
	viper.SetDefault("logFile", "")

	viper.SetEnvPrefix("MODELMUX")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
			// No file: fine, we'll use env/defaults/flags
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}
