package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Manu343726/chip8/cmd/tools"
	"github.com/Manu343726/chip8/cmd/vm"
	"github.com/Manu343726/chip8/pkg/config"
	"github.com/Manu343726/chip8/pkg/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	closeLog func() error
)

// rootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "chip8",
	Short: "A CHIP-8 virtual machine",
	Long: `chip8 is an interpreter for the CHIP-8 virtual machine plus the tools to
inspect and debug CHIP-8 programs.

Settings are read from $HOME/.chip8.yaml (or the file given with --config) and
can be overridden with CHIP8_* environment variables, for example
CHIP8_CPU_SPEED_HZ=700.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()

	// PostRun hooks are skipped when a command fails, close the log file here
	if closeErr := teardownLogging(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Error closing log file:", closeErr)
	}

	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *vm.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return 1
}

func init() {
	RootCmd.AddCommand(vm.VmCmd, tools.ToolsCmd)
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chip8.yaml)")
	RootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	RootCmd.PersistentFlags().String("log-file", "", "append JSON log records to this file")

	cobra.CheckErr(viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file")))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".chip8" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chip8")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		cobra.CheckErr(err)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(afero.NewOsFs(), logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}

	closeLog = closer
	cmd.SetContext(logging.NewContext(cmd.Context(), logger))
	return nil
}

func teardownLogging() error {
	if closeLog == nil {
		return nil
	}

	closer := closeLog
	closeLog = nil
	return closer()
}
