// Package cmd provides the root command and CLI setup for simstage.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"simstage.dev/pkg/simstage/internal/adapter"
)

// Shared dependencies, wired once per invocation.
var scenarioStore *adapter.ScenarioStore
var documentCache *adapter.DocumentCache
var workspaceFS adapter.WorkspaceFS

// scenariosFileFlag is a root-level flag shared by commands that read the
// scenario definition document.
var scenariosFileFlag string

// groupFlag selects the scenario group for applicable commands.
var groupFlag string

// verboseFlag raises the log level to debug.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	scenarioStore = adapter.NewScenarioStore()
	documentCache = adapter.NewDocumentCache()
	workspaceFS = adapter.NewLocalWorkspaceFS()
}

const rootLongDescription = `Simstage materializes isolated, runnable sandboxes for the declared
variants of a simulation configuration. Iterator declarations expand
scenario templates into concrete scenario sets; each scenario inherits
files and a structured configuration document from its baseline through
copy-on-write overlay resolution.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simstage",
		Short: "Simulation scenario sandbox materializer",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&scenariosFileFlag, "scenarios-file", "f",
		viper.GetString(scenariosFileKey),
		"path to the scenario definition document",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup("scenarios-file"), scenariosFileKey)

	cmd.PersistentFlags().StringVarP(&groupFlag, "group", "g", "", "scenario group (default: the definition's default group)")

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "log file location")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
