package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"simstage.dev/pkg/simstage/internal/domain"
)

var setupScenarioFlag string
var setupAllFlag bool
var setupTrialFlag int
var setupDynamicFlag bool
var setupForceFlag bool
var setupParallelFlag int

// setupCmd represents the setup command.
var setupCmd = newSetupCmd()

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Materialize scenario sandboxes",
		Long: `Expand the scenario definition, ensure the shared reference workspace
exists, and build the sandbox for one scenario (or every active scenario
in the group with --all), applying the scenario's config actions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := runtimeConfig()
			if err != nil {
				return err
			}

			def, err := scenarioStore.Load(viper.GetString(scenariosFileKey))
			if err != nil {
				return err
			}

			exp, err := domain.Expand(def)
			if err != nil {
				return err
			}

			workflow := domain.NewWorkflow(cfg, workspaceFS, documentCache)

			group := groupFlag
			if group == "" {
				group = cfg.DefaultGroup
			}

			return workflow.Setup(cmd.Context(), exp, domain.SetupArgs{
				Group:    group,
				Scenario: setupScenarioFlag,
				Trial:    setupTrialFlag,
				Dynamic:  setupDynamicFlag,
				All:      setupAllFlag,
				Parallel: setupParallelFlag,
				Force:    setupForceFlag,
			})
		},
	}

	configureSetupFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func configureSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&setupScenarioFlag, "scenario", "s", "", "scenario to set up (default: the group baseline)")
	cmd.Flags().BoolVarP(&setupAllFlag, "all", "a", false, "set up every active scenario in the group")
	cmd.Flags().IntVarP(&setupTrialFlag, "trial", "t", -1, "Monte Carlo trial index; nests the sandbox under a trial shard")
	cmd.Flags().BoolVar(&setupDynamicFlag, "dynamic", false, "apply dynamic-phase actions instead of static ones")
	cmd.Flags().BoolVar(&setupForceFlag, "force-rebuild", false, "rebuild the shared reference workspace even if it exists")
	cmd.Flags().IntVarP(&setupParallelFlag, "parallel", "p", 1, "number of scenarios to set up concurrently with --all")
}
