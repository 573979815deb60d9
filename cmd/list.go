package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"simstage.dev/pkg/simstage/internal/domain"
)

var listAllGroupsFlag bool

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the expanded scenario set",
		Long: `Expand the scenario definition's iterators and templates and print the
concrete groups and scenarios that would be materialized.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := scenarioStore.Load(viper.GetString(scenariosFileKey))
			if err != nil {
				return err
			}

			exp, err := domain.Expand(def)
			if err != nil {
				return err
			}

			groups := exp.Groups()

			if !listAllGroupsFlag {
				group, err := exp.Group(groupFlag)
				if err != nil {
					return err
				}

				groups = []*domain.FinalGroup{group}
			}

			cmd.Print(renderScenarioTable(groups))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&listAllGroupsFlag, "all", "a", false, "list every group, not just the selected one")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func renderScenarioTable(groups []*domain.FinalGroup) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Group", "Scenario", "Role", "Active", "Subdir"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	scenarioCount := 0

	for _, group := range groups {
		for _, sc := range group.Scenarios {
			role := ""
			if sc.Baseline {
				role = "baseline"
			}

			active := "yes"
			if !sc.IsActive() {
				active = "no"
			}

			table.Append([]string{group.Name, sc.Name, role, active, sc.Subdir})

			scenarioCount++
		}

		if group.BaselineSource != "" {
			table.Append([]string{group.Name, "(baseline from " + group.BaselineSource + ")", "baseline", "", ""})
		}
	}

	table.SetFooter([]string{
		fmt.Sprintf("Groups %d", len(groups)),
		fmt.Sprintf("Scenarios %d", scenarioCount),
		"", "", "",
	})

	table.Render()

	return tableBuffer.String()
}
