package cmd

import (
	"github.com/spf13/cobra"

	"simstage.dev/pkg/simstage/internal/domain"
	m "simstage.dev/pkg/simstage/internal/model"
)

var workspaceCreateFlag bool
var workspaceDeleteFlag bool
var workspaceForceFlag bool

// workspaceCmd represents the workspace command.
var workspaceCmd = newWorkspaceCmd()

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage the shared sandbox workspace",
		Long: `Create, delete, or report the path of the shared workspace that
sandboxes are populated from. Without flags, prints the workspace path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := runtimeConfig()
			if err != nil {
				return err
			}

			workspace := cfg.WorkspacePath()

			if workspaceDeleteFlag {
				if workspaceFS.SameFile(workspace, cfg.RefWorkspace) {
					return m.NewConfigurationError(
						"refusing to delete workspace %q: it is the reference workspace", workspace)
				}

				workspaceFS.RemoveTreeBestEffort(workspace)
			}

			if workspaceCreateFlag {
				mz := domain.NewMaterializer(cfg, workspaceFS)
				if err := mz.EnsureReferenceWorkspace(workspaceForceFlag); err != nil {
					return err
				}
			}

			cmd.Println(workspace)

			return nil
		},
	}

	cmd.Flags().BoolVar(&workspaceCreateFlag, "create", false, "build the workspace from the reference workspace")
	cmd.Flags().BoolVar(&workspaceDeleteFlag, "delete", false, "remove the workspace tree (before --create, if both are given)")
	cmd.Flags().BoolVar(&workspaceForceFlag, "force-rebuild", false, "rebuild the workspace even if it already exists")

	return cmd
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
}
