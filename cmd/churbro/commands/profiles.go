package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profilesCmd)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Prints the enabled store profiles after config overrides.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := registryFromConfig(cfg)
		if err != nil {
			return err
		}
		renderProfiles(cmd.OutOrStdout(), registry.Ordered())
		return nil
	},
}
