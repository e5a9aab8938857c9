package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"delegate/internal/app"
	"delegate/internal/logging"
)

func NewRunCmd() *cobra.Command {
	var trackerPath string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Drain ready tracker tasks through the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			command := app.Command{
				ConfigPath:  globalConfigFile,
				TrackerPath: trackerPath,
				Logger:      logging.FromContext(cmd.Context()),
			}

			result, err := command.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%s run %s finished with status %s\n",
				color.GreenString("✔"), result.RunID, result.Status)
			if result.Summary != "" {
				fmt.Println(result.Summary)
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&trackerPath, "tracker", "", "tracker task file (overrides config)")
	return runCmd
}
