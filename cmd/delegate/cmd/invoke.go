package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"delegate/internal/audit"
	"delegate/internal/config"
	"delegate/internal/core"
	"delegate/internal/delegate"
	"delegate/internal/executor"
	"delegate/internal/logging"
)

// NewInvokeCmd is the raw-prompt entry point: one attempt, no retry.
func NewInvokeCmd() *cobra.Command {
	var (
		model           string
		workingDir      string
		skipPermissions bool
	)

	invokeCmd := &cobra.Command{
		Use:   "invoke <prompt>",
		Short: "Send one raw prompt to the agent (no retry)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.FromContext(cmd.Context())
			client, _, err := buildClient(logger)
			if err != nil {
				return err
			}

			agentID := client.IDs.NewAgentID()
			resp, err := client.Invoke(cmd.Context(), core.InvocationRequest{
				Prompt:           args[0],
				AgentID:          agentID,
				AgentName:        "cli",
				Model:            core.Model(model),
				SkipPermissions:  skipPermissions,
				OutputPath:       client.IDs.OutputPath(agentID),
				WorkingDirectory: workingDir,
			})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	invokeCmd.Flags().StringVar(&model, "model", "sonnet", "reasoning tier: sonnet|opus")
	invokeCmd.Flags().StringVar(&workingDir, "dir", "", "working directory for the agent")
	invokeCmd.Flags().BoolVar(&skipPermissions, "skip-permissions", true, "bypass interactive confirmation")
	return invokeCmd
}

// NewTemplateCmd is the slash-command entry point: builds the prompt,
// persists its audit copy, and invokes with retry.
func NewTemplateCmd() *cobra.Command {
	var (
		model      string
		workingDir string
	)

	templateCmd := &cobra.Command{
		Use:   "template <command> [args...]",
		Short: "Invoke a slash-command template (with retry)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.FromContext(cmd.Context())
			client, _, err := buildClient(logger)
			if err != nil {
				return err
			}

			resp, err := client.InvokeTemplate(cmd.Context(), delegate.TemplateRequest{
				AgentName:       "cli",
				Command:         args[0],
				Args:            args[1:],
				Model:           core.Model(model),
				SkipPermissions: true,
				WorkingDir:      workingDir,
			})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	templateCmd.Flags().StringVar(&model, "model", "sonnet", "reasoning tier: sonnet|opus")
	templateCmd.Flags().StringVar(&workingDir, "dir", "", "working directory for the agent")
	return templateCmd
}

func buildClient(logger logging.Logger) (*delegate.Client, config.Config, error) {
	cfg, err := config.Load(globalConfigFile)
	if err != nil {
		return nil, config.Config{}, err
	}

	root := filepath.Join(cfg.ArtifactDir, "cli")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, config.Config{}, fmt.Errorf("create artifact dir: %w", err)
	}

	auditWriter := audit.NewWriter(filepath.Join(root, "audit"))
	exec := executor.New(
		executor.BridgeSpawner{BridgePath: cfg.BridgeBin, AgentBin: cfg.AgentBin},
		auditWriter,
		logger,
	)
	exec.SettingsPath = cfg.SettingsPath

	client := delegate.NewClient(exec, core.UUIDGenerator{Root: filepath.Join(root, "streams")}, auditWriter, logger)
	client.DefaultModel = core.Model(cfg.Model)
	client.MaxAttempts = cfg.MaxAttempts
	if delays := cfg.RetryDelayDurations(); len(delays) > 0 {
		client.RetryDelays = delays
	}
	return client, cfg, nil
}

func printResponse(resp core.InvocationResponse) {
	if resp.Success {
		fmt.Printf("%s %s\n", color.GreenString("✔"), resp.Output)
	} else {
		fmt.Printf("%s [%s] %s\n", color.RedString("✘"), resp.ResultCode, resp.Output)
	}
	if resp.SessionID != "" {
		fmt.Printf("session: %s\n", color.CyanString(resp.SessionID))
	}
}
