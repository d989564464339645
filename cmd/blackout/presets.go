package main

import (
	"fmt"

	"github.com/dgallion1/blackout/internal/policy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Print the settings preset for each mode as YAML",
	Long: `Print the settings preset for each mode as YAML.

The output can be saved and edited, then passed to "blackout redact --settings".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := make(map[policy.Mode]policy.Settings)
		for _, m := range policy.Modes() {
			presets[m] = policy.Preset(m)
		}
		out, err := yaml.Marshal(presets)
		if err != nil {
			return fmt.Errorf("encode presets: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
