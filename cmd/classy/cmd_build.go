package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classy/manifest"
)

func newBuildCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build <manifest.toml>",
		Short: "Assemble a class file from a TOML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}
			b, err := m.Builder()
			if err != nil {
				return fmt.Errorf("configure class: %w", err)
			}
			data, err := b.Bytes()
			if err != nil {
				return fmt.Errorf("build class: %w", err)
			}

			if output == "" {
				output = filepath.Base(m.Name) + ".class"
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write class file: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <simple name>.class)")

	return cmd
}
