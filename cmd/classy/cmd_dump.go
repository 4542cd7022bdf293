package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dhamidi/classy/classfile"
	"github.com/dhamidi/classy/format"
)

func newDumpCmd() *cobra.Command {
	var dumpFormat string
	var showPool bool

	cmd := &cobra.Command{
		Use:   "dump <file.class>...",
		Short: "Print the structure of class files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styled := term.IsTerminal(int(os.Stdout.Fd()))

			for _, filename := range args {
				class, err := classfile.LoadFile(filename)
				if err != nil {
					return fmt.Errorf("load class file: %w", err)
				}

				var enc format.Encoder
				switch dumpFormat {
				case "json":
					enc = format.NewJSONEncoder(os.Stdout)
				case "line":
					enc = format.NewLineEncoder(os.Stdout).Styled(styled).ShowPool(showPool)
				default:
					return fmt.Errorf("unknown format: %s (expected json or line)", dumpFormat)
				}
				if err := enc.Encode(class); err != nil {
					return fmt.Errorf("encode %s: %w", dumpFormat, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (json, line)")
	cmd.Flags().BoolVar(&showPool, "pool", false, "include the constant pool (line format only)")

	return cmd
}
