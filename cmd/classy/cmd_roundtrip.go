package main

import (
	"bytes"
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classy/classfile"
)

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <file.class>...",
		Short: "Load, rewrite and reload class files, checking nothing is lost",
		Long: `Load, rewrite and reload class files.

A file fails when it does not load, does not rewrite, or reloads to a
different class. Files that reload to the same class but not to the same
bytes pass with a warning; files this tool wrote always reproduce exactly.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, filename := range args {
				diff, err := roundtrip(filename)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
					failed++
					continue
				}
				if diff != "" {
					fmt.Fprintf(os.Stderr, "%s: warning: %s\n", filename, diff)
				}
				fmt.Printf("%s: ok\n", filename)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files did not round trip", failed, len(args))
			}
			return nil
		},
	}
}

// roundtrip reports an error when filename does not survive a load, write
// and reload as the same class. A byte difference alone is returned as a
// description, not an error.
func roundtrip(filename string) (string, error) {
	original, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("read class file: %w", err)
	}
	class, err := classfile.LoadBytes(original)
	if err != nil {
		return "", fmt.Errorf("load class file: %w", err)
	}
	written, err := classfile.Bytes(class)
	if err != nil {
		return "", fmt.Errorf("write class file: %w", err)
	}
	reloaded, err := classfile.LoadBytes(written)
	if err != nil {
		return "", fmt.Errorf("reload class file: %w", err)
	}
	if !reflect.DeepEqual(class, reloaded) {
		return "", fmt.Errorf("reloaded class differs from the loaded one")
	}
	if !bytes.Equal(original, written) {
		return fmt.Sprintf("rewritten bytes differ at offset %d (%d vs %d bytes)",
			firstDifference(original, written), len(original), len(written)), nil
	}
	return "", nil
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
