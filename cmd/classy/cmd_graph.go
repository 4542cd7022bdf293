package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classy/classfile"
	"github.com/dhamidi/classy/refgraph"
)

func newGraphCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "graph <file.class>...",
		Short: "Print the reference graph of class files as Graphviz DOT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var classes []*classfile.Clazz
			for _, filename := range args {
				class, err := classfile.LoadFile(filename)
				if err != nil {
					return fmt.Errorf("load class file: %w", err)
				}
				classes = append(classes, class)
			}
			if title == "" {
				title = classes[0].Name
			}
			fmt.Print(refgraph.DOT(title, classes...))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "graph title (default: first class name)")

	return cmd
}
