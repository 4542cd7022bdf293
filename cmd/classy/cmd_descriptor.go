package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/classy/classfile"
)

func newDescriptorCmd() *cobra.Command {
	var printGrammar bool

	cmd := &cobra.Command{
		Use:   "descriptor <descriptor>...",
		Short: "Parse field and method descriptors and report their slot widths",
		RunE: func(cmd *cobra.Command, args []string) error {
			grammar, err := classfile.DescriptorGrammar()
			if err != nil {
				return fmt.Errorf("descriptor grammar: %w", err)
			}
			if printGrammar {
				fmt.Print(classfile.DescriptorEBNF)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("no descriptors given")
			}
			for _, desc := range args {
				if err := describe(grammar, desc); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printGrammar, "grammar", false, "print the descriptor grammar as EBNF")

	return cmd
}

// describe prints the parsed form of desc. The grammar column reports
// whether the stricter EBNF grammar also accepts it.
func describe(grammar ebnf.Grammar, desc string) error {
	if strings.HasPrefix(desc, "(") {
		mt, err := classfile.ParseMethodType(desc)
		if err != nil {
			return fmt.Errorf("parse method descriptor: %w", err)
		}
		params := make([]string, len(mt.Params))
		for i, p := range mt.Params {
			params[i] = fmt.Sprintf("%s/%d", classfile.SourceName(p), p.Width())
		}
		fmt.Printf("%s\tmethod\t%s\t(%s)\targs=%d\tlocals=%d\tstatic-locals=%d\tgrammar=%s\n",
			desc, classfile.SourceName(mt.Return), strings.Join(params, ", "),
			mt.ParamWidth(), mt.Locals(false), mt.Locals(true),
			grammarVerdict(grammar, "MethodDescriptor", desc))
		return nil
	}

	ft, err := classfile.ParseFieldType(desc)
	if err != nil {
		return fmt.Errorf("parse field descriptor: %w", err)
	}
	fmt.Printf("%s\tfield\t%s\twidth=%d\tgrammar=%s\n", desc, classfile.SourceName(ft), ft.Width(),
		grammarVerdict(grammar, "FieldType", desc))
	return nil
}

func grammarVerdict(grammar ebnf.Grammar, production, desc string) string {
	if classfile.MatchDescriptor(grammar, production, desc) {
		return "ok"
	}
	return "rejected"
}
