package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sqlreflow/internal/diag"
	"sqlreflow/internal/diagfmt"
	"sqlreflow/internal/lexer"
	"sqlreflow/internal/parser"
	"sqlreflow/internal/segment"
	"sqlreflow/internal/source"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.sql",
	Short: "Show the tokens or segment tree of a SQL file",
	Long:  `Tokenize lexes and structures a SQL file. By default the segment tree is printed; --tree writes it in the binary interchange format that 'lint --tree' reads.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().Bool("tokens", false, "print the flat token stream instead of the tree")
	tokenizeCmd.Flags().String("format", "pretty", "token output format (pretty|json)")
	tokenizeCmd.Flags().String("tree", "", "write the segment tree to this file")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	tokensOnly, err := cmd.Flags().GetBool("tokens")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	treeOut, err := cmd.Flags().GetString("tree")
	if err != nil {
		return err
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor, err := resolveColor(colorFlag)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return err
	}
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	out := cmd.OutOrStdout()

	if tokensOnly {
		toks := lexer.New(fs.Get(id), lexer.Options{Reporter: reporter}).All()
		if err := diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: useColor}); err != nil {
			return err
		}
		switch format {
		case "pretty":
			return diagfmt.FormatTokensPretty(out, toks, fs)
		case "json":
			return diagfmt.FormatTokensJSON(out, toks)
		default:
			return fmt.Errorf("unknown format: %s", format)
		}
	}

	parsed, err := parser.ParseFile(fs.Get(id), parser.Options{Reporter: reporter})
	if err != nil {
		return err
	}
	if err := diagfmt.Pretty(cmd.ErrOrStderr(), bag, fs, diagfmt.PrettyOpts{Color: useColor}); err != nil {
		return err
	}
	if treeOut != "" {
		return writeTree(treeOut, parsed.Root)
	}
	return printTree(out, parsed.Root, 0)
}

func writeTree(path string, root *segment.Segment) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return segment.Encode(f, root)
}

// printTree prints one segment per line, children indented by two spaces.
func printTree(w io.Writer, s *segment.Segment, depth int) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), s); err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := printTree(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
