package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/cgrep/core"
	"github.com/oxhq/cgrep/providers"
)

func (a *app) newPatternCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "pattern [snippet]",
		Short: "Print the structural query generated from a snippet",
		Long: `Print the tree-sitter query cgrep would search with. With --file the snippet
is read from the file and the language is picked from its extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				snippet  []byte
				provider providers.Provider
				err      error
			)

			switch {
			case file != "" && len(args) > 0:
				return errors.New("pass either a snippet or --file, not both")
			case file != "":
				snippet, err = os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read snippet: %w", err)
				}
				p, ok := a.registry.ForPath(file)
				if !ok || cmd.Flags().Changed("lang") {
					p, err = a.provider()
					if err != nil {
						return err
					}
				}
				provider = p
			case len(args) == 1:
				snippet, err = readSnippet(a.stdin, args[0])
				if err != nil {
					return err
				}
				provider, err = a.provider()
				if err != nil {
					return err
				}
			default:
				return errors.New("a snippet or --file is required")
			}

			pattern, err := core.NewSearcher(provider, core.WithLogger(a.logger)).Pattern(cmd.Context(), snippet)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, pattern.Source)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the snippet from a file")
	return cmd
}

func (a *app) newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range a.registry.List() {
				marker := " "
				if strings.EqualFold(p.Language(), a.cfg.Language) || contains(p.Aliases(), a.cfg.Language) {
					marker = green("*")
				}
				fmt.Fprintf(a.stdout, "%s %-12s %-28s %s\n",
					marker,
					p.Language(),
					strings.Join(p.Extensions(), " "),
					strings.Join(p.Aliases(), ", "))
			}
			return nil
		},
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
