package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/jestbridge/internal/project"
)

var resolveJSON bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Show the Jest project and command line for a file",
	Long: `Resolve finds the project root that owns a file (nearest root marker,
then the git root, then the file's directory), the jest config in that root
and the jest binary, and prints the command that would write JSON results
for it.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(resolveCmd)
}

type resolveOutput struct {
	*project.Project
	File       string   `json:"file"`
	IsTestFile bool     `json:"is_test_file"`
	Command    []string `json:"command"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	file := args[0]
	resolver := project.NewResolver(cfg.Runner, cfg.Roots)
	p, err := resolver.Resolve(file)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", file, err)
	}

	isTest := resolver.IsTestFile(file)
	var argv []string
	if isTest {
		argv = p.Command("", file)
	} else {
		argv = p.Command("")
	}

	currentLogger().WithFile(file).Debug("resolved project",
		"root", p.Root, "source", string(p.RootSource))

	out := cmd.OutOrStdout()
	if resolveJSON {
		return OutputJSON(out, resolveOutput{
			Project:    p,
			File:       file,
			IsTestFile: isTest,
			Command:    argv,
		})
	}

	fmt.Fprintf(out, "root:         %s (%s)\n", p.Root, p.RootSource)
	fmt.Fprintf(out, "package.json: %s\n", orNone(p.PackageJSON))
	fmt.Fprintf(out, "config:       %s\n", orNone(p.ConfigFile))
	fmt.Fprintf(out, "runner:       %s\n", strings.Join(p.Runner, " "))
	fmt.Fprintf(out, "results:      %s\n", p.ResultsFile)
	fmt.Fprintf(out, "test file:    %t\n", isTest)
	fmt.Fprintf(out, "command:      %s\n", strings.Join(argv, " "))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
