// cmd/gitnote/analyze.go
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianshen/gitnote/internal/analysis"
	"github.com/julianshen/gitnote/internal/output"
)

func analyzeCmd() *cobra.Command {
	var (
		langFlag   string
		formatFlag string
		outFlag    string
		widthFlag  int
		chatFlag   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <owner/repo | github-url>",
		Short: "Generate an article describing a GitHub repository",
		Long: `Fetch a Markdown snapshot of the repository, analyze it from four
perspectives in parallel, and merge the results into a single article.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			lang := langFlag
			if lang == "" {
				lang = a.cfg.Analysis.Language
			}

			formatter, err := output.NewFormatter(formatFlag, widthFlag)
			if err != nil {
				return err
			}

			analyzer := analysis.NewAnalyzer(a.orchestrator(modelFlag))
			if err := analyzer.Run(cmd.Context(), args[0], lang); err != nil {
				return err
			}

			if err := writeReport(analyzer.Report(), formatter, outFlag, cmd.OutOrStdout()); err != nil {
				return err
			}

			if !chatFlag {
				return nil
			}
			sess := a.chatSession(analyzer.Article(), lang, modelFlag)
			return runChatREPL(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&langFlag, "lang", "", "article language code (default from config)")
	cmd.Flags().StringVar(&formatFlag, "format", "markdown", "output format: markdown, json, terminal")
	cmd.Flags().StringVar(&outFlag, "out", "", "write the output to this file instead of stdout")
	cmd.Flags().IntVar(&widthFlag, "width", 100, "word wrap width for terminal output")
	cmd.Flags().BoolVar(&chatFlag, "chat", false, "start a chat about the article when done")

	return cmd
}

func (a *app) orchestrator(modelID string) *analysis.Orchestrator {
	return analysis.NewOrchestrator(a.resolver, a.fetcher, a.newProvider,
		analysis.WithModel(modelID),
		analysis.WithLanguage(a.cfg.Analysis.Language),
		analysis.WithTimeouts(a.cfg.Analysis.PerspectiveTimeout, a.cfg.Analysis.UnifyTimeout),
		analysis.WithLogger(a.logger),
	)
}

// writeReport formats report and writes it to path, or to stdout when path
// is empty.
func writeReport(report *analysis.Report, f output.Formatter, path string, stdout io.Writer) error {
	out, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if path == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Article written to %s\n", path)
	return nil
}
