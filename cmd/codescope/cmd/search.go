package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cserrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/output"
	"github.com/codescope/codescope/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit    int
	repo     string
	language string
	minScore float64
	format   string
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed code by meaning",
		Long: `Search indexed code by meaning.

Examples:
  codescope search "render html template"
  codescope search "parse json payload" --repo my-service --limit 5
  codescope search "before request hook" --language python --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, flags, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "", "Restrict to one repository")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Filter by language (e.g., python, go)")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", -1, "Override the score threshold (0..1)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, flags *rootFlags, queryText string, opts searchOptions) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	q := search.Query{
		Text:             queryText,
		TopK:             opts.limit,
		RepositoryFilter: opts.repo,
		LanguageFilter:   opts.language,
	}
	if opts.minScore >= 0 {
		q.MinScore = &opts.minScore
	}

	results, err := a.service.Search(cmd.Context(), q)
	if err != nil {
		return userFacingError(err)
	}

	return renderResults(cmd, queryText, results, opts.format)
}

// userFacingError keeps validation messages verbatim and hides backend
// detail behind the generic retrieval message; full detail is in the logs.
// Non-validation errors carry their code so users can quote it when
// reporting, matching the code on the logged line.
func userFacingError(err error) error {
	var e *cserrors.Error
	if !errors.As(err, &e) {
		return err
	}
	if cserrors.IsValidation(err) {
		return fmt.Errorf("%s", e.Message)
	}
	if cserrors.IsRetrieval(err) {
		return fmt.Errorf("%s (%s); run 'codescope doctor' to check backends",
			e.Message, cserrors.GetCode(err))
	}
	return fmt.Errorf("%s (%s)", e.Message, e.Code)
}

func renderResults(cmd *cobra.Command, queryText string, results []*search.RankedResult, format string) error {
	out := output.New(cmd.OutOrStdout())

	if format == "json" {
		payload, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		out.Printf("%s", payload)
		return nil
	}

	if len(results) == 0 {
		out.Warning("No results for %q", queryText)
		return nil
	}

	out.Heading("%d result(s) for %q", len(results), queryText)
	out.Newline()
	for i, r := range results {
		c := r.Chunk
		out.Printf("%d. %s  (%.3f)", i+1, c.SymbolName, r.Score)
		out.Detail("   %s %s:%d-%d  [%s %s]",
			c.RepositoryID, c.FilePath, c.StartLine, c.EndLine, c.Language, c.SymbolType)
		out.Code(snippetPreview(c.SourceText))
	}
	return nil
}

// snippetPreview keeps the first few lines of a chunk for terminal output.
func snippetPreview(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > 5 {
		lines = append(lines[:5], "...")
	}
	return strings.Join(lines, "\n")
}
