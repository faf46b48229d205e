package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domarticle "github.com/kailas-cloud/kbassist/internal/domain/article"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
	"github.com/kailas-cloud/kbassist/internal/domain/search/query"
	chiTransport "github.com/kailas-cloud/kbassist/internal/transport/chi"
	seeduc "github.com/kailas-cloud/kbassist/internal/usecase/seed"
)

var (
	seedPath string

	searchCategory string
	searchLimit    int
	searchJSON     bool

	askContextIDs []int64
	askJSON       bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the fixture articles into the configured store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			path := seedPath
			if path == "" {
				path = cfg.Seed.Path
			}
			n, err := seedFromFile(ctx, a, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d articles from %s\n", n, path)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank articles for a query (empty query lists the newest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		}
		q, err := query.New(text, searchCategory, searchLimit)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			arts, err := a.search.Search(ctx, q)
			if err != nil {
				return err
			}
			if searchJSON {
				return printJSON(cmd.OutOrStdout(), toResponses(arts))
			}
			printArticles(cmd.OutOrStdout(), arts)
			return nil
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question using the given context articles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := question.New(args[0], askContextIDs)
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			ans, err := a.qa.Ask(ctx, q)
			if err != nil {
				return err
			}
			if askJSON {
				return printJSON(cmd.OutOrStdout(), chiTransport.AskResponse{
					Answer:        ans.Text(),
					Status:        string(ans.Status()),
					FailureReason: string(ans.FailureReason()),
					ContextUsed:   toResponses(ans.Context()),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ans.Text())
			if used := ans.Context(); len(used) > 0 {
				fmt.Fprintln(out, "\nContext:")
				printArticles(out, used)
			}
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "fixture file (default: seed.path from config)")

	searchCmd.Flags().StringVarP(&searchCategory, "category", "c", "", "only articles in this category")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", query.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print JSON")

	askCmd.Flags().Int64SliceVar(&askContextIDs, "context", nil, "context article ids (comma separated)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print JSON")
}

// withApp builds the pipeline, runs fn and releases the store.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func seedFromFile(ctx context.Context, a *app, path string) (int, error) {
	fixture, err := seeduc.Load(path)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	n, err := a.seed.Seed(ctx, fixture)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", path, err)
	}
	logger.Debug("Seed complete", zap.Int("articles", n), zap.Duration("took", time.Since(start)))
	return n, nil
}

func toResponses(arts []domarticle.Article) []chiTransport.ArticleResponse {
	out := make([]chiTransport.ArticleResponse, 0, len(arts))
	for i := range arts {
		out = append(out, chiTransport.ArticleToResponse(&arts[i]))
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printArticles(w io.Writer, arts []domarticle.Article) {
	if len(arts) == 0 {
		fmt.Fprintln(w, "no articles")
		return
	}
	for i := range arts {
		a := &arts[i]
		category := a.Category()
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%4d  %s  %-12s  %s", a.ID(), a.PublishedAt().Format(time.DateOnly), category, a.Title())
		if tags := a.Tags(); len(tags) > 0 {
			fmt.Fprintf(w, "  [%s]", strings.Join(tags, ", "))
		}
		fmt.Fprintln(w)
	}
}
