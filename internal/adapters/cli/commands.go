package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// SessionID is the session quotectl records its random picks under.
const SessionID = "quotectl"

// OpenFunc builds the quote service for a config profile. The returned
// func releases whatever the service holds open.
type OpenFunc func(ctx context.Context, profile string) (*app.QuoteService, func(), error)

// Options configures the root command.
type Options struct {
	// Open is required.
	Open OpenFunc

	// DefaultProfile is the --profile default.
	DefaultProfile string
}

type runner struct {
	open    OpenFunc
	profile string
}

// withService opens the service, runs fn and releases the service.
func (r *runner) withService(cmd *cobra.Command, fn func(*app.QuoteService, *Renderer) error) error {
	svc, release, err := r.open(cmd.Context(), r.profile)
	if err != nil {
		return err
	}
	defer release()

	return fn(svc, NewRenderer(cmd.OutOrStdout()))
}

// NewRootCommand returns the quotectl command tree. Panics if opts.Open is nil.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Open == nil {
		panic("cli: Open is required")
	}

	r := &runner{open: opts.Open}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Manage the quote collection",
		Long: `quotectl works on the same durable store as the quote service.

Examples:
  quotectl list --category Life
  quotectl random
  quotectl add --text "Stay hungry." --author "Steve Jobs" --category Life
  quotectl export -o backup.json
  quotectl import backup.json
  quotectl sync`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&r.profile, "profile", opts.DefaultProfile, "configuration profile (configs/<profile>.yaml)")

	root.AddCommand(
		newListCmd(r),
		newRandomCmd(r),
		newAddCmd(r),
		newCategoriesCmd(r),
		newSelectCmd(r),
		newExportCmd(r),
		newImportCmd(r),
		newSyncCmd(r),
	)

	return root
}

func newListCmd(r *runner) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, optionally in one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				out.Quotes(svc.ListQuotes(cmd.Context(), category), category)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category filter")

	return cmd
}

func newRandomCmd(r *runner) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random quote",
		Long:  "Shows a random quote from --category, or from the selected category when the flag is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				ctx := cmd.Context()

				if !cmd.Flags().Changed("category") {
					category = svc.SelectedCategory(ctx)
				}

				q, err := svc.RandomQuote(ctx, SessionID, category)
				if err != nil {
					return err
				}

				out.Quote(q)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "category filter")

	return cmd
}

func newAddCmd(r *runner) *cobra.Command {
	var text, author, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				res, err := svc.AddQuote(cmd.Context(), SessionID, domain.Quote{Text: text, Author: author, Category: category})
				if err != nil {
					return err
				}

				out.Quote(res.Quote)
				out.Success(domain.MessageQuoteAdded)

				if res.Forwarded {
					out.Info("Forwarded to the remote source.")
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "quote text")
	cmd.Flags().StringVarP(&author, "author", "a", "", "author (default \"Unknown\")")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category (default \"General\")")
	_ = cmd.MarkFlagRequired("text")

	return cmd
}

func newCategoriesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and the selected filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				ctx := cmd.Context()
				out.Categories(svc.Categories(ctx), svc.SelectedCategory(ctx))

				return nil
			})
		},
	}
}

func newSelectCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "select [category]",
		Short: "Persist the selected category filter",
		Long:  "Persists the category filter. Without an argument the filter resets to all quotes.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var category string
			if len(args) == 1 {
				category = args[0]
			}

			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				selected, err := svc.SetSelectedCategory(cmd.Context(), category)
				if err != nil {
					return err
				}

				out.Success("Selected category: " + selected)

				return nil
			})
		},
	}
}

func newExportCmd(r *runner) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of the collection",
		Long:  "Writes the collection as JSON to --output, \"-\" for stdout, or to quotes-<timestamp>.json in the current directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				res, err := svc.Export(cmd.Context())
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(append(res.Data, '\n'))
					return err
				}

				path := output
				if path == "" {
					path = res.Filename
				}

				if err := writeFileAtomic(path, res.Data); err != nil {
					return err
				}

				out.Success("Exported quotes to " + path)

				if res.Location != "" {
					out.Info("Archived at " + res.Location)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, \"-\" for stdout")

	return cmd
}

func newImportCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import quotes from a JSON snapshot",
		Long:  "Imports a JSON array of quotes or an object with a \"quotes\" array. Duplicates and entries without text are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				res, err := svc.Import(cmd.Context(), raw)
				if err != nil {
					return err
				}

				out.Success(res.Message())

				if res.Forwarded > 0 {
					out.Info(fmt.Sprintf("Forwarded %d quote(s) to the remote source.", res.Forwarded))
				}

				return nil
			})
		},
	}
}

func newSyncCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull quotes from the remote source and merge them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withService(cmd, func(svc *app.QuoteService, out *Renderer) error {
				res, err := svc.Sync(cmd.Context())
				if err != nil {
					if domain.IsUnavailable(err) {
						return fmt.Errorf("error syncing with server: %w", err)
					}

					return err
				}

				out.Success(res.Message())

				return nil
			})
		},
	}
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quotes-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()

	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// Run executes root with ctx and renders a failure to the command's error
// stream. It returns the process exit code.
func Run(ctx context.Context, root *cobra.Command) int {
	if err := root.ExecuteContext(ctx); err != nil {
		NewRenderer(root.ErrOrStderr()).Error(err)
		return 1
	}

	return 0
}
