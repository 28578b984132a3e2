package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"knowledge-tool/internal/app"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
	"knowledge-tool/internal/vault"
)

func (c *cli) trashCmd() *cobra.Command {
	trashCmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and empty the trash",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notes in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				notes, err := a.Service.ListByPath(cmd.Context(), storage.TrashPath)
				if err != nil {
					return fmt.Errorf("failed to list trash: %w", err)
				}
				return printNotes(cmd, notes)
			})
		},
	}

	emptyCmd := &cobra.Command{
		Use:   "empty",
		Short: "Permanently delete every note in the trash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				n, err := a.Service.EmptyTrash(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to empty trash: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d notes from the trash\n", n)
				return nil
			})
		},
	}

	trashCmd.AddCommand(listCmd, emptyCmd)
	return trashCmd
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		includeTrash bool
		from, to     string
		tag          string
	)

	cmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search notes by text or #tag",
		Long: `Search note titles and bodies for a term, case-insensitively. A term starting with #
matches tags instead. Results are ordered newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.SearchRequest{
				Term:         strings.Join(args, " "),
				IncludeTrash: includeTrash,
				Tag:          tag,
			}
			var err error
			if req.From, err = parseDay("from", from); err != nil {
				return err
			}
			if req.To, err = parseDay("to", to); err != nil {
				return err
			}

			return c.withApp(cmd, func(a *app.App) error {
				res, err := a.Service.Search(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("search failed: %w", err)
				}
				return printNotes(cmd, res.Results)
			})
		},
	}
	cmd.Flags().BoolVar(&includeTrash, "trash", false, "Include notes in the trash")
	cmd.Flags().StringVar(&from, "from", "", "Only notes created on or after this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Only notes created on or before this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only notes with exactly this tag")
	return cmd
}

func (c *cli) journalCmd() *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Daily journal and weekly review",
	}

	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's journal entry, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				entry, err := a.Service.TodayJournal(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				return printJSON(cmd, entry)
			})
		},
	}

	var from, to string
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Summarize the journal entries of the last week",
		Long:  `Collects the journal entries between --from and --to (default: the last seven days) and prints a summary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				req service.ReviewRequest
				err error
			)
			if req.From, err = parseDay("from", from); err != nil {
				return err
			}
			if req.To, err = parseDay("to", to); err != nil {
				return err
			}

			return c.withApp(cmd, func(a *app.App) error {
				review, err := a.Service.WeeklyReview(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, review.Summary)
				if review.SummaryError != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Summary unavailable: %s\n", review.SummaryError)
				}
				return nil
			})
		},
	}
	reviewCmd.Flags().StringVar(&from, "from", "", "First day of the review (YYYY-MM-DD)")
	reviewCmd.Flags().StringVar(&to, "to", "", "Last day of the review (YYYY-MM-DD)")

	journalCmd.AddCommand(todayCmd, reviewCmd)
	return journalCmd
}

func (c *cli) tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with the number of notes carrying them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				tags, err := a.Service.Tags(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list tags: %w", err)
				}
				if len(tags) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags found.")
					return nil
				}
				for _, t := range tags {
					fmt.Fprintf(cmd.OutOrStdout(), "#%s\t%d\n", t.Tag, t.Count)
				}
				return nil
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Import a folder of markdown files as notes",
		Long: `Imports every markdown file below dir, such as an Obsidian vault. Each file becomes a note
whose path mirrors its folder below --prefix. Files whose title already exists at that path
are skipped, so an import can be repeated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				stats, err := vault.NewImporter(a.Service).ImportAll(cmd.Context(), args[0], prefix)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d files (%d skipped, %d failed)\n",
					stats.Imported, stats.Files, stats.Skipped, stats.Failed)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Path to import below, e.g. /vault")
	return cmd
}
