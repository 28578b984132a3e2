package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"knowledge-tool/internal/app"
	"knowledge-tool/internal/service"
	"knowledge-tool/internal/storage"
)

func (c *cli) notesCmd() *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes",
		Long:  `Provides commands for creating, listing, getting, updating, trashing, restoring, and deleting notes.`,
	}
	notesCmd.AddCommand(
		c.noteAddCmd(),
		c.noteGetCmd(),
		c.noteListCmd(),
		c.noteUpdateCmd(),
		c.noteTrashCmd(),
		c.noteRestoreCmd(),
		c.noteDeleteCmd(),
		c.noteReadCmd(),
	)
	return notesCmd
}

func (c *cli) noteAddCmd() *cobra.Command {
	var req service.CreateNoteRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				note, err := a.Service.Create(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("failed to create note: %w", err)
				}
				return printJSON(cmd, note)
			})
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "Note title")
	cmd.Flags().StringVar(&req.Body, "body", "", "Note body (markdown)")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "Tag to attach (repeatable)")
	cmd.Flags().StringVar(&req.Path, "path", "", "Collection path, e.g. /dev")
	return cmd
}

func (c *cli) noteGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Get a note by its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app.App) error {
				note, err := a.Service.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
}

func (c *cli) noteListCmd() *cobra.Command {
	var includeTrash bool
	var path string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				var (
					notes []storage.NoteRecord
					err   error
				)
				if path != "" {
					notes, err = a.Service.ListByPath(cmd.Context(), path)
				} else {
					notes, err = a.Service.List(cmd.Context(), includeTrash)
				}
				if err != nil {
					return fmt.Errorf("failed to list notes: %w", err)
				}
				return printNotes(cmd, notes)
			})
		},
	}
	cmd.Flags().BoolVar(&includeTrash, "trash", false, "Include notes in the trash")
	cmd.Flags().StringVar(&path, "path", "", "Only list notes stored under this exact path")
	return cmd
}

func (c *cli) noteUpdateCmd() *cobra.Command {
	var (
		title, body, path string
		tags              []string
	)

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update fields of a note",
		Long:  `Updates the fields given as flags. Fields without a flag keep their value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}

			var req service.UpdateNoteRequest
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("body") {
				req.Body = &body
			}
			if flags.Changed("tag") {
				req.Tags = &tags
			}
			if flags.Changed("path") {
				req.Path = &path
			}
			if req == (service.UpdateNoteRequest{}) {
				return fmt.Errorf("nothing to update: set at least one of --title, --body, --tag, --path")
			}

			return c.withApp(cmd, func(a *app.App) error {
				note, err := a.Service.Update(cmd.Context(), id, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&body, "body", "", "New body")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")
	cmd.Flags().StringVar(&path, "path", "", "New collection path")
	return cmd
}

// noteIDCmd builds a command that applies op to a single note and prints the result.
func (c *cli) noteIDCmd(use, short string, op func(a *app.App, cmd *cobra.Command, id int64) (interface{}, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(a *app.App) error {
				out, err := op(a, cmd, id)
				if err != nil {
					return err
				}
				if out == nil {
					return nil
				}
				return printJSON(cmd, out)
			})
		},
	}
}

func (c *cli) noteTrashCmd() *cobra.Command {
	return c.noteIDCmd("trash", "Move a note to the trash", func(a *app.App, cmd *cobra.Command, id int64) (interface{}, error) {
		return a.Service.Trash(cmd.Context(), id)
	})
}

func (c *cli) noteRestoreCmd() *cobra.Command {
	return c.noteIDCmd("restore", "Restore a note from the trash", func(a *app.App, cmd *cobra.Command, id int64) (interface{}, error) {
		return a.Service.Restore(cmd.Context(), id)
	})
}

func (c *cli) noteDeleteCmd() *cobra.Command {
	return c.noteIDCmd("delete", "Permanently delete a note", func(a *app.App, cmd *cobra.Command, id int64) (interface{}, error) {
		if err := a.Service.Delete(cmd.Context(), id); err != nil {
			return nil, err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
		return nil, nil
	})
}

func (c *cli) noteReadCmd() *cobra.Command {
	var unread bool
	cmd := c.noteIDCmd("read", "Mark a note as read", func(a *app.App, cmd *cobra.Command, id int64) (interface{}, error) {
		if err := a.Service.MarkRead(cmd.Context(), id, !unread); err != nil {
			return nil, err
		}
		return a.Service.Get(cmd.Context(), id)
	})
	cmd.Flags().BoolVar(&unread, "unread", false, "Mark the note as unread instead")
	return cmd
}

func printNotes(cmd *cobra.Command, notes []storage.NoteRecord) error {
	if len(notes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
		return nil
	}
	return printJSON(cmd, notes)
}
