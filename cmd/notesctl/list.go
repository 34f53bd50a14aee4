package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

const previewWidth = 40

func newListCmd(s settings) *cobra.Command {
	var (
		query string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List active notes",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := signedIn(cmd, s)
			if err != nil {
				return err
			}
			resp, err := c.listNotes(cmd.Context(), query, tags)
			if err != nil {
				return err
			}
			renderNotes(cmd.OutOrStdout(), resp.Notes, false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "q", "", "Search the note text")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Only notes carrying every tag")
	return cmd
}

func newTrashCmd(s settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "List trashed notes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := signedIn(cmd, s)
			if err != nil {
				return err
			}
			resp, err := c.listTrash(cmd.Context())
			if err != nil {
				return err
			}
			renderNotes(cmd.OutOrStdout(), resp.Notes, true)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "empty",
		Short: "Permanently delete every trashed note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := signedIn(cmd, s)
			if err != nil {
				return err
			}
			resp, err := c.emptyTrash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d, failed %d\n", resp.Purged, resp.Failed)
			return nil
		},
	})
	return cmd
}

func renderNotes(w io.Writer, notes []*note, trashed bool) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No matching notes found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	when := "Created"
	if trashed {
		when = "Trashed"
	}
	t.AppendHeader(table.Row{"ID", "Text", "Tags", "Tasks", when})

	for _, n := range notes {
		at := n.CreatedAt
		if trashed && n.DeletedAt != nil {
			at = *n.DeletedAt
		}
		t.AppendRow(table.Row{
			n.ID,
			preview(n.Text),
			strings.Join(n.Tags, ","),
			taskSummary(n.Tasks),
			at.Local().Format(time.DateTime),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(notes)})
	t.Render()
}

func preview(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return text.Trim(line, previewWidth)
}

func taskSummary(tasks []task) string {
	if len(tasks) == 0 {
		return ""
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(tasks))
}
