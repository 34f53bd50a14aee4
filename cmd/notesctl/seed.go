package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
)

var seedTags = []string{"work", "home", "shopping", "ideas", "travel", "urgent"}

func newSeedCmd(s settings) *cobra.Command {
	var (
		count     int
		seed      int64
		reminders bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create fake notes with tags and checklists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(s.url())
			created, err := c.login(cmd.Context(), s.email(), s.password())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "signed up %s\n", s.email())
			} else {
				fmt.Fprintf(out, "signed in %s\n", s.email())
			}

			faker := gofakeit.New(seed)
			for i := 1; i <= count; i++ {
				n := fakeNote(faker, reminders)
				resp, err := c.createNote(cmd.Context(), n)
				if err != nil {
					return fmt.Errorf("note %d: %w", i, err)
				}
				if resp.Warning != "" {
					fmt.Fprintf(out, "note %d: %s\n", i, resp.Warning)
				}
				if i%50 == 0 || i == count {
					fmt.Fprintf(out, "  %d/%d\n", i, count)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 50, "How many notes to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Faker seed (0 picks a random one)")
	cmd.Flags().BoolVar(&reminders, "reminders", false, "Give some notes a reminder in the next hour")
	return cmd
}

// fakeNote builds a note whose text mixes prose with a markdown checklist.
func fakeNote(f *gofakeit.Faker, reminders bool) newNote {
	var b strings.Builder
	b.WriteString(f.Sentence(6))
	b.WriteString("\n")
	for i := f.Number(0, 4); i > 0; i-- {
		mark := " "
		if f.Bool() {
			mark = "x"
		}
		fmt.Fprintf(&b, "* [%s] %s\n", mark, strings.TrimSuffix(f.Sentence(3), "."))
	}

	n := newNote{Text: strings.TrimRight(b.String(), "\n")}
	for i := f.Number(0, 2); i > 0; i-- {
		tag := seedTags[f.Number(0, len(seedTags)-1)]
		if !contains(n.Tags, tag) {
			n.Tags = append(n.Tags, tag)
		}
	}
	if reminders && f.Number(0, 4) == 0 {
		at := time.Now().Add(time.Duration(f.Number(1, 60)) * time.Minute).UTC()
		n.ReminderAt = &at
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
