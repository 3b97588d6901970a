package main

import (
	"fmt"
	"strings"

	"github.com/athapong/ontonote/pkg/notes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newNewCmd(opts *rootOptions) *cobra.Command {
	var title, template, file string
	cmd := &cobra.Command{
		Use:   "new [text...]",
		Short: "Create a note from text, a file or standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			res, err := app.Pipeline.ProcessNewNote(cmd.Context(), notes.NoteRequest{
				Title:    title,
				Content:  content,
				Template: template,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", res.Path)
			fmt.Fprintf(out, "Title:    %s\n", res.Title)
			fmt.Fprintf(out, "Tags:     %s\n", strings.Join(res.Tags, ", "))
			fmt.Fprintf(out, "Concepts: %s\n", strings.Join(res.Concepts, ", "))
			fmt.Fprintf(out, "Related:  %s\n", strings.Join(res.Related, ", "))
			if len(res.Degraded) > 0 {
				fmt.Fprintf(out, "Degraded: %s\n", strings.Join(res.Degraded, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Note title (generated when empty)")
	cmd.Flags().StringVar(&template, "template", "", "Template name from the vault .templates directory")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the note text from a .txt, .md, .html or .pdf file")
	return cmd
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "suggest [text...]",
		Short: "Suggest connections between a text and existing notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			s, err := app.Pipeline.SuggestConnections(cmd.Context(), text)
			if s == nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(s.Related) == 0 {
				fmt.Fprintln(out, "No related notes found.")
				return err
			}
			fmt.Fprintf(out, "Related notes: %s\n", strings.Join(s.Related, ", "))
			if err != nil {
				return errors.Wrap(err, "suggestions unavailable")
			}
			fmt.Fprintf(out, "\n%s\n", s.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file")
	return cmd
}

func newAssistCmd(opts *rootOptions) *cobra.Command {
	var file string
	var save bool
	cmd := &cobra.Command{
		Use:       "assist <action> [text...]",
		Short:     "Run a one-shot action: summarize, explain, questions, keywords or expand",
		Args:      cobra.MinimumNArgs(1),
		ValidArgs: actionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := notes.ParseAction(args[0])
			if !ok {
				return errors.Errorf("unknown action %q (want one of %s)", args[0], strings.Join(actionNames(), ", "))
			}
			text, err := readInput(cmd, file, args[1:])
			if err != nil {
				return err
			}
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			answer, err := app.Pipeline.Assist(cmd.Context(), action, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)

			if save {
				path, err := app.Pipeline.SaveAssist(action, text, answer)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nSaved to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the text from a file")
	cmd.Flags().BoolVar(&save, "save", false, "Store the answer as a new note")
	return cmd
}

func actionNames() []string {
	names := make([]string, 0, len(notes.Actions))
	for _, a := range notes.Actions {
		names = append(names, string(a))
	}
	return names
}
