package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRelatedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "related <concept>...",
		Short: "List notes that share any of the given concepts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			paths, err := app.Store.FindRelated(args)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), app.Store.Relative(p))
			}
			return nil
		},
	}
}

func newLinkCmd(opts *rootOptions) *cobra.Command {
	var oneWay, dryRun bool
	cmd := &cobra.Command{
		Use:   "link <source> <title>...",
		Short: "Link a note to other notes",
		Long:  "Adds [[title]] links under the related notes heading of source. Source is a title or a vault relative path ending in .md. Existing targets get a link back unless --one-way is set.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			path, err := app.Store.Locate(args[0])
			if err != nil {
				return err
			}
			targets := args[1:]

			if dryRun {
				diff, err := app.Store.PreviewLinks(path, targets)
				if err != nil {
					return err
				}
				if diff == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), diff)
				return nil
			}

			if err := app.Store.AddLinks(path, targets, !oneWay); err != nil {
				return errors.Wrapf(err, "link %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s\n", app.Store.Relative(path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&oneWay, "one-way", false, "Do not add links back to the source")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the change as a diff without writing")
	return cmd
}

func newTemplatesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the note templates of the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			names, err := app.Renderer.List()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
