package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/athapong/ontonote/pkg/notes"
	"github.com/athapong/ontonote/pkg/source"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Create a note for every supported file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readInputFiles(args[0])
			if err != nil {
				return errors.Wrap(err, "read input directory")
			}
			if len(files) == 0 {
				return errors.Errorf("no supported files found in %s", args[0])
			}

			app, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			app.Logger.Infof("Processing %d input files...", len(files))

			failed := 0
			for _, file := range files {
				log := app.Logger.WithField("file", file)
				content, err := source.Load(file)
				if err != nil {
					log.WithError(err).Error("Failed to read file")
					failed++
					continue
				}
				res, err := app.Pipeline.ProcessNewNote(cmd.Context(), notes.NoteRequest{
					Title:    titleFromFile(file),
					Content:  content,
					Template: template,
				})
				if err != nil {
					log.WithError(err).Error("Failed to create note")
					failed++
					continue
				}
				log.WithFields(logrus.Fields{"note": res.Path}).Debug("Imported")
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", file, res.Path)
			}

			app.Logger.Infof("Imported %d of %d files", len(files)-failed, len(files))
			if failed > 0 {
				return errors.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "Template name from the vault .templates directory")
	return cmd
}

// readInputFiles lists the supported files under inputDir in lexical order.
func readInputFiles(inputDir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if source.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func titleFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
}
