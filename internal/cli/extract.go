package cli

import (
	"errors"
	"os"
	"path/filepath"

	"construction_estimator/internal/domain/entities"
	"construction_estimator/internal/domain/extractor"
	"construction_estimator/internal/infrastructure/documents"

	"github.com/spf13/cobra"
)

type extractResult struct {
	File        string               `json:"file"`
	Attachments int                  `json:"attachments"`
	Rooms       []entities.Candidate `json:"rooms"`
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Show the rooms the fallback path would detect in plan files",
	Example: `  estimator extract --file plans.txt
  estimator extract sheet1.html sheet2.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, _ := cmd.Flags().GetStringSlice("file")
		paths = append(paths, args...)
		if len(paths) == 0 {
			return errors.New("no plan files given")
		}

		x := documents.NewExtractor()
		out := make([]extractResult, 0, len(paths))
		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc := x.Extract(cmd.Context(), filepath.Base(path), data)
			rooms := extractor.Collect(extractor.ExtractText(doc.Text))
			if rooms == nil {
				rooms = []entities.Candidate{}
			}
			out = append(out, extractResult{File: doc.Name, Attachments: len(doc.Attachments), Rooms: rooms})
		}
		return printJSON(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringSliceP("file", "f", nil, "plan file (repeatable)")
}
