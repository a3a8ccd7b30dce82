package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avlasenko/taxikit/internal/cli/formatter"
)

func newUploadCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <document-code> <file>",
		Short: "Upload a document for the current checklist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			code, path := args[0], args[1]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			err = app.Client.UploadDocument(ctx, app.Cfg.DriverID, app.Cfg.Year, code, filepath.Base(path), f)
			if err != nil {
				return err
			}
			fmt.Println(formatter.StyleGreen.Render("✓ Uploaded " + code))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := app.Client.DocumentsByDriver(cmd.Context(), app.Cfg.DriverID)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Println(formatter.Dim("No documents uploaded yet."))
				return nil
			}
			rows := make([][]string, len(docs))
			for i, d := range docs {
				rows[i] = []string{fmt.Sprintf("%d", d.ID), d.DocType, d.Filename, extractedSummary(d.Fields)}
			}
			fmt.Print(formatter.RenderTable([]string{"ID", "Type", "File", "Extracted"}, rows))
			return nil
		},
	})

	return cmd
}

// extractedSummary condenses the backend's extraction payload into a
// short note. The payload shape is opaque, so only the field count is
// shown.
func extractedSummary(raw json.RawMessage) string {
	if len(raw) == 0 {
		return formatter.Dim("-")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return formatter.Dim("-")
	}
	noun := "fields"
	if len(fields) == 1 {
		noun = "field"
	}
	return formatter.Dim(fmt.Sprintf("%d %s", len(fields), noun))
}
