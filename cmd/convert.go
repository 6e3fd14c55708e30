package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openconvert/markitdown-server/internal/engine"
	"github.com/openconvert/markitdown-server/internal/pipeline"
)

// newConvertCmd converts a local file to markdown on stdout, bypassing the
// object store. Useful for checking what the engine build can handle.
func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a local file to markdown on stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := pipeline.ValidateSource(path); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			eng, err := engine.NewMarkdownEngine()
			if err != nil {
				return fmt.Errorf("build engine: %w", err)
			}
			doc, err := eng.Convert(cmd.Context(), data, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("convert %s: %w", path, err)
			}

			title := pipeline.ResolveTitle(doc.Title, doc.TextContent, path)
			fmt.Fprintf(cmd.ErrOrStderr(), "title: %s\n", title)
			fmt.Fprintln(cmd.OutOrStdout(), doc.TextContent)
			return nil
		},
	}
}
