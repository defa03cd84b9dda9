package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"diagraph/internal/converter/mapper"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] file",
	Short: "Draw the inferred graph of one page as SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().Int64("page", 1, "page id to render")
	renderCmd.Flags().StringP("out", "o", "", "write SVG to file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	pageID, err := cmd.Flags().GetInt64("page")
	if err != nil {
		return fmt.Errorf("failed to get page flag: %w", err)
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}

	pages, err := convertFile(cmd, args[0], 1)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if p.PageID != pageID {
			continue
		}
		svg, err := mapper.NewRenderer().Render(p)
		if err != nil {
			return err
		}
		if out == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), svg)
			return err
		}
		return os.WriteFile(out, []byte(svg), 0o644)
	}
	return fmt.Errorf("page %d not found", pageID)
}
