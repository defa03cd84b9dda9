package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagraph/internal/common/config"
	"diagraph/internal/converter/inference"
	"diagraph/internal/converter/mapper"
	"diagraph/internal/converter/models"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] file",
	Short: "Run connectivity inference over every page of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().String("output", "pretty", "output format (pretty|json)")
	convertCmd.Flags().Int("jobs", 0, "pages converted in parallel, 0 = GOMAXPROCS")
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

func runConvert(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	pages, err := convertFile(cmd, args[0], jobs)
	if err != nil {
		return err
	}

	switch output {
	case "pretty":
		printPages(cmd.OutOrStdout(), pages)
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(pages); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown output: %s", output)
	}

	for _, p := range pages {
		if p.Status == models.StatusFailed {
			return fmt.Errorf("%d of %d pages failed", countFailed(pages), len(pages))
		}
	}
	return nil
}

// convertFile парсит файл и прогоняет пайплайн по всем страницам
func convertFile(cmd *cobra.Command, path string, jobs int) ([]models.PageResult, error) {
	tuningPath, err := cmd.Flags().GetString("tuning")
	if err != nil {
		return nil, fmt.Errorf("failed to get tuning flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	if format == "" {
		format = mapper.FormatJSON
		if strings.EqualFold(filepath.Ext(path), ".svg") {
			format = mapper.FormatSVG
		}
	}

	tuning, err := config.LoadTuning(tuningPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conv := mapper.New(tuning, inference.Hooks{}, jobs)
	doc, err := conv.Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return conv.Convert(ctx, doc)
}

func printPages(w io.Writer, pages []models.PageResult) {
	for _, p := range pages {
		if p.Status == models.StatusFailed {
			fmt.Fprintf(w, "%s page %d %q: %s\n", failColor.Sprint("FAIL"), p.PageID, p.Name, p.Error)
			continue
		}
		fmt.Fprintf(w, "%s page %d %q: %d vertices, %d edges, %d splits, %d texts assigned\n",
			okColor.Sprint("OK"), p.PageID, p.Name, p.Stats.Vertices, p.Stats.Edges, p.Stats.Splits, p.Stats.TextAssigned)
		for _, e := range p.Edges {
			fmt.Fprintf(w, "    %d -> %d  %s\n", e.From, e.To, e.Type)
		}
	}
}

func countFailed(pages []models.PageResult) int {
	n := 0
	for _, p := range pages {
		if p.Status == models.StatusFailed {
			n++
		}
	}
	return n
}
