package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
	"github.com/hridayan/khata/internal/service"
	"github.com/hridayan/khata/internal/tui"
)

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file-or-directory>",
		Short: "Ingest OCR'd bill text",
		Long: `Process one OCR'd text file, or every .txt file in a directory.

Each file holds the raw text of one bill or payment screenshot. khata
extracts the merchant, amount and date, redacts account numbers, stores
the bill, and suggests a category.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Float64("confidence", 0, "OCR engine confidence for the input, 0-100")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	if !info.IsDir() {
		result, err := ingestFile(cmd, a, path, confidence)
		if err != nil {
			return err
		}
		printIngestResult(path, result)
		return nil
	}

	entries, err := filepath.Glob(filepath.Join(path, "*.txt"))
	if err != nil {
		return fmt.Errorf("listing %s: %w", path, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no .txt files in %s", path)
	}
	sort.Strings(entries)

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Ingesting bills..."),
	)

	var saved, skipped, duplicates, failed int
	for _, file := range entries {
		result, err := ingestFile(cmd, a, file, confidence)
		_ = bar.Add(1)
		switch {
		case err != nil:
			// One bad file must not stop the batch.
			failed++
			common.LogError(err, "ingest failed", common.Fields{"file": file})
		case result.Persisted:
			saved++
		case result.Duplicate:
			duplicates++
		default:
			skipped++
			slog.Debug("ingest skipped", "file", file, "reason", result.SkipReason)
		}
	}
	fmt.Fprintln(os.Stderr)

	fmt.Println(tui.TitleStyle.Render("Ingest complete"))
	fmt.Printf("  saved: %d  duplicates: %d  skipped: %d  failed: %d\n",
		saved, duplicates, skipped, failed)
	return nil
}

func ingestFile(cmd *cobra.Command, a *app, path string, confidence float64) (*service.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := model.RawDocument{
		Text:       string(data),
		Confidence: confidence,
	}
	return a.pipeline.IngestText(cmd.Context(), currentUser(), doc)
}

func printIngestResult(path string, result *service.IngestResult) {
	switch {
	case result.Duplicate:
		fmt.Println(tui.InfoStyle.Render("Already recorded: ") + path)
		return
	case !result.Persisted:
		fmt.Println(tui.ErrorStyle.Render("Skipped: ") + result.SkipReason)
		return
	}

	bill := result.Bill
	fmt.Println(tui.SuccessStyle.Render("Saved bill ") + bill.ID)
	fmt.Printf("  amount:   %s\n", tui.AmountStyle.Render(fmt.Sprintf("₹%.2f", bill.Amount)))
	if bill.Merchant != "" {
		fmt.Printf("  merchant: %s\n", bill.Merchant)
	}
	if bill.BillDate != "" {
		fmt.Printf("  date:     %s\n", bill.BillDate)
	}
	if bill.PaymentApp != "" {
		fmt.Printf("  app:      %s (%s)\n", bill.PaymentApp, bill.PaymentMode)
	}
	if len(result.Parsed.Items) > 0 {
		fmt.Printf("  items:    %d\n", len(result.Parsed.Items))
	}

	if s := result.Suggestion; s != nil && s.FinalCategory != "" {
		fmt.Printf("  category: %s %s\n",
			tui.CategoryStyle.Render(s.FinalCategory),
			tui.SubtleStyle.Render(fmt.Sprintf("(score %.2f)", s.FinalScore)))
		if len(s.Heuristic) > 1 {
			fmt.Printf("  also:     %s\n",
				tui.SubtleStyle.Render(strings.Join(s.Heuristic.TopN(3).Categories(), ", ")))
		}
	}
}
