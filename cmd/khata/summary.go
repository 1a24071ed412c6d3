package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/model"
	"github.com/hridayan/khata/internal/tui"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals by type and category",
		RunE:  runSummary,
	}

	cmd.Flags().Int("top", 5, "how many top expenses to show")

	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	topN, _ := cmd.Flags().GetInt("top")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	ctx := cmd.Context()
	user := currentUser()

	totals, err := a.store.GetTotalsByType(ctx, user)
	if err != nil {
		return fmt.Errorf("reading totals: %w", err)
	}
	if len(totals) == 0 {
		fmt.Println(tui.InfoStyle.Render("Nothing recorded yet. Start with 'khata ingest' or 'khata chat'."))
		return nil
	}

	fmt.Println(tui.TitleStyle.Render("Summary"))
	for _, txType := range []model.TransactionType{model.TypeExpense, model.TypeIncome, model.TypeSaving} {
		if s, ok := totals[txType]; ok {
			fmt.Printf("  %-8s %s  (%d records)\n", txType,
				tui.AmountStyle.Render(fmt.Sprintf("₹%.2f", s.Total)), s.Count)
		}
	}

	categoryTotals, err := a.store.GetCategoryTotals(ctx, user)
	if err != nil {
		return fmt.Errorf("reading category totals: %w", err)
	}
	if len(categoryTotals) > 0 {
		fmt.Println(tui.TitleStyle.Render("\nBy category"))
		for _, ct := range categoryTotals {
			fmt.Printf("  %-20s %s  avg ₹%.2f over %d\n", ct.Category,
				tui.AmountStyle.Render(fmt.Sprintf("₹%.2f", ct.Total)), ct.Average, ct.Count)
		}
	}

	top, err := a.store.GetTopExpenses(ctx, user, topN)
	if err != nil {
		return fmt.Errorf("reading top expenses: %w", err)
	}
	if len(top) > 0 {
		fmt.Println(tui.TitleStyle.Render("\nTop expenses"))
		for i, bill := range top {
			merchant := bill.Merchant
			if merchant == "" {
				merchant = "(no merchant)"
			}
			fmt.Printf("  %d. %s  %s\n", i+1,
				tui.AmountStyle.Render(fmt.Sprintf("₹%.2f", bill.Amount)), merchant)
		}
	}
	return nil
}
