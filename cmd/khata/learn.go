package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/tui"
)

func learnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Teach khata a category",
		Long: `Record your category decision so future suggestions improve.

With --bill, confirms the category for a stored bill and learns its
merchant and text. Without it, learns a free-form association:

  khata learn --category Food --merchant swiggy --note "friday biryani" --amount 450`,
		RunE: runLearn,
	}

	cmd.Flags().String("bill", "", "bill ID to confirm the category for")
	cmd.Flags().String("category", "", "category to learn (required)")
	cmd.Flags().String("merchant", "", "merchant to associate")
	cmd.Flags().String("note", "", "free text whose keywords to associate")
	cmd.Flags().Float64("amount", 0, "amount whose range to associate")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runLearn(cmd *cobra.Command, _ []string) error {
	billID, _ := cmd.Flags().GetString("bill")
	category, _ := cmd.Flags().GetString("category")
	merchant, _ := cmd.Flags().GetString("merchant")
	note, _ := cmd.Flags().GetString("note")
	amount, _ := cmd.Flags().GetFloat64("amount")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	user := currentUser()

	if billID != "" {
		if err := a.pipeline.ConfirmCategory(cmd.Context(), user, billID, category); err != nil {
			return fmt.Errorf("confirming category: %w", err)
		}
		fmt.Println(tui.SuccessStyle.Render("Got it — category confirmed for bill ") + billID)
		return nil
	}

	if merchant == "" && note == "" && amount <= 0 {
		return fmt.Errorf("provide --bill, or at least one of --merchant, --note, --amount")
	}

	if err := a.learner.Learn(cmd.Context(), user, merchant, note, amount, category); err != nil {
		return fmt.Errorf("learning failed: %w", err)
	}

	stats, err := a.learner.Stats(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("reading memory stats: %w", err)
	}
	fmt.Println(tui.SuccessStyle.Render("Learned."))
	fmt.Printf("  memory now holds %d merchants, %d keywords, %d amount patterns\n",
		stats.MerchantLinks, stats.KeywordLinks, stats.AmountPatterns)
	return nil
}
