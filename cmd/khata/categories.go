package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/tui"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List known categories and memory stats",
		RunE:  runCategories,
	}
}

func runCategories(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	user := currentUser()

	cats, err := a.learner.AllCategories(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	stats, err := a.learner.Stats(cmd.Context(), user)
	if err != nil {
		return fmt.Errorf("reading memory stats: %w", err)
	}

	fmt.Println(tui.TitleStyle.Render("Categories"))
	for _, cat := range cats {
		fmt.Printf("  %s\n", cat)
	}
	fmt.Println(tui.SubtleStyle.Render(fmt.Sprintf(
		"\nmemory: %d merchants, %d keywords, %d amount patterns",
		stats.MerchantLinks, stats.KeywordLinks, stats.AmountPatterns)))
	return nil
}
