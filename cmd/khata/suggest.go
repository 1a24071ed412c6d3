package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/tui"
)

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <description...>",
		Short: "Suggest a category for a purchase",
		Long: `Score a purchase description against the trained model and your
learned category associations, and show the blended ranking.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSuggest,
	}

	cmd.Flags().String("merchant", "", "merchant or location of the purchase")
	cmd.Flags().String("payment", "", "payment method (upi, card, cash...)")
	cmd.Flags().Float64("amount", 0, "purchase amount")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	merchant, _ := cmd.Flags().GetString("merchant")
	payment, _ := cmd.Flags().GetString("payment")
	amount, _ := cmd.Flags().GetFloat64("amount")

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	item := strings.Join(args, " ")
	result, err := a.suggester.Suggest(cmd.Context(), currentUser(), item, merchant, payment, amount)
	if err != nil {
		return fmt.Errorf("suggestion failed: %w", err)
	}

	if result.FinalCategory == "" {
		fmt.Println(tui.InfoStyle.Render("No suggestion — nothing matched yet. Teach me with 'khata learn'."))
		return nil
	}

	fmt.Println(tui.TitleStyle.Render("Suggested category"))
	fmt.Printf("  %s %s\n",
		tui.CategoryStyle.Render(result.FinalCategory),
		tui.SubtleStyle.Render(fmt.Sprintf("(score %.2f)", result.FinalScore)))

	type scored struct {
		category string
		score    float64
	}
	ranked := make([]scored, 0, len(result.Scores))
	for cat, score := range result.Scores {
		ranked = append(ranked, scored{category: cat, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].category < ranked[j].category
	})

	fmt.Println(tui.SubtleStyle.Render("\n  full breakdown:"))
	for _, s := range ranked {
		fmt.Printf("    %-20s %.3f\n", s.category, s.score)
	}
	if len(result.ML) > 0 {
		fmt.Println(tui.SubtleStyle.Render("  model predictions:"))
		for _, p := range result.ML {
			fmt.Printf("    %-20s %.3f\n", p.Category, p.Probability)
		}
	}
	return nil
}
