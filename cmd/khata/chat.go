package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hridayan/khata/internal/tui"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to khata about your spending",
		Long: `Start an interactive chat session. Record expenses in plain language
("spent 250 at Cafe Blue"), answer category prompts, and ask questions
("how much on food", "show summary").`,
		RunE: runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return tui.RunChat(a.conv, currentUser())
}
