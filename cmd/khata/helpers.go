package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/hridayan/khata/internal/classifier"
	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/config"
	"github.com/hridayan/khata/internal/hybrid"
	"github.com/hridayan/khata/internal/intent"
	"github.com/hridayan/khata/internal/memory"
	"github.com/hridayan/khata/internal/service"
	"github.com/hridayan/khata/internal/storage"
)

// app bundles the wired services every subcommand needs.
type app struct {
	store     *storage.SQLiteStorage
	learner   *memory.Learner
	clf       classifier.Classifier
	suggester *hybrid.Suggester
	chain     *hybrid.Chain
	pipeline  *service.Pipeline
	conv      *intent.Conversation
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing storage failed", "error", err)
	}
}

func databasePath() (string, error) {
	if p := viper.GetString("database.path"); p != "" {
		return config.ExpandPath(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "khata", "khata.db"), nil
}

// loadClassifier loads the trained model if one is installed. A missing
// model is normal; everything degrades to heuristics.
func loadClassifier() classifier.Classifier {
	dir := viper.GetString("classifier.model_dir")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(home, ".config", "khata", "model")
	} else {
		dir = config.ExpandPath(dir)
	}

	clf, err := classifier.Load(dir)
	if errors.Is(err, common.ErrModelNotFound) {
		slog.Debug("no trained model installed, using heuristics only", "dir", dir)
		return nil
	}
	if err != nil {
		slog.Warn("trained model unusable, using heuristics only", "dir", dir, "error", err)
		return nil
	}
	slog.Debug("trained model loaded", "dir", dir, "labels", len(clf.Labels()))
	return clf
}

// buildApp opens storage and wires the full service graph.
func buildApp() (*app, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	learner := memory.NewLearner(store)
	clf := loadClassifier()
	suggester := hybrid.NewSuggester(learner, clf)
	chain := hybrid.DefaultChain(learner, clf)

	return &app{
		store:     store,
		learner:   learner,
		clf:       clf,
		suggester: suggester,
		chain:     chain,
		pipeline:  service.NewPipeline(store, learner, suggester),
		conv:      intent.NewConversation(store, learner, chain),
	}, nil
}

func currentUser() string {
	if u := viper.GetString("user"); u != "" {
		return u
	}
	return "default"
}
