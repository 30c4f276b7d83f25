package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/neuralmail/internal/app"
	"github.com/nhle/neuralmail/internal/bridge"
	"github.com/nhle/neuralmail/internal/di"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default "+model.DefaultConfigPath()+")")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "neuralmail: %v\n", err)
		os.Exit(1)
	}
}

// run starts the TUI and tears down background work once it exits.
func run(
	logger *zap.Logger,
	root app.Model,
	relay *bridge.Relay,
	b *bridge.Bridge,
	sess *bridge.Session,
	s store.Store,
) error {
	defer logger.Sync()

	prog := tea.NewProgram(root, tea.WithAltScreen())
	relay.Attach(prog)

	logger.Info("starting neuralmail", zap.String("session", sess.ID()))
	_, runErr := prog.Run()

	// Results arriving after this point are dropped.
	sess.Close()
	b.Wait()

	if err := s.Close(); err != nil {
		logger.Error("closing store", zap.Error(err))
	}
	logger.Info("shutdown complete")

	if runErr != nil {
		return fmt.Errorf("running program: %w", runErr)
	}
	return nil
}
