package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sitin/internal/assistant"
	"github.com/fyrsmithlabs/sitin/internal/board"
	"github.com/fyrsmithlabs/sitin/internal/catalog"
	"github.com/fyrsmithlabs/sitin/internal/services"
)

var (
	boardLocalAsk bool
	boardNoAsk    bool
	boardInterval time.Duration
)

func init() {
	boardCmd.Flags().BoolVar(&boardLocalAsk, "local", false, "answer questions in-process instead of calling sitind")
	boardCmd.Flags().BoolVar(&boardNoAsk, "no-ask", false, "disable the ask prompt")
	boardCmd.Flags().DurationVar(&boardInterval, "interval", board.DefaultInterval, "how often live and upcoming lectures are recomputed")
	rootCmd.AddCommand(boardCmd)
}

// boardCmd runs the interactive lecture board
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Interactive lecture board",
	Long: `Interactive board of live, upcoming and catalog lectures with an ask prompt.

Keys: tab/1-4 switch tables, / search, b d t cycle building, day and time of
day filters, a asks the assistant, r reloads, q quits.`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func runBoard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	needs := services.Needs{Catalog: true}
	if boardLocalAsk && !boardNoAsk {
		needs.Assistant = true
	}
	s, err := openSession(ctx, needs)
	if err != nil {
		return err
	}
	defer s.Close()

	var ask assistant.Answerer
	switch {
	case boardNoAsk:
	case boardLocalAsk:
		ask = s.reg.Assistant()
	default:
		ask = assistant.NewClient(serverURL, 90*time.Second)
	}

	store := s.reg.Catalog()
	model := board.New(board.Config{
		Load:     storeLoader(store, s),
		Ask:      ask,
		Window:   s.cfg.Schedule.UpcomingWindow.Duration(),
		Interval: boardInterval,
	})

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	return nil
}

// storeLoader refreshes the store on every board reload.
func storeLoader(store *catalog.Store, s *session) board.Loader {
	return func(ctx context.Context) ([]catalog.ClassItem, error) {
		if err := store.Refresh(ctx); err != nil {
			s.logger.Error(ctx, "catalog refresh failed", zap.Error(err))
			return nil, err
		}
		return store.Items(), nil
	}
}
