package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/docask/docask-cli/internal/adapters/driving/tui"
)

var interactiveStore string

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Launch an interactive query session",
	Long: `Launch an interactive terminal session for querying a store.

Type a question and press Enter to get a grounded answer with
citations; the session keeps a scrollback of previous answers.

Controls:
  Enter    - Submit query
  Ctrl+L   - Clear scrollback
  Esc, q   - Quit (q only when the input is empty)`,
	RunE: runInteractive,
}

func init() {
	interactiveCmd.Flags().StringVarP(&interactiveStore, "store", "s", "", "store to query (default from config)")
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	// Panic recovery keeps the terminal usable and shows the trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in interactive session: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	store := interactiveStore
	if store == "" {
		store = defaultStoreName
	}

	app := tui.NewApp(queryService, store)
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive session error: %w", err)
	}
	return nil
}
