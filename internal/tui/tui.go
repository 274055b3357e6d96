package tui

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/service"
	"github.com/MKhiriev/go-record-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUserQuit = errors.New("user quit")

// TUI is the interactive record browser of the client.
type TUI struct {
	queries service.QueryService
	logger  *logger.Logger
}

func New(queries service.QueryService, log *logger.Logger) (*TUI, error) {
	if queries == nil {
		return nil, errors.New("tui: query service is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TUI{queries: queries, logger: log.WithComponent("tui")}, nil
}

// Browse opens a cursor over q and shows its records page by page until
// the user quits.
func (t *TUI) Browse(ctx context.Context, q models.Query) error {
	model := newBrowserModel(ctx, t.queries, q)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(browserModel)
	if !ok {
		return tea.ErrProgramKilled
	}
	t.logger.Debug().
		Str("query", q.String()).
		Int("loaded", len(result.records)).
		Msg("browser closed")
	return result.fatal
}
