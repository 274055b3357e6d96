package tui

import (
	"github.com/MKhiriev/go-record-sync/internal/cursor"
	"github.com/MKhiriev/go-record-sync/models"
)

type cursorOpenedMsg struct {
	cursor *cursor.Cursor
	err    error
}

type recordsLoadedMsg struct {
	records []models.Record
	done    bool
	err     error
}

type copiedMsg struct {
	id  string
	err error
}

type clearStatusMsg struct{}
