package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"medialog/internal/formatter"
	"medialog/internal/models"
)

var _ list.Item = mediaItem{}

// mediaItem wraps [models.MediaRecord] to implement [list.Item].
type mediaItem struct {
	record models.MediaRecord
}

func (i mediaItem) FilterValue() string { return i.record.Title }
func (i mediaItem) Title() string       { return i.record.Title }
func (i mediaItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.record.Type, formatter.Stars(i.record.Rating))
	if i.record.Dirty {
		desc = fmt.Sprintf("%s • unsaved", desc)
	}
	return desc
}
