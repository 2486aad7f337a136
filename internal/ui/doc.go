// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing and editing the media library:
//  1. [LibraryView] : Browse records with type filter, title search, and sorting
//  2. [AddView] : Enter a title and pick a type for a new record
//  3. [EditView] : Rename or retype the selected record
//  4. [ConfirmDeleteView] : Confirm removal of the selected record
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Store operations run inside [tea.Cmd] functions so persistence never blocks the
// event loop; failed saves surface as a warning in the status line while the
// optimistic in-memory state stays visible.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with rating
// entry on the number keys and contextual help via charmbracelet/bubbles/help.
package ui
