// Package ordering holds the column ordering rules shared by the pipeline
// service and the board view-model: how leads sort inside a stage, how a
// column is renumbered and how a drag-and-drop move is planned.
package ordering

import (
	"errors"
	"slices"
	"time"
)

var ErrUnknownEntry = errors.New("ordering: entry not found")

// Entry is the ordering-relevant projection of a lead.
type Entry struct {
	ID        string
	StageID   string
	Position  Position
	UpdatedAt time.Time
	CreatedAt time.Time
}

// Change is a lead whose stage or position must be rewritten.
type Change struct {
	ID       string
	StageID  string
	Position int
}

// Compare orders by position ascending with pending positions last, then by
// most recently updated, then by most recently created.
func Compare(a, b Entry) int {
	if a.Position.fixed != b.Position.fixed {
		if a.Position.fixed {
			return -1
		}
		return 1
	}
	if a.Position.fixed && a.Position.value != b.Position.value {
		if a.Position.value < b.Position.value {
			return -1
		}
		return 1
	}
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func Sort(entries []Entry) {
	slices.SortStableFunc(entries, Compare)
}

// Column returns the sorted entries of one stage.
func Column(entries []Entry, stageID string) []Entry {
	column := []Entry{}
	for _, e := range entries {
		if e.StageID == stageID {
			column = append(column, e)
		}
	}
	Sort(column)
	return column
}

// Group splits entries by stage and sorts every column.
func Group(entries []Entry) map[string][]Entry {
	columns := make(map[string][]Entry)
	for _, e := range entries {
		columns[e.StageID] = append(columns[e.StageID], e)
	}
	for _, column := range columns {
		Sort(column)
	}
	return columns
}

// Clamp bounds an insertion index to [0, n].
func Clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index > n {
		return n
	}
	return index
}

// Renumber assigns dense positions 0..n-1 in slice order and reports the
// entries whose stored position did not already match.
func Renumber(column []Entry) []Change {
	changes := []Change{}
	for i := range column {
		if v, ok := column[i].Position.Value(); ok && v == i {
			continue
		}
		column[i].Position = Fixed(i)
		changes = append(changes, Change{ID: column[i].ID, StageID: column[i].StageID, Position: i})
	}
	return changes
}

// Insert removes moving from column if present and splices it back at the
// clamped index. A nil index appends.
func Insert(column []Entry, moving Entry, index *int) ([]Entry, int) {
	remaining := make([]Entry, 0, len(column)+1)
	for _, e := range column {
		if e.ID != moving.ID {
			remaining = append(remaining, e)
		}
	}

	at := len(remaining)
	if index != nil {
		at = Clamp(*index, len(remaining))
	}

	return slices.Insert(remaining, at, moving), at
}

// Plan describes the result of a move: the final index of the moved entry
// and every entry whose stage or position differs from before.
type Plan struct {
	LeadID      string
	Source      string
	Destination string
	Index       int
	Changes     []Change
}

// PlanMove computes a move of leadID into toStage at index (nil appends).
// Only the source and destination columns are renumbered.
func PlanMove(entries []Entry, leadID, toStage string, index *int) (Plan, error) {
	var moving Entry
	found := false
	before := make(map[string]Entry, len(entries))
	for _, e := range entries {
		before[e.ID] = e
		if e.ID == leadID {
			moving = e
			found = true
		}
	}
	if !found {
		return Plan{}, ErrUnknownEntry
	}

	plan := Plan{LeadID: leadID, Source: moving.StageID, Destination: toStage}

	columns := [][]Entry{}
	if moving.StageID != toStage {
		source := Column(entries, moving.StageID)
		source, _ = remove(source, leadID)
		columns = append(columns, source)
	}

	moving.StageID = toStage
	moving.Position = Pending()
	destination, at := Insert(Column(entries, toStage), moving, index)
	plan.Index = at
	columns = append(columns, destination)

	for _, column := range columns {
		for i, e := range column {
			old := before[e.ID]
			if v, ok := old.Position.Value(); ok && v == i && old.StageID == e.StageID {
				continue
			}
			plan.Changes = append(plan.Changes, Change{ID: e.ID, StageID: e.StageID, Position: i})
		}
	}

	return plan, nil
}

func remove(column []Entry, id string) ([]Entry, bool) {
	for i, e := range column {
		if e.ID == id {
			return slices.Delete(column, i, i+1), true
		}
	}
	return column, false
}
