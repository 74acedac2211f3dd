// Package board is the client-side view-model of a pipeline board: stages
// as columns, leads as cards, filters, and optimistic drag-and-drop moves
// that roll back exactly when the API rejects them.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"worklogz/source/ordering"
)

const DEFAULT_SEARCH_DEBOUNCE = 300 * time.Millisecond

var ErrMoveInFlight = errors.New("another move is still in flight")

type Filters struct {
	Course string
	Source string
	Status string
	Search string
}

// Location is a drop target: a stage column and an index in it as rendered.
type Location struct {
	StageID string
	Index   int
}

// DropResult describes the end of a drag. Destination is nil when the card
// was dropped outside every column.
type DropResult struct {
	LeadID      string
	Source      Location
	Destination *Location
}

type Options struct {
	SearchDebounce   time.Duration
	RefetchAfterMove bool
}

type Board struct {
	api          API
	notifier     Notifier
	pipelineType string
	options      Options

	mu          sync.Mutex
	stages      []Stage
	leads       []Lead
	filters     Filters
	loading     bool
	loadErr     error
	moving      bool
	searchTimer *time.Timer
}

func New(api API, notifier Notifier, pipelineType string, options Options) *Board {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if options.SearchDebounce <= 0 {
		options.SearchDebounce = DEFAULT_SEARCH_DEBOUNCE
	}
	return &Board{
		api:          api,
		notifier:     notifier,
		pipelineType: pipelineType,
		options:      options,
	}
}

// Load fetches stages and leads. On failure the previous state is kept and
// the error stays available through LoadError until the next Load.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.loading = true
	b.mu.Unlock()

	stages, err := b.api.ListStages(ctx, b.pipelineType)
	if err == nil {
		var leads []Lead
		leads, err = b.api.ListLeads(ctx, b.pipelineType)
		if err == nil {
			b.mu.Lock()
			b.stages = stages
			b.leads = leads
			b.loadErr = nil
			b.loading = false
			b.mu.Unlock()
			return nil
		}
	}

	b.mu.Lock()
	b.loadErr = err
	b.loading = false
	b.mu.Unlock()
	b.notifier.Error(message(err, "Failed to load the pipeline"))
	return err
}

func (b *Board) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

func (b *Board) LoadError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadErr
}

func (b *Board) Moving() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moving
}

func (b *Board) Stages() []Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Stage(nil), b.stages...)
}

// Leads returns a copy of every loaded lead, unfiltered.
func (b *Board) Leads() []Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneLeads(b.leads)
}

func (b *Board) Filters() Filters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filters
}

// SetFilters applies the course, source and status filters immediately.
// The search text is left untouched; see SetSearch.
func (b *Board) SetFilters(course, source, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters.Course = course
	b.filters.Source = source
	b.filters.Status = status
}

// SetSearch applies the search text once no other call arrived for the
// debounce interval.
func (b *Board) SetSearch(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.searchTimer != nil {
		b.searchTimer.Stop()
	}
	b.searchTimer = time.AfterFunc(b.options.SearchDebounce, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.filters.Search = text
	})
}

// LeadsByStage groups the filtered leads by stage id. Every stage has an
// entry, and each column is in board order.
func (b *Board) LeadsByStage() map[string][]Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.columns(b.visible())
}

func (b *Board) visible() []Lead {
	out := []Lead{}
	for _, lead := range b.leads {
		if b.matches(lead) {
			out = append(out, lead.clone())
		}
	}
	return out
}

func (b *Board) matches(lead Lead) bool {
	f := b.filters
	if f.Course != "" && lead.Course != f.Course {
		return false
	}
	if f.Source != "" && lead.Source != f.Source {
		return false
	}
	if f.Status != "" && lead.Status != f.Status {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	for _, field := range []string{lead.FullName, lead.Phone, lead.Email, lead.LeadCode} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (b *Board) columns(leads []Lead) map[string][]Lead {
	byID := make(map[string]Lead, len(leads))
	entries := make([]ordering.Entry, 0, len(leads))
	for _, lead := range leads {
		byID[lead.ID] = lead
		entries = append(entries, lead.entry())
	}

	columns := make(map[string][]Lead, len(b.stages))
	for _, stage := range b.stages {
		columns[stage.ID] = []Lead{}
	}
	for stageID, column := range ordering.Group(entries) {
		for _, e := range column {
			columns[stageID] = append(columns[stageID], byID[e.ID])
		}
	}
	return columns
}

// DragEnd applies a drop optimistically and sends the move to the API. When
// the API rejects it the board returns to exactly the state it had before
// the drag. Only one move may be in flight.
func (b *Board) DragEnd(ctx context.Context, result DropResult) error {
	if result.Destination == nil {
		return nil
	}
	destination := *result.Destination
	if destination.StageID == result.Source.StageID && destination.Index == result.Source.Index {
		return nil
	}

	b.mu.Lock()
	if b.moving {
		b.mu.Unlock()
		return ErrMoveInFlight
	}

	snapshot := cloneLeads(b.leads)
	plan, err := b.plan(result.LeadID, destination)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.apply(plan)
	b.moving = true
	b.mu.Unlock()

	err = b.api.MoveLead(ctx, plan.LeadID, plan.Destination, plan.Index)

	b.mu.Lock()
	b.moving = false
	if err != nil {
		b.leads = snapshot
	}
	b.mu.Unlock()

	if err != nil {
		b.notifier.Error(message(err, "Failed to move lead"))
		return err
	}

	b.notifier.Success("Lead moved")
	if b.options.RefetchAfterMove {
		return b.Load(ctx)
	}
	return nil
}

// plan maps the rendered drop index to an index of the full destination
// column, so hidden leads keep their relative places, and plans the move.
func (b *Board) plan(leadID string, destination Location) (ordering.Plan, error) {
	entries := make([]ordering.Entry, 0, len(b.leads))
	for _, lead := range b.leads {
		entries = append(entries, lead.entry())
	}

	full := []ordering.Entry{}
	for _, e := range ordering.Column(entries, destination.StageID) {
		if e.ID != leadID {
			full = append(full, e)
		}
	}
	shown := []string{}
	for _, lead := range b.columns(b.visible())[destination.StageID] {
		if lead.ID != leadID {
			shown = append(shown, lead.ID)
		}
	}

	index := ordering.Clamp(destination.Index, len(full))
	if len(shown) < len(full) {
		index = len(full)
		if destination.Index < len(shown) {
			target := shown[ordering.Clamp(destination.Index, len(shown))]
			for i, e := range full {
				if e.ID == target {
					index = i
					break
				}
			}
		} else if len(shown) > 0 {
			last := shown[len(shown)-1]
			for i, e := range full {
				if e.ID == last {
					index = i + 1
					break
				}
			}
		}
	}

	plan, err := ordering.PlanMove(entries, leadID, destination.StageID, &index)
	if err != nil {
		return ordering.Plan{}, fmt.Errorf("plan move of %s: %w", leadID, err)
	}
	return plan, nil
}

func (b *Board) apply(plan ordering.Plan) {
	names := make(map[string]string, len(b.stages))
	for _, stage := range b.stages {
		names[stage.ID] = stage.Name
	}
	changes := make(map[string]ordering.Change, len(plan.Changes))
	for _, change := range plan.Changes {
		changes[change.ID] = change
	}

	for i, lead := range b.leads {
		change, ok := changes[lead.ID]
		if !ok {
			continue
		}
		position := change.Position
		b.leads[i].StagePosition = &position
		if lead.Stage.ID != change.StageID {
			b.leads[i].Stage = StageRef{ID: change.StageID, Name: names[change.StageID]}
		}
	}
}

func message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
