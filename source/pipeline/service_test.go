package pipeline_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"worklogz/source/database/memstore"
	"worklogz/source/pipeline"
	"worklogz/source/schemas"
)

type recorder struct {
	mu     sync.Mutex
	events []schemas.PipelineEvent
}

func (r *recorder) Emit(_ context.Context, event schemas.PipelineEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	store   *memstore.Store
	service *pipeline.Service
	events  *recorder

	clockMu sync.Mutex
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  memstore.New(),
		events: &recorder{},
		clock:  time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.service = pipeline.NewService(f.store, pipeline.DefaultCatalog(), nil, f.events)
	f.service.SetClock(func() time.Time {
		f.clockMu.Lock()
		defer f.clockMu.Unlock()
		f.clock = f.clock.Add(time.Second)
		return f.clock
	})
	return f
}

func (f *fixture) seed(t *testing.T, pipelineType string) []schemas.Stage {
	t.Helper()
	stages, err := f.service.EnsureDefaultStages(context.Background(), pipelineType)
	require.NoError(t, err)
	return stages
}

func (f *fixture) lead(t *testing.T, name string, stage schemas.Stage) *schemas.PopulatedLead {
	t.Helper()
	lead, err := f.service.CreateLead(context.Background(), schemas.LeadInput{
		FullName:     name,
		Phone:        "9000000000",
		PipelineType: stage.PipelineType,
		Stage:        stage.ID.Hex(),
	}, "u1")
	require.NoError(t, err)
	return lead
}

// column returns lead names of a stage in board order with their positions.
func (f *fixture) column(t *testing.T, stage schemas.Stage) ([]string, []int) {
	t.Helper()
	leads, err := f.service.ListLeads(context.Background(), schemas.LeadFilter{
		PipelineType: stage.PipelineType,
		Stage:        stage.ID.Hex(),
	})
	require.NoError(t, err)
	names := []string{}
	positions := []int{}
	for _, lead := range leads {
		names = append(names, lead.FullName)
		require.NotNil(t, lead.StagePosition, lead.FullName)
		positions = append(positions, *lead.StagePosition)
	}
	return names, positions
}

func ptr[T any](v T) *T { return &v }

func TestEnsureDefaultStagesSeedsCourse(t *testing.T) {
	f := newFixture(t)

	stages := f.seed(t, "")

	require.Len(t, stages, 12)
	for i, stage := range stages {
		assert.Equal(t, i, stage.Order)
		assert.True(t, stage.IsDefault)
		assert.Equal(t, schemas.PIPELINE_TYPE_COURSE, stage.PipelineType)
	}
	assert.Equal(t, "New Enquiry", stages[0].Name)
	assert.Equal(t, "Lost", stages[11].Name)

	again := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	assert.Equal(t, stages, again)
}

func TestEnsureDefaultStagesConcurrent(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.EnsureDefaultStages(context.Background(), schemas.PIPELINE_TYPE_INTERNSHIP)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stages, err := f.service.ListStages(context.Background(), schemas.PIPELINE_TYPE_INTERNSHIP)
	require.NoError(t, err)
	assert.Len(t, stages, 8)
}

func TestUnknownPipelineRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.EnsureDefaultStages(context.Background(), "marketing")
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestCreateStage(t *testing.T) {
	f := newFixture(t)
	f.seed(t, schemas.PIPELINE_TYPE_IT_PROJECT)
	ctx := context.Background()

	stage, err := f.service.CreateStage(ctx, schemas.StageInput{Name: "  On Hold ", PipelineType: schemas.PIPELINE_TYPE_IT_PROJECT})
	require.NoError(t, err)
	assert.Equal(t, "On Hold", stage.Name)
	assert.Equal(t, 8, stage.Order)
	assert.False(t, stage.IsDefault)

	_, err = f.service.CreateStage(ctx, schemas.StageInput{Name: "On Hold", PipelineType: schemas.PIPELINE_TYPE_IT_PROJECT})
	var pipelineErr *pipeline.Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, 409, pipelineErr.Status)

	_, err = f.service.CreateStage(ctx, schemas.StageInput{Name: "   "})
	assert.ErrorIs(t, err, pipeline.ErrValidation)

	assert.Contains(t, f.events.actions(), schemas.EVENT_STAGE_CREATED)
}

func TestUpdateStage(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	updated, err := f.service.UpdateStage(ctx, stages[0].ID.Hex(), schemas.StagePatch{
		Name:  ptr("Fresh Enquiry"),
		Color: ptr("#000000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fresh Enquiry", updated.Name)
	assert.Equal(t, "#000000", updated.Color)
	assert.Equal(t, 0, updated.Order)

	_, err = f.service.UpdateStage(ctx, stages[1].ID.Hex(), schemas.StagePatch{Name: ptr("Fresh Enquiry")})
	assert.ErrorIs(t, err, pipeline.ErrConflict)

	_, err = f.service.UpdateStage(ctx, "nope", schemas.StagePatch{})
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestDeleteStageArchivesDefaultAndRenumbers(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	ctx := context.Background()

	deleted, err := f.service.DeleteStage(ctx, stages[2].ID.Hex())
	require.NoError(t, err)
	assert.True(t, deleted.IsArchived)

	active, err := f.service.ListStages(ctx, schemas.PIPELINE_TYPE_INTERNSHIP)
	require.NoError(t, err)
	require.Len(t, active, 7)
	for i, stage := range active {
		assert.Equal(t, i, stage.Order)
		assert.NotEqual(t, stages[2].ID, stage.ID)
	}

	archived, err := f.store.GetStage(ctx, stages[2].ID)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	_, err = f.service.DeleteStage(ctx, stages[2].ID.Hex())
	assert.ErrorIs(t, err, pipeline.ErrNotFound)
}

func TestDeleteCustomStageRemovesIt(t *testing.T) {
	f := newFixture(t)
	f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	ctx := context.Background()

	stage, err := f.service.CreateStage(ctx, schemas.StageInput{Name: "Waitlist", PipelineType: schemas.PIPELINE_TYPE_INTERNSHIP})
	require.NoError(t, err)

	_, err = f.service.DeleteStage(ctx, stage.ID.Hex())
	require.NoError(t, err)

	_, err = f.store.GetStage(ctx, stage.ID)
	assert.ErrorIs(t, err, pipeline.ErrRecordNotFound)

	// the name is free again
	_, err = f.service.CreateStage(ctx, schemas.StageInput{Name: "Waitlist", PipelineType: schemas.PIPELINE_TYPE_INTERNSHIP})
	assert.NoError(t, err)
}

func TestDeleteStageWithLeadsIsRefused(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()
	f.lead(t, "Asha", stages[1])

	_, err := f.service.DeleteStage(ctx, stages[1].ID.Hex())
	var pipelineErr *pipeline.Error
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, 400, pipelineErr.Status)

	after, err := f.service.ListStages(ctx, schemas.PIPELINE_TYPE_COURSE)
	require.NoError(t, err)
	assert.Equal(t, stages, after)
}

func TestReorderStages(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	ctx := context.Background()

	order := []string{}
	for i := len(stages) - 1; i >= 0; i-- {
		order = append(order, stages[i].ID.Hex())
	}

	reordered, err := f.service.ReorderStages(ctx, schemas.PIPELINE_TYPE_INTERNSHIP, order)
	require.NoError(t, err)
	for i, stage := range reordered {
		assert.Equal(t, i, stage.Order)
		assert.Equal(t, order[i], stage.ID.Hex())
	}
}

func TestReorderStagesValidation(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	course := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	tests := []struct {
		name  string
		order []string
	}{
		{"empty", nil},
		{"malformed id", []string{"xyz"}},
		{"duplicate", []string{stages[0].ID.Hex(), stages[0].ID.Hex()}},
		{"foreign stage", []string{stages[0].ID.Hex(), course[0].ID.Hex()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.ReorderStages(ctx, schemas.PIPELINE_TYPE_INTERNSHIP, tt.order)
			assert.ErrorIs(t, err, pipeline.ErrValidation)
		})
	}

	after, err := f.service.ListStages(ctx, schemas.PIPELINE_TYPE_INTERNSHIP)
	require.NoError(t, err)
	assert.Equal(t, stages, after)
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	lead, err := f.service.CreateLead(ctx, schemas.LeadInput{
		FullName:      " Ravi ",
		Phone:         "98765",
		Email:         "Ravi@Example.com",
		AssignedUsers: []string{"u2", "u2", " "},
	}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "Ravi", lead.FullName)
	assert.Equal(t, "ravi@example.com", lead.Email)
	assert.Equal(t, "CC-001", lead.LeadCode)
	assert.Equal(t, stages[0].ID, lead.Lead.Stage)
	require.NotNil(t, lead.Stage)
	assert.Equal(t, "New Enquiry", lead.Stage.Name)
	assert.Equal(t, 0, *lead.StagePosition)
	assert.Equal(t, "u1", lead.LeadOwner.ID)
	assert.Equal(t, []string{"u2", "u1"}, lead.Lead.AssignedUsers)
	require.Len(t, lead.StageHistory, 1)
	assert.Equal(t, schemas.LEAD_CREATED_NOTE, lead.StageHistory[0].Note)

	second := f.lead(t, "Meera", stages[0])
	assert.Equal(t, "CC-002", second.LeadCode)
	assert.Equal(t, 1, *second.StagePosition)
}

func TestCreateLeadValidation(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	internship := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	ctx := context.Background()

	tests := []struct {
		name  string
		input schemas.LeadInput
		kind  error
	}{
		{"missing phone", schemas.LeadInput{FullName: "A"}, pipeline.ErrValidation},
		{"bad follow up", schemas.LeadInput{FullName: "A", Phone: "1", FollowUpDate: "tomorrow"}, pipeline.ErrValidation},
		{"stage of another pipeline", schemas.LeadInput{FullName: "A", Phone: "1", Stage: internship[0].ID.Hex()}, pipeline.ErrValidation},
		{"unknown stage", schemas.LeadInput{FullName: "A", Phone: "1", Stage: "65f000000000000000000000"}, pipeline.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateLead(ctx, tt.input, "u1")
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	_, err := f.service.CreateLead(ctx, schemas.LeadInput{FullName: "A", Phone: "1", PipelineType: schemas.PIPELINE_TYPE_IT_PROJECT}, "u1")
	assert.ErrorIs(t, err, pipeline.ErrValidation, "no stages seeded yet")

	count, err := f.store.CountStageLeads(ctx, stages[0].ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConcurrentCreateLeadKeepsCodesAndPositionsDense(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)

	const n = 20
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lead, err := f.service.CreateLead(context.Background(), schemas.LeadInput{
				FullName:     fmt.Sprintf("Intern %d", i),
				Phone:        "1",
				PipelineType: schemas.PIPELINE_TYPE_INTERNSHIP,
				Stage:        stages[0].ID.Hex(),
			}, "u1")
			if assert.NoError(t, err) {
				codes <- lead.LeadCode
			}
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for code := range codes {
		assert.False(t, seen[code], code)
		assert.Regexp(t, `^IC-`, code)
		seen[code] = true
	}
	assert.Len(t, seen, n)

	leads, err := f.store.ListStageLeads(context.Background(), stages[0].ID)
	require.NoError(t, err)
	positions := make([]int, 0, len(leads))
	for _, lead := range leads {
		require.NotNil(t, lead.StagePosition)
		positions = append(positions, *lead.StagePosition)
	}
	sort.Ints(positions)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, positions)
}

func TestGenerateLeadCodeFallsBackToTimestamp(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	first := f.lead(t, "First", stages[0])
	// Occupy CC-002..CC-006 so every numbered candidate is taken.
	for i := 2; i <= 6; i++ {
		lead, err := f.store.GetLead(ctx, first.ID)
		require.NoError(t, err)
		lead.ID = bson.NewObjectID()
		lead.LeadCode = fmt.Sprintf("CC-%03d", i)
		lead.PipelineType = "archive"
		require.NoError(t, f.store.InsertLead(ctx, lead))
	}

	code, err := f.service.GenerateLeadCode(ctx, schemas.PIPELINE_TYPE_COURSE)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CC-%d", f.clock.UnixMilli()), code)
}

func TestMoveLeadWithinStage(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	a := f.lead(t, "A", stages[0])
	f.lead(t, "B", stages[0])
	f.lead(t, "C", stages[0])

	moved, err := f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{
		StageID:  stages[0].ID.Hex(),
		Position: ptr(1),
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, *moved.StagePosition)

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"B", "A", "C"}, names)
	assert.Equal(t, []int{0, 1, 2}, positions)
}

func TestMoveLeadAcrossStages(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	a := f.lead(t, "A", stages[0])
	f.lead(t, "B", stages[0])
	f.lead(t, "X", stages[1])
	f.lead(t, "Y", stages[1])

	moved, err := f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{
		StageID:  stages[1].ID.Hex(),
		Position: ptr(1),
		Note:     "called back",
	}, "u2")
	require.NoError(t, err)
	assert.Equal(t, stages[1].ID, moved.Lead.Stage)
	assert.Equal(t, "called back", moved.StageHistory[len(moved.StageHistory)-1].Note)
	assert.Equal(t, "u2", moved.UpdatedBy)

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"B"}, names)
	assert.Equal(t, []int{0}, positions)

	names, positions = f.column(t, stages[1])
	assert.Equal(t, []string{"X", "A", "Y"}, names)
	assert.Equal(t, []int{0, 1, 2}, positions)

	assert.Contains(t, f.events.actions(), schemas.EVENT_LEAD_MOVED)
}

func TestMoveLeadClampsAndAppends(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	a := f.lead(t, "A", stages[0])
	b := f.lead(t, "B", stages[0])
	f.lead(t, "X", stages[1])

	_, err := f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{StageID: stages[1].ID.Hex(), Position: ptr(99)}, "u1")
	require.NoError(t, err)
	_, err = f.service.MoveLead(ctx, b.ID.Hex(), schemas.LeadMoveInput{StageID: stages[1].ID.Hex(), Position: ptr(-4)}, "u1")
	require.NoError(t, err)

	names, positions := f.column(t, stages[1])
	assert.Equal(t, []string{"B", "X", "A"}, names)
	assert.Equal(t, []int{0, 1, 2}, positions)

	moved, err := f.service.MoveLead(ctx, b.ID.Hex(), schemas.LeadMoveInput{StageID: stages[1].ID.Hex()}, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, *moved.StagePosition)
}

func TestMoveLeadErrors(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	internship := f.seed(t, schemas.PIPELINE_TYPE_INTERNSHIP)
	ctx := context.Background()
	a := f.lead(t, "A", stages[0])

	_, err := f.service.MoveLead(ctx, "65f000000000000000000000", schemas.LeadMoveInput{StageID: stages[1].ID.Hex()}, "u1")
	assert.ErrorIs(t, err, pipeline.ErrNotFound)

	_, err = f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{StageID: internship[0].ID.Hex()}, "u1")
	assert.ErrorIs(t, err, pipeline.ErrValidation)

	_, err = f.service.DeleteStage(ctx, stages[5].ID.Hex())
	require.NoError(t, err)
	_, err = f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{StageID: stages[5].ID.Hex()}, "u1")
	assert.ErrorIs(t, err, pipeline.ErrNotFound)

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"A"}, names)
	assert.Equal(t, []int{0}, positions)
}

func TestUpdateLeadStageChangeAppends(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	a := f.lead(t, "A", stages[0])
	f.lead(t, "B", stages[0])
	f.lead(t, "X", stages[1])

	updated, err := f.service.UpdateLead(ctx, a.ID.Hex(), schemas.LeadPatch{
		Stage:     ptr(stages[1].ID.Hex()),
		City:      ptr(" Pune "),
		LeadOwner: ptr("u9"),
	}, "u3")
	require.NoError(t, err)
	assert.Equal(t, "Pune", updated.City)
	assert.Equal(t, 1, *updated.StagePosition)
	assert.Equal(t, "Stage changed to Contacted", updated.StageHistory[len(updated.StageHistory)-1].Note)
	assert.Contains(t, updated.Lead.AssignedUsers, "u9")

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"B"}, names)
	assert.Equal(t, []int{0}, positions)

	names, positions = f.column(t, stages[1])
	assert.Equal(t, []string{"X", "A"}, names)
	assert.Equal(t, []int{0, 1}, positions)

	_, err = f.service.UpdateLead(ctx, a.ID.Hex(), schemas.LeadPatch{Phone: ptr("  ")}, "u3")
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestDeleteLeadRenumbers(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	f.lead(t, "A", stages[0])
	b := f.lead(t, "B", stages[0])
	f.lead(t, "C", stages[0])

	require.NoError(t, f.service.DeleteLead(ctx, b.ID.Hex()))

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"A", "C"}, names)
	assert.Equal(t, []int{0, 1}, positions)

	assert.ErrorIs(t, f.service.DeleteLead(ctx, b.ID.Hex()), pipeline.ErrNotFound)
}

func TestListLeadsFilters(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	_, err := f.service.CreateLead(ctx, schemas.LeadInput{FullName: "Kiran Rao", Phone: "111", Course: "Go", Source: "web", Stage: stages[2].ID.Hex()}, "u1")
	require.NoError(t, err)
	_, err = f.service.CreateLead(ctx, schemas.LeadInput{FullName: "Latha", Phone: "222", Course: "Rust", Source: "ads"}, "u1")
	require.NoError(t, err)

	leads, err := f.service.ListLeads(ctx, schemas.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Latha", leads[0].FullName, "earlier stage first")

	leads, err = f.service.ListLeads(ctx, schemas.LeadFilter{Search: "KIRAN"})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	leads, err = f.service.ListLeads(ctx, schemas.LeadFilter{Course: "Rust", Source: "ads"})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Latha", leads[0].FullName)

	_, err = f.service.ListLeads(ctx, schemas.LeadFilter{Stage: "bad"})
	assert.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestNormalizeStagePositionsRepairsGaps(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()

	a := f.lead(t, "A", stages[0])
	b := f.lead(t, "B", stages[0])
	require.NoError(t, f.store.SetLeadPosition(ctx, a.ID, 7))
	require.NoError(t, f.store.SetLeadPosition(ctx, b.ID, 3))

	require.NoError(t, f.service.NormalizeStagePositions(ctx, stages[0].ID.Hex()))

	names, positions := f.column(t, stages[0])
	assert.Equal(t, []string{"B", "A"}, names)
	assert.Equal(t, []int{0, 1}, positions)
}

type directory map[string]schemas.User

func (d directory) Lookup(_ context.Context, ids []string) (map[string]schemas.User, error) {
	out := map[string]schemas.User{}
	for _, id := range ids {
		if u, ok := d[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func TestPopulateUsesDirectory(t *testing.T) {
	store := memstore.New()
	service := pipeline.NewService(store, nil, directory{"u1": {ID: "u1", Name: "Anil"}}, nil)
	ctx := context.Background()
	_, err := service.EnsureDefaultStages(ctx, "")
	require.NoError(t, err)

	lead, err := service.CreateLead(ctx, schemas.LeadInput{FullName: "A", Phone: "1", AssignedUsers: []string{"ghost"}}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "Anil", lead.LeadOwner.Name)
	assert.Equal(t, "Anil", lead.CreatedBy.Name)
	require.Len(t, lead.AssignedUsers, 2)
	assert.Equal(t, schemas.User{ID: "ghost"}, lead.AssignedUsers[0])
}

func TestMoveScenarios(t *testing.T) {
	f := newFixture(t)
	stages := f.seed(t, schemas.PIPELINE_TYPE_COURSE)
	ctx := context.Background()
	s0, s1 := stages[0], stages[1]

	a := f.lead(t, "A", s0)
	assert.Equal(t, 0, *a.StagePosition)
	b := f.lead(t, "B", s0)
	assert.Equal(t, 1, *b.StagePosition)

	_, err := f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{StageID: s0.ID.Hex(), Position: ptr(1)}, "u1")
	require.NoError(t, err)
	names, positions := f.column(t, s0)
	assert.Equal(t, []string{"B", "A"}, names)
	assert.Equal(t, []int{0, 1}, positions)

	f.lead(t, "C", s1)
	_, err = f.service.MoveLead(ctx, a.ID.Hex(), schemas.LeadMoveInput{StageID: s1.ID.Hex(), Position: ptr(0)}, "u1")
	require.NoError(t, err)

	names, positions = f.column(t, s0)
	assert.Equal(t, []string{"B"}, names)
	assert.Equal(t, []int{0}, positions)
	names, positions = f.column(t, s1)
	assert.Equal(t, []string{"A", "C"}, names)
	assert.Equal(t, []int{0, 1}, positions)
}
