package stages

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklogz/source/database/memstore"
	"worklogz/source/pipeline"
	"worklogz/source/schemas"
)

type stagesBody struct {
	Message string          `json:"message"`
	Data    []schemas.Stage `json:"data"`
}

type stageBody struct {
	Message string        `json:"message"`
	Data    schemas.Stage `json:"data"`
}

func newHandler(t *testing.T) (*Handler, *pipeline.Service) {
	t.Helper()
	service := pipeline.NewService(memstore.New(), pipeline.DefaultCatalog(), nil, nil)
	return NewHandler(service), service
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestGetAllSeeds(t *testing.T) {
	handler, _ := newHandler(t)

	w := httptest.NewRecorder()
	handler.GetAll(w, httptest.NewRequest(http.MethodGet, "/v1/stages?pipeline_type=it-project", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[stagesBody](t, w)
	require.Len(t, body.Data, 8)
	assert.Equal(t, "Requirement Received", body.Data[0].Name)

	w = httptest.NewRecorder()
	handler.GetAll(w, httptest.NewRequest(http.MethodGet, "/v1/stages?pipeline_type=unknown", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOne(t *testing.T) {
	handler, _ := newHandler(t)

	create := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.CreateOne(w, httptest.NewRequest(http.MethodPost, "/v1/stages", strings.NewReader(body)))
		return w
	}

	w := create(`{"name": "Referral", "pipeline_type": "course", "color": "#123456"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[stageBody](t, w)
	assert.Equal(t, "Referral", created.Data.Name)
	assert.Equal(t, 0, created.Data.Order)

	w = create(`{"name": "Referral", "pipeline_type": "course"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode[stageBody](t, w).Message, "already exists")

	assert.Equal(t, http.StatusBadRequest, create(`{"name": ""}`).Code)
	assert.Equal(t, http.StatusBadRequest, create(`{not json`).Code)
}

func TestUpdateAndDelete(t *testing.T) {
	handler, service := newHandler(t)
	ctx := context.Background()
	seeded, err := service.EnsureDefaultStages(ctx, schemas.PIPELINE_TYPE_COURSE)
	require.NoError(t, err)
	_, err = service.CreateLead(ctx, schemas.LeadInput{FullName: "Lead", Phone: "1", Stage: seeded[1].ID.Hex()}, "u1")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPut, "/v1/stages/"+seeded[0].ID.Hex(), strings.NewReader(`{"description": "first touch"}`))
	r.SetPathValue("id", seeded[0].ID.Hex())
	w := httptest.NewRecorder()
	handler.UpdateOne(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "first touch", decode[stageBody](t, w).Data.Description)

	r = httptest.NewRequest(http.MethodDelete, "/v1/stages/"+seeded[1].ID.Hex(), nil)
	r.SetPathValue("id", seeded[1].ID.Hex())
	w = httptest.NewRecorder()
	handler.DeleteOne(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = httptest.NewRequest(http.MethodDelete, "/v1/stages/"+seeded[0].ID.Hex(), nil)
	r.SetPathValue("id", seeded[0].ID.Hex())
	w = httptest.NewRecorder()
	handler.DeleteOne(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	archived := decode[stageBody](t, w)
	assert.Equal(t, "Stage archived", archived.Message)
	assert.True(t, archived.Data.IsArchived)

	r = httptest.NewRequest(http.MethodDelete, "/v1/stages/65f000000000000000000000", nil)
	r.SetPathValue("id", "65f000000000000000000000")
	w = httptest.NewRecorder()
	handler.DeleteOne(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReorder(t *testing.T) {
	handler, service := newHandler(t)
	seeded, err := service.EnsureDefaultStages(context.Background(), schemas.PIPELINE_TYPE_INTERNSHIP)
	require.NoError(t, err)

	ids := []string{seeded[1].ID.Hex(), seeded[0].ID.Hex()}
	payload, err := json.Marshal(schemas.StageReorderInput{PipelineType: schemas.PIPELINE_TYPE_INTERNSHIP, StageOrder: ids})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.Reorder(w, httptest.NewRequest(http.MethodPost, "/v1/stages/reorder", strings.NewReader(string(payload))))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[stagesBody](t, w)
	assert.Equal(t, seeded[1].ID, body.Data[0].ID)
	assert.Equal(t, seeded[0].ID, body.Data[1].ID)

	w = httptest.NewRecorder()
	handler.Reorder(w, httptest.NewRequest(http.MethodPost, "/v1/stages/reorder", strings.NewReader(`{"pipeline_type": "internship", "stage_order": []}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
