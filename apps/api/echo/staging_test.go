package echoapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core/enrollment"
	"github.com/trezcool/placement/tests"
)

func Test_stagingApi(t *testing.T) {
	app := setup(t)
	sec := testutil.CreateSection(t, app.repo, "1º Ano A", "1º Ano", enrollment.UnitMatriz, 30)
	testutil.CreateStudent(t, app.repo, "Zara", "1º Ano", "A", enrollment.UnitMatriz, sec.ID)
	caio := testutil.CreateStudent(t, app.repo, "Caio", "9º Ano", "C", enrollment.UnitMatriz)
	ana := testutil.CreateStudent(t, app.repo, "Ana", "1º Ano", "A", enrollment.UnitMatriz)
	bia := testutil.CreateStudent(t, app.repo, "Bia", "9º Ano", "C", enrollment.UnitMatriz)

	tests := []httpTest{
		{
			name:     "list",
			path:     "/v1/staging",
			wantData: marchallList(t, ana, bia, caio),
		},
		{
			name: "groups",
			path: "/v1/staging/groups",
			wantData: marchallList(t,
				enrollment.StagingGroup{Label: "1º Ano A", StudentIDs: []uuid.UUID{ana.ID}},
				enrollment.StagingGroup{Label: "9º Ano C", StudentIDs: []uuid.UUID{bia.ID, caio.ID}},
			),
		},
		{
			name:     "missing origins",
			path:     "/v1/staging/missing-origins",
			wantData: []byte(`{"missing_origins": ["9º Ano C"]}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			tt.wantCode = http.StatusOK
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}
}

func Test_stagingApi_selection(t *testing.T) {
	app := setup(t)
	ana := testutil.CreateStudent(t, app.repo, "Ana", "9º Ano", "C", enrollment.UnitMatriz)
	bia := testutil.CreateStudent(t, app.repo, "Bia", "9º Ano", "C", enrollment.UnitMatriz)

	toggle := func(body []byte) *httptest.ResponseRecorder {
		return app.do(t, httpTest{method: http.MethodPost, path: "/v1/selection/toggle", body: body})
	}

	rec := toggle(marchallObj(t, map[string]string{"student_id": bia.ID.String()}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	want := marchallObj(t, map[string]interface{}{"student_ids": enrollment.NewSelection(ana.ID, bia.ID).IDs()})
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: want}, rec)

	// toggling again deselects the group
	rec = toggle(marchallObj(t, map[string]string{"student_id": ana.ID.String()}))
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"student_ids": []}`)}, rec)

	rec = toggle([]byte(`{"student_id": "ana"}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"student_id": "must be a student id"}`),
	}, rec)

	// select then clear
	toggle(marchallObj(t, map[string]string{"student_id": ana.ID.String()}))
	rec = app.do(t, httpTest{method: http.MethodDelete, path: "/v1/selection"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/v1/selection",
		wantCode: http.StatusOK,
		wantData: []byte(`{"student_ids": []}`),
	}
	checkCodeAndData(t, tt, app.do(t, tt))
}
