package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core/enrollment"
	"github.com/trezcool/placement/tests"
)

func Test_sectionApi_create(t *testing.T) {
	app := setup(t)

	rec := app.do(t, httpTest{
		method: http.MethodPost,
		path:   "/v1/sections",
		body:   []byte(`{"name": " 6º Ano A ", "grade": "6º Ano", "unit": "Matriz", "capacity": {"matriz": 30, "anexo": 0}}`),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sec enrollment.Section
	unmarshal(t, rec, &sec)
	assert.Equal(t, "6º Ano A", sec.Name)
	assert.Equal(t, enrollment.UnitMatriz, sec.Unit)
	assert.Equal(t, 30, sec.Seats())
	assert.Empty(t, sec.Roster)
	assert.Equal(t, sec.Name, testutil.GetSection(t, app.repo, sec.ID).Name)
}

func Test_sectionApi_createInvalid(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"name": "this field is required",
				"grade": "this field is required",
				"unit": "this field is required",
				"capacity": "this field is required"
			}`),
		},
		{
			name:     "unknown unit",
			body:     []byte(`{"name": "7A", "grade": "7", "unit": "filial", "capacity": {"matriz": 30}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"unit": "unknown unit"}`),
		},
		{
			name:     "no seats in own unit",
			body:     []byte(`{"name": "7A", "grade": "7", "unit": "anexo", "capacity": {"matriz": 30}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"capacity": "capacity must give a positive number of seats for the section's unit"}`),
		},
		{
			name:     "malformed body",
			body:     []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/v1/sections"
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}

	secs, err := app.repo.QuerySections(ctx())
	require.NoError(t, err)
	assert.Empty(t, secs)
}

func Test_sectionApi_queryAndRetrieve(t *testing.T) {
	app := setup(t)
	b := testutil.CreateSection(t, app.repo, "7B", "7", enrollment.UnitMatriz, 30)
	a := testutil.CreateSection(t, app.repo, "7A", "7", enrollment.UnitAnexo, 20)

	tests := []httpTest{
		{
			name:     "default ordering",
			path:     "/v1/sections",
			wantCode: http.StatusOK,
			wantData: marchallList(t, a, b),
		},
		{
			name:     "ordering by unit desc",
			path:     "/v1/sections?ordering=-unit",
			wantCode: http.StatusOK,
			wantData: marchallList(t, b, a),
		},
		{
			name:     "retrieve",
			path:     "/v1/sections/" + a.ID.String(),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, a),
		},
		{
			name:     "unknown id",
			path:     "/v1/sections/" + uuid.NewString(),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "section not found"}),
		},
		{
			name:     "malformed id",
			path:     "/v1/sections/7A",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodGet
			checkCodeAndData(t, tt, app.do(t, tt))
		})
	}
}

func Test_sectionApi_update(t *testing.T) {
	app := setup(t)
	sec := testutil.CreateSection(t, app.repo, "7A", "7", enrollment.UnitMatriz, 3)
	enrolled := testutil.FillSection(t, app.repo, sec, 3)

	// lowering the capacity below the roster keeps every student
	rec := app.do(t, httpTest{
		method: http.MethodPut,
		path:   "/v1/sections/" + sec.ID.String(),
		body:   []byte(`{"room": "12", "capacity": {"matriz": 2}}`),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated enrollment.Section
	unmarshal(t, rec, &updated)
	assert.Equal(t, "7A", updated.Name)
	assert.Equal(t, "12", updated.Room)
	assert.Equal(t, 2, updated.Seats())
	assert.Len(t, updated.Roster, len(enrolled))
	assert.Equal(t, 0, updated.FreeSeats())
}

func Test_sectionApi_students(t *testing.T) {
	app := setup(t)
	sec := testutil.CreateSection(t, app.repo, "7A", "7", enrollment.UnitMatriz, 3)
	stu := testutil.CreateStudent(t, app.repo, "Ana", "7", "A", enrollment.UnitMatriz, sec.ID)
	testutil.CreateStudent(t, app.repo, "Bia", "7", "A", enrollment.UnitMatriz)

	tt := httpTest{
		method:   http.MethodGet,
		path:     "/v1/sections/" + sec.ID.String() + "/students",
		wantCode: http.StatusOK,
		wantData: marchallList(t, stu),
	}
	checkCodeAndData(t, tt, app.do(t, tt))
}
