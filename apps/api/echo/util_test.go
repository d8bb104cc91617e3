package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core/enrollment"
	"github.com/trezcool/placement/storage/database/inmem"
	"github.com/trezcool/placement/tests"
)

type testApp struct {
	srv    *Server
	repo   enrollment.Repository
	logger *testutil.Logger
}

func setup(t *testing.T) testApp {
	t.Helper()
	return setupWithRepo(t, inmemdb.NewEnrollmentRepository(inmemdb.Open()))
}

func setupWithRepo(t *testing.T, repo enrollment.Repository) testApp {
	t.Helper()

	validate, translator := testutil.NewTranslatedValidator()
	logger := testutil.NewLogger()
	conf := testutil.NewConfig()
	conf.Debug = false

	srv := NewServer(conf, &ServerDeps{
		Service:    enrollment.NewService(repo, validate, logger, conf),
		Selections: NewSelectionStore(conf.Selection.TTL),
		Translator: translator,
		Logger:     logger,
	})
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{srv: srv, repo: repo, logger: logger}
}

func ctx() context.Context { return context.Background() }

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	operator string
	wantCode int
	wantData []byte
}

func newOperatorRequest(method, path, operator string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if operator != "" {
		req.Header.Set("X-Operator-ID", operator)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newOperatorRequest(method, path, "", data...)
}

func (app testApp) do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newOperatorRequest(tt.method, tt.path, tt.operator, tt.body)
	app.srv.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
