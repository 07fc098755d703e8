package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
	"github.com/arnavshah/staff-scheduler-go/pkg/orchestrator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter() *gin.Engine {
	h := &Handler{
		Orchestrator: orchestrator.New(orchestrator.Config{}),
		Logger:       zap.NewNop(),
	}

	r := gin.New()
	r.POST("/api/schedule", h.ScheduleJSON)
	r.POST("/api/schedule/csv", h.ScheduleCSV)
	r.POST("/api/validate", h.ValidateInput)
	return r
}

func requestBody() models.ScheduleRequest {
	start := time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	return models.ScheduleRequest{
		Date:    "2026-09-14",
		Country: "US",
		Tasks: []models.Task{
			{TaskID: 1, Category: 1, CustomerCapacity: 4, CapacityPerStaff: 4, Start: start, End: start.Add(4 * time.Hour)},
		},
		Employees: []models.Employee{
			{EmployeeID: 1, Name: "A"},
			{EmployeeID: 2, Name: "B"},
		},
	}
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScheduleJSONSuccess(t *testing.T) {
	w := postJSON(t, testRouter(), "/api/schedule", requestBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Schedule.Assignments)
	assert.NotEmpty(t, resp.Schedule.Metadata.RunID)
}

func TestScheduleJSONInvalidInput(t *testing.T) {
	body := requestBody()
	body.Tasks = nil

	w := postJSON(t, testRouter(), "/api/schedule", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least one task")
}

func TestScheduleJSONUnknownCountry(t *testing.T) {
	body := requestBody()
	body.Country = "XX"

	w := postJSON(t, testRouter(), "/api/schedule", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown jurisdiction")
}

func TestScheduleJSONMalformedBody(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/schedule", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInputEndpoint(t *testing.T) {
	w := postJSON(t, testRouter(), "/api/validate", requestBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Valid bool `json:"valid"`
		Stats struct {
			TaskCount     int `json:"task_count"`
			EmployeeCount int `json:"employee_count"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, 1, resp.Stats.TaskCount)
	assert.Equal(t, 2, resp.Stats.EmployeeCount)
}

func TestValidateInputFlagsProblems(t *testing.T) {
	body := requestBody()
	body.Employees = nil

	w := postJSON(t, testRouter(), "/api/validate", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestScheduleCSVUpload(t *testing.T) {
	tasksCSV := "task_id,category,customer_capacity,required_capacity_per_staff,required_certifications,start,end\n" +
		"1,1,4,4,,2026-09-14T09:00:00Z,2026-09-14T13:00:00Z\n"
	employeesCSV := "employee_id,name,preferences,certifications,denied_requests_60_days\n" +
		"1,Alice,1,,0\n2,Bob,1,,0\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	tf, err := mw.CreateFormFile("tasks_file", "tasks.csv")
	require.NoError(t, err)
	tf.Write([]byte(tasksCSV))
	ef, err := mw.CreateFormFile("employees_file", "employees.csv")
	require.NoError(t, err)
	ef.Write([]byte(employeesCSV))
	require.NoError(t, mw.WriteField("date", "2026-09-14"))
	require.NoError(t, mw.WriteField("country", "US"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Schedule.Assignments)
}

func TestScheduleCSVMissingFiles(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("date", "2026-09-14"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}

func TestScheduleCSVMissingColumn(t *testing.T) {
	// tasks header omits start/end; the upload must be rejected instead
	// of reading some unrelated column in their place
	tasksCSV := "task_id,category,customer_capacity,required_capacity_per_staff,required_certifications\n" +
		"1,1,4,4,\n"
	employeesCSV := "employee_id,name,preferences,certifications\n" +
		"1,Alice,1,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	tf, err := mw.CreateFormFile("tasks_file", "tasks.csv")
	require.NoError(t, err)
	tf.Write([]byte(tasksCSV))
	ef, err := mw.CreateFormFile("employees_file", "employees.csv")
	require.NoError(t, err)
	ef.Write([]byte(employeesCSV))
	require.NoError(t, mw.WriteField("date", "2026-09-14"))
	require.NoError(t, mw.WriteField("country", "US"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/schedule/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing required columns")
	assert.Contains(t, w.Body.String(), "start")
}

func TestParseIntList(t *testing.T) {
	assert.Equal(t, []int{1, 2, 5}, parseIntList("1|2|5"))
	assert.Equal(t, []int{7}, parseIntList(" 7 "))
	assert.Nil(t, parseIntList(""))
	assert.Equal(t, []int{3}, parseIntList("3|x|"))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, 9, 14, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, want, parseTimestamp("2026-09-14T09:30:00Z"))
	assert.Equal(t, want, parseTimestamp("2026-09-14T09:30"))
	assert.True(t, parseTimestamp("garbage").IsZero())
}
