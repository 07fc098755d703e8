package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

// ScheduleCSV handles CSV file uploads for scheduling. Expects
// tasks_file and employees_file form files plus date and country form
// fields.
func (h *Handler) ScheduleCSV(c *gin.Context) {
	tasksFile, _ := c.FormFile("tasks_file")
	employeesFile, _ := c.FormFile("employees_file")

	if tasksFile == nil || employeesFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tasks_file and employees_file are required"})
		return
	}

	tasks, err := parseTasksCSV(tasksFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tasks_file: " + err.Error()})
		return
	}

	employees, err := parseEmployeesCSV(employeesFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employees_file: " + err.Error()})
		return
	}

	country := c.PostForm("country")
	if country == "" {
		country = "US"
	}
	date := c.PostForm("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	h.runSchedule(c, models.ScheduleRequest{
		Tasks:     tasks,
		Employees: employees,
		Date:      date,
		Country:   country,
	})
}

func parseTasksCSV(fh *multipart.FileHeader) ([]models.Task, error) {
	rows, cols, err := readCSV(fh)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(cols, "task_id", "category", "customer_capacity",
		"required_capacity_per_staff", "required_certifications", "start", "end"); err != nil {
		return nil, err
	}

	var tasks []models.Task
	for _, record := range rows {
		id, err := strconv.Atoi(record[cols["task_id"]])
		if err != nil {
			continue
		}
		category, _ := strconv.Atoi(record[cols["category"]])
		capacity, _ := strconv.Atoi(record[cols["customer_capacity"]])
		perStaff, _ := strconv.Atoi(record[cols["required_capacity_per_staff"]])

		tasks = append(tasks, models.Task{
			TaskID:           id,
			Category:         category,
			CustomerCapacity: capacity,
			CapacityPerStaff: perStaff,
			RequiredCerts:    parseIntList(record[cols["required_certifications"]]),
			Start:            parseTimestamp(record[cols["start"]]),
			End:              parseTimestamp(record[cols["end"]]),
		})
	}
	return tasks, nil
}

func parseEmployeesCSV(fh *multipart.FileHeader) ([]models.Employee, error) {
	rows, cols, err := readCSV(fh)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(cols, "employee_id", "name", "preferences", "certifications"); err != nil {
		return nil, err
	}

	intCol := func(record []string, name string) int {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return 0
		}
		n, _ := strconv.Atoi(record[idx])
		return n
	}

	var employees []models.Employee
	for _, record := range rows {
		id, err := strconv.Atoi(record[cols["employee_id"]])
		if err != nil {
			continue
		}
		employees = append(employees, models.Employee{
			EmployeeID:            id,
			Name:                  record[cols["name"]],
			Preferences:           parseIntList(record[cols["preferences"]]),
			Certifications:        parseIntList(record[cols["certifications"]]),
			PreviousVacations60d:  intCol(record, "previous_vacations_60_days"),
			ApprovedRequests60d:   intCol(record, "approved_requests_60_days"),
			DeniedRequests60d:     intCol(record, "denied_requests_60_days"),
			VacationDaysRemaining: intCol(record, "vacation_days_remaining"),
			WorkedNights:          intCol(record, "worked_nights"),
			WorkedWeekends:        intCol(record, "worked_weekends"),
			WorkedHolidays:        intCol(record, "worked_holidays"),
		})
	}
	return employees, nil
}

// requireColumns rejects uploads whose header is missing required
// columns, so rows never silently misparse against column 0
func requireColumns(cols map[string]int, names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// readCSV opens the upload and returns data rows plus a header index
func readCSV(fh *multipart.FileHeader) ([][]string, map[string]int, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, record)
	}
	return rows, cols, nil
}

// parseIntList splits pipe-separated ints, e.g. "1|2|5"
func parseIntList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// parseTimestamp accepts the two formats the old CSV templates used
func parseTimestamp(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err == nil {
		return t
	}
	t, _ = time.Parse("2006-01-02T15:04", s)
	return t
}
