package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/arnavshah/staff-scheduler-go/internal/oracle"
	"github.com/arnavshah/staff-scheduler-go/pkg/models"
)

const oracleSystemPrompt = `You are an expert staff scheduler. Assign employees to tasks fairly while respecting all constraints.

Rules:
- A task with category 0 is VACATION: full-day and exclusive. An employee on vacation cannot work any other task that date.
- An employee can hold only one task at a time when time slots overlap.
- Only assign employees who hold ALL required certifications for a task.
- Each task needs the stated number of staff, or as many as possible when insufficient.
- Prefer employees with higher fairness scores; they have been under-served.
- Employees prefer task categories in the order of their preference list.

Output ONLY a valid JSON array of assignments like:
[
  {"task_id": 12, "employee_id": 65223, "confidence": 0.9}
]
Reason step by step first if needed, but end with the JSON.`

// promptEntryCap bounds the serialized context so a pathological request
// cannot blow past the oracle's input limits
const promptEntryCap = 200

// defaultOracleConfidence is used when the oracle omits the field
const defaultOracleConfidence = 0.9

// OracleSource asks the external reasoning service for a proposal and
// validates its output against a strict schema, dropping entries that
// reference unknown tasks or employees rather than rejecting the whole
// response.
type OracleSource struct {
	client oracle.Client
}

// NewOracleSource wraps an oracle client
func NewOracleSource(client oracle.Client) *OracleSource {
	return &OracleSource{client: client}
}

// Name implements ProposalSource
func (o *OracleSource) Name() string { return "oracle" }

// Propose implements ProposalSource. Transport failures surface as
// oracle.ErrUnavailable; a response whose entries are all invalid is
// escalated the same way so the caller falls back.
func (o *OracleSource) Propose(ctx context.Context, in Input) ([]models.Assignment, error) {
	raw, err := o.client.Complete(ctx, oracleSystemPrompt, buildPrompt(in))
	if err != nil {
		return nil, err
	}

	assignments, dropped := parseProposal(raw, in)
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: proposal contained no valid entries (%d dropped)", oracle.ErrUnavailable, dropped)
	}
	return assignments, nil
}

// buildPrompt serializes the scheduling context. Entry counts are
// capped; the oracle sees at most promptEntryCap tasks and employees.
func buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("Tasks:\n")
	for i, t := range in.Tasks {
		if i >= promptEntryCap {
			fmt.Fprintf(&b, "- ... %d more tasks omitted\n", len(in.Tasks)-i)
			break
		}
		fmt.Fprintf(&b, "- ID %d, Category %d, Time %s to %s, Needed staff: %d, Certs: %v\n",
			t.TaskID, t.Category, t.Start.Format("15:04"), t.End.Format("15:04"), t.NeededStaff(), t.RequiredCerts)
	}

	b.WriteString("\nEmployees:\n")
	for i, e := range in.Employees {
		if i >= promptEntryCap {
			fmt.Fprintf(&b, "- ... %d more employees omitted\n", len(in.Employees)-i)
			break
		}
		fmt.Fprintf(&b, "- ID %d, %s, Preferences: %v, Certs: %v, Fairness score: %.2f\n",
			e.EmployeeID, e.Name, e.Preferences, e.Certifications, in.Fairness[e.EmployeeID].Score)
	}

	if len(in.Exclude) > 0 {
		b.WriteString("\nForbidden pairs (assigning these is a violation):\n")
		for _, taskID := range sortedKeys(in.Exclude) {
			for _, empID := range sortedIntKeys(in.Exclude[taskID]) {
				fmt.Fprintf(&b, "- task %d / employee %d\n", taskID, empID)
			}
		}
	}

	if in.Hint != "" {
		fmt.Fprintf(&b, "\nContext from previous attempt: %s\n", in.Hint)
	}

	b.WriteString("\nProvide the JSON only.")
	return b.String()
}

// proposalEntry is the strict per-entry schema expected in the oracle's
// response. Rationale is tolerated and discarded.
type proposalEntry struct {
	TaskID     int     `json:"task_id"`
	EmployeeID int     `json:"employee_id"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// parseProposal extracts the structured portion of a free-form oracle
// response and validates each entry, returning the usable assignments
// and the number of dropped entries
func parseProposal(raw string, in Input) ([]models.Assignment, int) {
	payload := extractJSON(raw)

	var entries []proposalEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		// some responses wrap the array in an object
		var wrapped struct {
			Assignments []proposalEntry `json:"assignments"`
		}
		if err := json.Unmarshal([]byte(payload), &wrapped); err != nil {
			return nil, 0
		}
		entries = wrapped.Assignments
	}

	taskIDs := make(map[int]bool, len(in.Tasks))
	for _, t := range in.Tasks {
		taskIDs[t.TaskID] = true
	}
	empIDs := make(map[int]bool, len(in.Employees))
	for _, e := range in.Employees {
		empIDs[e.EmployeeID] = true
	}

	var out []models.Assignment
	seen := make(map[[2]int]bool)
	dropped := 0
	for _, entry := range entries {
		if !taskIDs[entry.TaskID] || !empIDs[entry.EmployeeID] {
			dropped++
			continue
		}
		if in.Excluded(entry.TaskID, entry.EmployeeID) {
			dropped++
			continue
		}
		key := [2]int{entry.TaskID, entry.EmployeeID}
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true

		conf := entry.Confidence
		if conf <= 0 || conf > 1 {
			conf = defaultOracleConfidence
		}
		out = append(out, models.Assignment{
			TaskID:     entry.TaskID,
			EmployeeID: entry.EmployeeID,
			Confidence: conf,
		})
	}
	return out, dropped
}

// extractJSON pulls the JSON payload out of a response that may wrap it
// in markdown fences or surround it with prose
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndex(text, "]")
	} else {
		end = strings.LastIndex(text, "}")
	}
	if end <= start {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[start : end+1])
}

func sortedKeys(m map[int]map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedIntKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
