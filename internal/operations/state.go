package operations

import (
	"fmt"
	"time"

	apperrors "b3data/internal/errors"
)

// OperationStatus is the overall status of a recipe run.
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// StepStatus represents the current status of a Step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a Step
type StepState struct {
	ID        string     `json:"id"`
	Action    string     `json:"action"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	// Rows is the length of the table the step produced, -1 if none.
	Rows  int   `json:"rows"`
	Error error `json:"error,omitempty"`
}

// NewStepState creates a new Step state with default values
func NewStepState(id, action string) *StepState {
	return &StepState{ID: id, Action: action, Status: StepStatusPending, Rows: -1}
}

// Start marks the Step as active and sets the start time
func (s *StepState) Start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the Step as completed and sets the end time
func (s *StepState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the Step as failed with the given error
func (s *StepState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks a Step that never ran because an earlier one failed.
func (s *StepState) Skip() {
	s.Status = StepStatusSkipped
}

// Duration returns how long the Step ran, zero if it did not finish.
func (s *StepState) Duration() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}

// OperationState carries the tables steps hand to each other and the state
// of every step of one recipe run.
type OperationState struct {
	ID        string          `json:"id"`
	Recipe    string          `json:"recipe"`
	Status    OperationStatus `json:"status"`
	StartTime time.Time       `json:"start_time"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Steps     []*StepState    `json:"steps"`
	// Outputs lists the files written, in order.
	Outputs []string `json:"outputs"`
	Error   error    `json:"error,omitempty"`

	tables map[string]any
	last   string
}

// NewOperationState creates a new operation state
func NewOperationState(id, recipe string) *OperationState {
	return &OperationState{
		ID:     id,
		Recipe: recipe,
		Status: OperationStatusPending,
		tables: make(map[string]any),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// SetTable stores the table produced by step id and makes it the input of
// the next step that names no source.
func (p *OperationState) SetTable(id string, table any) {
	p.tables[id] = table
	p.last = id
}

// Table returns the table produced by step ref, or by the previous step
// when ref is empty.
func (p *OperationState) Table(ref string) (any, error) {
	if ref == "" {
		ref = p.last
	}
	if ref == "" {
		return nil, apperrors.NewAppValidationError("no table has been loaded yet")
	}
	table, ok := p.tables[ref]
	if !ok {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("no table produced by step %q", ref))
	}
	return table, nil
}

// AddOutput records a written file.
func (p *OperationState) AddOutput(path string) {
	p.Outputs = append(p.Outputs, path)
}
