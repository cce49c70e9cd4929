package domain

// Status is the lifecycle state of a deadline-bearing entity.
//
// Tasks use {TODO, IN_PROGRESS, COMPLETED, OVERDUE}; projects use
// {ACTIVE, ON_HOLD, IN_PROGRESS, COMPLETED, OVERDUE}. COMPLETED and
// OVERDUE are shared, which is what lets the reconciliation sweeps treat
// both kinds uniformly.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusOverdue    Status = "OVERDUE"
	StatusActive     Status = "ACTIVE"
	StatusOnHold     Status = "ON_HOLD"
)

var displayNames = map[Status]string{
	StatusTodo:       "Todo",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusOverdue:    "Overdue",
	StatusActive:     "Active",
	StatusOnHold:     "On Hold",
}

func (s Status) DisplayName() string {
	if n, ok := displayNames[s]; ok {
		return n
	}
	return string(s)
}

// ValidTaskStatuses is the canonical set of accepted task status codes.
var ValidTaskStatuses = map[Status]bool{
	StatusTodo: true, StatusInProgress: true, StatusCompleted: true, StatusOverdue: true,
}

// ValidProjectStatuses is the canonical set of accepted project status codes.
var ValidProjectStatuses = map[Status]bool{
	StatusActive: true, StatusOnHold: true, StatusInProgress: true,
	StatusCompleted: true, StatusOverdue: true,
}
