package model

import (
	"sort"
	"time"
)

// Priority of a due item.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// dueSoonDays is the window in which an upcoming bill is medium priority.
const dueSoonDays = 3

// Bill is a pending item as reported by the pending-bills endpoint.
type Bill struct {
	ID        FlexID   `json:"id"`
	Name      string   `json:"name"`
	Amount    float64  `json:"amount"`
	DueDate   string   `json:"due_date"`
	Category  string   `json:"category"`
	Priority  Priority `json:"priority"`
	IsOverdue bool     `json:"is_overdue"`
	Autopay   bool     `json:"autopay"`
}

// Due parses the due date. ok is false for "N/A" or malformed dates.
func (b Bill) Due() (time.Time, bool) {
	t, err := time.Parse(DateLayout, b.DueDate)
	return t, err == nil
}

// Classify returns the server's priority when present, otherwise derives it.
func (b Bill) Classify(today time.Time) Priority {
	if b.Priority != "" {
		return b.Priority
	}
	due, ok := b.Due()
	if !ok {
		return PriorityLow
	}
	return ClassifyDue(due, today)
}

// Overdue returns the server flag, or derives it when the server
// sent no priority at all.
func (b Bill) Overdue(today time.Time) bool {
	if b.IsOverdue || b.Priority != "" {
		return b.IsOverdue
	}
	due, ok := b.Due()
	return ok && due.Before(truncateDay(today))
}

// ClassifyDue is the due-date rule: overdue is high, due within three
// days is medium, everything else low.
func ClassifyDue(due, today time.Time) Priority {
	d := truncateDay(due)
	t := truncateDay(today)
	switch {
	case d.Before(t):
		return PriorityHigh
	case !d.After(t.AddDate(0, 0, dueSoonDays)):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// SortBills orders overdue bills first, then by due date. Undated bills sort last.
func SortBills(bills []Bill, today time.Time) {
	sort.SliceStable(bills, func(i, j int) bool {
		oi, oj := bills[i].Overdue(today), bills[j].Overdue(today)
		if oi != oj {
			return oi
		}
		di, okI := bills[i].Due()
		dj, okJ := bills[j].Due()
		if okI != okJ {
			return okI
		}
		return di.Before(dj)
	})
}

// CountPriority counts bills classified as p.
func CountPriority(bills []Bill, p Priority, today time.Time) int {
	n := 0
	for _, b := range bills {
		if b.Classify(today) == p {
			n++
		}
	}
	return n
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
