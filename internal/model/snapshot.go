package model

// Insight is one dashboard tip.
type Insight struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Spending is the budget usage block of the dashboard.
type Spending struct {
	Total      float64 `json:"total"`
	Budget     float64 `json:"budget"`
	Percentage float64 `json:"percentage"`
}

// Remaining returns budget minus total, floored at zero.
func (s Spending) Remaining() float64 {
	if r := s.Budget - s.Total; r > 0 {
		return r
	}
	return 0
}

// Dashboard is the dashboard endpoint snapshot.
type Dashboard struct {
	User struct {
		Name   string `json:"name"`
		AuthID string `json:"auth_id"`
	} `json:"user"`
	Spending Spending  `json:"spending"`
	Insights []Insight `json:"ai_insights"`
}

// BillsSummary is the inner object of pending-bills. Message or Error is
// set instead of a total when there is nothing to list.
type BillsSummary struct {
	Bills       []Bill  `json:"bills"`
	TotalAmount float64 `json:"total_amount"`
	Count       int     `json:"count"`
	Message     string  `json:"message,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// AgentStatus reports the health of the server-side agents.
type AgentStatus struct {
	BudgetAgent  string `json:"budget_agent"`
	PaymentAgent string `json:"payment_agent"`
	NLPAgent     string `json:"nlp_agent"`
	Orchestrator string `json:"orchestrator"`
	PendingBills int    `json:"pending_bills"`
}

// BudgetInfo is the payment agent's view of available budget.
type BudgetInfo struct {
	Available           float64 `json:"available"`
	Budget              float64 `json:"budget"`
	Spent               float64 `json:"spent"`
	PercentageRemaining float64 `json:"percentage_remaining"`
	SafeToPay           bool    `json:"safe_to_pay"`
	Error               string  `json:"error,omitempty"`
}

// PaymentStatus is the payment-status endpoint snapshot.
type PaymentStatus struct {
	Agents AgentStatus `json:"agent_status"`
	Budget BudgetInfo  `json:"budget_info"`
}

// Check-payments actions.
const (
	ActionNoSurplus      = "no_surplus"
	ActionBillsProcessed = "bills_processed"
	ActionError          = "error"
)

// CheckResult is the outcome of a check-payments run.
type CheckResult struct {
	Action        string     `json:"action"`
	Message       string     `json:"message"`
	Budget        BudgetInfo `json:"budget_info"`
	PaymentResult FlexText   `json:"payment_result"`
}

// Summary returns the single line shown after a check.
func (r CheckResult) Summary() string {
	switch {
	case r.Message != "":
		return r.Message
	case r.PaymentResult != "":
		return string(r.PaymentResult)
	case r.Action == ActionBillsProcessed:
		return "Bills processed."
	default:
		return "Payment check complete."
	}
}

// BudgetCheck is the budget agent's analysis.
type BudgetCheck struct {
	Status    string   `json:"status"`
	Response  FlexText `json:"agent_response"`
	Timestamp string   `json:"timestamp"`
}

// ExpenseResult is the outcome of recording an expense.
type ExpenseResult struct {
	Success bool           `json:"success"`
	Expense map[string]any `json:"expense"`
	Alerts  FlexText       `json:"alerts"`
}
