package anonymizer

// DataPackage is the business-data bundle sent for external analysis.
// Every string field is one of: an identity (person, project or company
// name), an opaque id, free text, or a measurement. See walkFields for the
// authoritative classification.
type DataPackage struct {
	Company      Company             `json:"company"`
	Period       Period              `json:"period"`
	Team         []TeamMember        `json:"team,omitempty"`
	Workload     []WorkloadMetric    `json:"workload,omitempty"`
	Vacations    []Vacation          `json:"vacations,omitempty"`
	Projects     []ProjectSummary    `json:"projects,omitempty"`
	Productivity []ProductivityEntry `json:"productivity,omitempty"`
	Contracts    []Contract          `json:"contracts,omitempty"`
}

// Company identifies the tenant the data belongs to.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Period is the reporting window, as ISO dates.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TeamMember is one employee on the team roster.
type TeamMember struct {
	UserID              string  `json:"userId"`
	Name                string  `json:"name"`
	Role                string  `json:"role,omitempty"`
	WeeklyCapacityHours float64 `json:"weeklyCapacityHours"`
}

// WorkloadMetric aggregates logged time for one employee over the period.
type WorkloadMetric struct {
	UserID         string  `json:"userId"`
	UserName       string  `json:"userName"`
	TotalHours     float64 `json:"totalHours"`
	BillableHours  float64 `json:"billableHours"`
	OvertimeHours  float64 `json:"overtimeHours"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// Vacation is one absence interval.
type Vacation struct {
	UserID    string  `json:"userId"`
	UserName  string  `json:"userName"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Days      float64 `json:"days"`
	Kind      string  `json:"kind,omitempty"`
}

// ProjectSummary describes one project and who worked on it.
type ProjectSummary struct {
	ProjectID    string               `json:"projectId"`
	ProjectName  string               `json:"projectName"`
	Description  string               `json:"description,omitempty"`
	Status       string               `json:"status,omitempty"`
	BudgetHours  float64              `json:"budgetHours"`
	LoggedHours  float64              `json:"loggedHours"`
	Contributors []ProjectContributor `json:"contributors,omitempty"`
}

// ProjectContributor is one employee's share of a project.
type ProjectContributor struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Hours    float64 `json:"hours"`
}

// ProductivityEntry is one day of logged time.
type ProductivityEntry struct {
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	Date        string  `json:"date"`
	ProjectID   string  `json:"projectId,omitempty"`
	ProjectName string  `json:"projectName,omitempty"`
	Hours       float64 `json:"hours"`
	Billable    bool    `json:"billable"`
}

// Contract is a customer agreement attached to a project.
type Contract struct {
	ContractID       string  `json:"contractId"`
	ProjectID        string  `json:"projectId,omitempty"`
	ProjectName      string  `json:"projectName,omitempty"`
	Title            string  `json:"title,omitempty"`
	ScopeDescription string  `json:"scopeDescription,omitempty"`
	Budget           float64 `json:"budget"`
	Currency         string  `json:"currency,omitempty"`
	StartDate        string  `json:"startDate,omitempty"`
	EndDate          string  `json:"endDate,omitempty"`
	HoursUsed        float64 `json:"hoursUsed"`
}
