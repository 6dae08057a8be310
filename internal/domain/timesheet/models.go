package timesheet

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

const (
	RateHourly = "hourly"
	RateDaily  = "daily"
)

type Entry struct {
	ID          int64     `json:"id,omitempty"`
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	StartTime   string    `json:"startTime,omitempty"`
	EndTime     string    `json:"endTime,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
}

type Timesheet struct {
	ID              int64  `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ContractorEmail string `json:"contractorEmail"`
	Company         string `json:"company"`
	Department      string `json:"department"`
	JobTitle        string `json:"jobTitle"`

	PeriodType  string    `json:"periodType"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodText  string    `json:"periodText"`
	RateType    string    `json:"rateType"`

	WorkLocation    string `json:"workLocation"`
	WorkDescription string `json:"workDescription"`
	SupervisorName  string `json:"supervisorName"`

	TotalHours float64 `json:"totalHours"`
	TotalDays  int     `json:"totalDays"`

	ContractorSignature []byte    `json:"contractorSignature,omitempty"`
	SignedAt            time.Time `json:"signedAt"`

	Status string `json:"status"`

	SupervisorSignature []byte     `json:"supervisorSignature,omitempty"`
	ApproverName        string     `json:"approverName,omitempty"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`

	RejectionReason string     `json:"rejectionReason,omitempty"`
	RejectorName    string     `json:"rejectorName,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`

	Entries   []Entry   `json:"entries,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DayInput is one per-day row of a submission. Days of the period the
// contractor did not work arrive with zero hours (or not at all, in which
// case they are zero-filled).
type DayInput struct {
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
}

type SubmitInput struct {
	FirstName       string
	LastName        string
	ContractorEmail string
	Company         string
	Department      string
	JobTitle        string
	PeriodType      string
	PeriodStart     time.Time
	RateType        string
	WorkLocation    string
	WorkDescription string
	SupervisorName  string
	Days            []DayInput
	Signature       []byte
	SignedAt        time.Time
}

type ListFilter struct {
	Status          string
	ContractorEmail string
	Limit           int
	Offset          int
}
