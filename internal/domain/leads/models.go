package leads

import "time"

// Kind identifies which public enquiry form produced a lead.
type Kind string

const (
	KindContact      Kind = "contact"
	KindRecruitment  Kind = "recruitment"
	KindPayroll      Kind = "payroll"
	KindManpower     Kind = "manpower"
	KindImmigration  Kind = "immigration"
	KindConsultation Kind = "consultation"
	KindAudit        Kind = "audit"
)

var allKinds = map[Kind]bool{
	KindContact:      true,
	KindRecruitment:  true,
	KindPayroll:      true,
	KindManpower:     true,
	KindImmigration:  true,
	KindConsultation: true,
	KindAudit:        true,
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, allKinds[k]
}

// Submission is the common shape of every enquiry form. Kind-specific
// fields travel in Detail and are checked against requiredDetail.
type Submission struct {
	Name    string            `json:"name" validate:"required,max=120"`
	Email   string            `json:"email" validate:"required,email,max=254"`
	Phone   string            `json:"phone" validate:"omitempty,max=40"`
	Company string            `json:"company" validate:"omitempty,max=160"`
	Message string            `json:"message" validate:"omitempty,max=4000"`
	Detail  map[string]string `json:"detail"`
}

// requiredDetail lists the extra fields each form collects beyond the
// common identity block.
var requiredDetail = map[Kind][]string{
	KindRecruitment:  {"position"},
	KindPayroll:      {"employeeCount"},
	KindManpower:     {"headcount", "trade"},
	KindImmigration:  {"nationality", "visaType"},
	KindConsultation: {"service"},
	KindAudit:        {"auditScope"},
}

// Lead is a persisted enquiry.
type Lead struct {
	ID        int64             `json:"id"`
	Kind      Kind              `json:"kind"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone,omitempty"`
	Company   string            `json:"company,omitempty"`
	Message   string            `json:"message,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
