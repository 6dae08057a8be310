package notifications

const (
	TypeTimesheetSubmitted = "timesheet_submitted"
	TypeTimesheetApproved  = "timesheet_approved"
	TypeTimesheetRejected  = "timesheet_rejected"
	TypePendingReminder    = "timesheet_pending_reminder"
	TypeLeadReceived       = "lead_received"
)
