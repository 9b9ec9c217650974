// Package leads maps painting-business requests onto spreadsheet rows: the
// tab schemas, request defaults, the Joblist mirror rows, and the operations
// the HTTP layer calls.
package leads

import "ap_business_tools/internal/sheets"

// DailyLaborRate is the dollar value of one labor day (8 hours at $70).
const DailyLaborRate = 560

const (
	timestampLayout = "2006-01-02T15:04:05.000000"
	dateLayout      = "01/02/2006"
	updatedLayout   = "01/02/2006 15:04:05"
)

// Joblist status labels written by the mirror rows.
const (
	StatusNeedEstimate = "Need Estimate"
	StatusEstimateSent = "Estimate Sent"
)

var (
	Inquiries = sheets.NewSchema("Customer Inquiries",
		"Timestamp", "Customer Name", "Phone", "Email", "Address",
		"Job Types", "Timeline", "Last Painted", "Previous Customer",
		"Notes", "Status",
	)

	Estimates = sheets.NewSchema("Detailed Estimates",
		"Date", "Customer Name", "Job Address", "Estimator", "Job Type",
		"Total Hours", "Labor Days", "Estimated Value",
		"Prep Condition", "Furniture Level", "Ladder Requirement",
		"Colors/Products", "Equipment Needed", "Notes",
	)

	Pipeline = sheets.NewSchema("Job Pipeline Master",
		"Date Added", "Customer Name", "Address", "Phone", "Job Type",
		"Estimated Days", "Estimated Value", "Status", "Scheduled Date",
		"Estimator", "Notes",
	)

	// Joblist is the cross-cutting tracking tab. The last three columns hold
	// spreadsheet formulas and are always written blank.
	Joblist = sheets.NewSchema("Joblist",
		"Address", "Int/Ext", "Status", "Priority", "Labor Days",
		"Action Needed", "Notes", "Start Date", "Completion Date", "Hood",
		"Customer Name", "Phone", "Email", "Date Added", "Last Updated",
		"Estimate Complete", "Estimator", "Est. Value",
		"Days Since Est. Sent", "Priority Sort", "Status Sort",
	)

	// AllTabs is every tab the service knows about, in setup order.
	AllTabs = []sheets.Schema{Inquiries, Estimates, Pipeline, Joblist}
)
