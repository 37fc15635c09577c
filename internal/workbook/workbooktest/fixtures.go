package workbooktest

// FinancialHeader is the header row of the Financial sheet with one revenue column.
var FinancialHeader = []any{
	"Week Ending", "Total Trading Income", "Total Cost of Sales", "Gross Profit",
	"Other Income", "Operating Expenses", "Wages", "Net Profit", "Revenue: Class 1A",
}

// HappyPath returns a workbook with one financial week (2025-01-25) and one
// revenue amount for class_1a. Every other sheet is absent.
func HappyPath() *Builder {
	return New().Sheet("Financial",
		FinancialHeader,
		[]any{"2025-01-25", 310523.45, 120400.10, 190123.35, 1500, 80210.5, 65000, 111412.85, 95420.00},
	)
}

// Full returns a workbook that exercises all six sheets across two weeks.
// It yields 19 records and no warnings.
func Full() *Builder {
	return New().
		Sheet("Financial",
			[]any{"Weekly Financial Summary"},
			nil,
			[]any{"Week Ending", "Total Trading Income", "Total Cost of Sales", "Gross Profit",
				"Other Income", "Operating Expenses", "Wages", "Net Profit",
				"Revenue: Class 1A", "Revenue: Residential"},
			[]any{"2025-01-18", "$300,000.00", "120,000", "180,000", "0", "75,000", "60,000", "105,000", "90000", "20000"},
			[]any{"2025-01-25", 310523.45, 120400.10, 190123.35, 1500, 80210.5, 65000, 111412.85, 95420.00, ""},
		).
		Sheet("Sales",
			[]any{"PROJECTS"},
			[]any{"Week Ending", "Project Type", "Count", "Value"},
			[]any{"2025-01-25", "Install", 4, 42000},
			[]any{"2025-01-25", "Service", 12, "$8,400"},
			nil,
			[]any{"SALES"},
			[]any{"Week Ending", "Sales Type", "Count", "Value"},
			[]any{"2025-01-25", "New", 3, 15000},
		).
		Sheet("Marketing",
			[]any{"LEADS"},
			[]any{"Week Ending", "Source", "Leads", "Qualified", "Converted"},
			[]any{"2025-01-25", "Website", 40, 22, 9},
			nil,
			[]any{"CAMPAIGNS"},
			[]any{"Week Ending", "Platform", "Spend", "Impressions", "Clicks", "Conversions"},
			[]any{"2025-01-25", "Google Ads", 1250.5, 48000, 1320, 31},
			[]any{"2025-01-25", "Meta", 800, 51000, 900, 12},
		).
		Sheet("KPIs",
			[]any{"REVIEWS"},
			[]any{"Week Ending", "Average Rating", "Total Reviews", "New Reviews"},
			[]any{"2025-01-25", 4.8, 412, 6},
			nil,
			[]any{"TEAM"},
			[]any{"Week Ending", "Region", "Jobs Completed", "Revenue", "Utilisation %"},
			[]any{"2025-01-25", "North", 51, 88000, "82%"},
			[]any{"2025-01-25", "South", 38, 61000, "74%"},
		).
		Sheet("Staff",
			[]any{"PRODUCTIVITY"},
			[]any{"Week Ending", "Staff", "Hours Worked", "Billable Hours", "Jobs Completed"},
			[]any{"2025-01-25", "Alex Chen", 40, 34, 11},
			[]any{"2025-01-25", "Sam Patel", 38, 30, 9},
			nil,
			[]any{"PHONE"},
			[]any{"Week Ending", "Staff", "Inbound Calls", "Outbound Calls", "Missed Calls", "Avg Handle Time (s)"},
			[]any{"2025-01-25", "Alex Chen", 55, 20, 2, 185},
			[]any{"2025-01-25", "Sam Patel", 61, 14, 4, 202},
		).
		Sheet("Cash Position",
			[]any{"Cash Position"},
			nil,
			[]any{"Account", "Balance"},
			[]any{"Operating Account", "$152,300.00"},
			[]any{"Savings Account", 50000},
			[]any{"Receivables", 64000},
			[]any{"Payables", "(23,500)"},
		)
}
