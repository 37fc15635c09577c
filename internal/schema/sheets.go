package schema

import "github.com/JonMunkholm/workbook-migrate/internal/record"

var weekEnding = FieldSpec{
	Name:     "Week Ending",
	Aliases:  []string{"Week", "Week End", "Week Ending Date", "W/E"},
	Type:     FieldWeek,
	Required: true,
}

func key(name string, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Aliases: aliases, Type: FieldKey, Required: true}
}

func num(name, column string, r *Range, aliases ...string) FieldSpec {
	return FieldSpec{Name: name, Aliases: aliases, DBColumn: column, Type: FieldNumeric, Range: r}
}

// RevenuePrefix marks per-category revenue columns on the Financial sheet,
// e.g. "Revenue: Class 1A".
const RevenuePrefix = "Revenue"

// Financial holds one row per week plus any number of revenue columns.
var Financial = SheetSpec{
	Name:    "Financial",
	Aliases: []string{"Financials", "Weekly Financials"},
	Blocks: []BlockSpec{{
		Table: record.Financial,
		Fields: []FieldSpec{
			weekEnding,
			num("Total Trading Income", "total_trading_income", nil, "Trading Income", "Income"),
			num("Total Cost of Sales", "total_cost_of_sales", nil, "Cost of Sales"),
			num("Gross Profit", "gross_profit", nil),
			num("Other Income", "other_income", nil),
			num("Operating Expenses", "operating_expenses", nil, "Total Operating Expenses"),
			num("Wages", "wages", nil, "Wages and Salaries"),
			num("Net Profit", "net_profit", nil),
		},
	}},
}

// Sales holds the PROJECTS and SALES blocks.
var Sales = SheetSpec{
	Name: "Sales",
	Blocks: []BlockSpec{
		{
			Title: "PROJECTS",
			Table: record.Projects,
			Fields: []FieldSpec{
				weekEnding,
				key("Project Type", "Type"),
				num("Count", "count", NonNegative, "Projects"),
				num("Value", "value", NonNegative, "Project Value"),
			},
		},
		{
			Title: "SALES",
			Table: record.Sales,
			Fields: []FieldSpec{
				weekEnding,
				key("Sales Type", "Type"),
				num("Count", "count", NonNegative, "Sales"),
				num("Value", "value", NonNegative, "Sales Value"),
			},
		},
	},
}

// Marketing holds the LEADS and CAMPAIGNS blocks.
var Marketing = SheetSpec{
	Name: "Marketing",
	Blocks: []BlockSpec{
		{
			Title: "LEADS",
			Table: record.Leads,
			Fields: []FieldSpec{
				weekEnding,
				key("Source", "Lead Source"),
				num("Leads", "leads", NonNegative),
				num("Qualified", "qualified", NonNegative),
				num("Converted", "converted", NonNegative),
			},
		},
		{
			Title: "CAMPAIGNS",
			Table: record.Marketing,
			Fields: []FieldSpec{
				weekEnding,
				key("Platform", "Channel"),
				num("Spend", "spend", NonNegative, "Ad Spend"),
				num("Impressions", "impressions", NonNegative),
				num("Clicks", "clicks", NonNegative),
				num("Conversions", "conversions", NonNegative),
			},
		},
	},
}

// KPIs holds the REVIEWS and TEAM blocks.
var KPIs = SheetSpec{
	Name:    "KPIs",
	Aliases: []string{"KPI"},
	Blocks: []BlockSpec{
		{
			Title: "REVIEWS",
			Table: record.GoogleReviews,
			Fields: []FieldSpec{
				weekEnding,
				num("Average Rating", "average_rating", Rating, "Rating"),
				num("Total Reviews", "total_reviews", NonNegative),
				num("New Reviews", "new_reviews", NonNegative),
			},
		},
		{
			Title: "TEAM",
			Table: record.TeamPerformance,
			Fields: []FieldSpec{
				weekEnding,
				key("Region", "Team"),
				num("Jobs Completed", "jobs_completed", NonNegative, "Jobs"),
				num("Revenue", "revenue", nil),
				num("Utilisation %", "utilisation", Percent, "Utilisation", "Utilization %", "Utilization"),
			},
		},
	},
}

// Staff holds the PRODUCTIVITY and PHONE blocks.
var Staff = SheetSpec{
	Name: "Staff",
	Blocks: []BlockSpec{
		{
			Title: "PRODUCTIVITY",
			Table: record.StaffProductivity,
			Fields: []FieldSpec{
				weekEnding,
				key("Staff", "Staff Name", "Name"),
				num("Hours Worked", "hours_worked", NonNegative, "Hours"),
				num("Billable Hours", "billable_hours", NonNegative),
				num("Jobs Completed", "jobs_completed", NonNegative, "Jobs"),
			},
		},
		{
			Title: "PHONE",
			Table: record.Phone,
			Fields: []FieldSpec{
				weekEnding,
				key("Staff", "Staff Name", "Name"),
				num("Inbound Calls", "inbound", NonNegative, "Inbound"),
				num("Outbound Calls", "outbound", NonNegative, "Outbound"),
				num("Missed Calls", "missed", NonNegative, "Missed"),
				num("Avg Handle Time (s)", "avg_handle_seconds", NonNegative, "Avg Handle Time", "AHT"),
			},
		},
	},
}

// Cash position labels. The sheet is an Account/Balance list; these rows are
// read specially and every other row counts toward the bank balance.
const (
	CashAccountHeader = "Account"
	CashBalanceHeader = "Balance"
	CashAsAtLabel     = "As At"
)

var (
	CashReceivables = []string{"Receivables", "Accounts Receivable", "Debtors"}
	CashPayables    = []string{"Payables", "Accounts Payable", "Creditors"}
	CashIgnored     = []string{"Total", "Total Bank", "Net Position", "Net Cash"}
)

// CashPosition is a snapshot sheet without a week column.
var CashPosition = SheetSpec{
	Name:    "Cash Position",
	Aliases: []string{"Cash", "Cashflow", "Cash Flow"},
}

// Sheets lists every sheet layout in parse order.
var Sheets = []SheetSpec{Financial, Sales, Marketing, KPIs, Staff, CashPosition}
