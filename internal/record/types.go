package record

// FinancialWeek is one week of headline financials.
type FinancialWeek struct {
	Base
	TotalTradingIncome *float64
	TotalCostOfSales   *float64
	GrossProfit        *float64
	OtherIncome        *float64
	OperatingExpenses  *float64
	Wages              *float64
	NetProfit          *float64
}

func (r *FinancialWeek) Table() Table    { return Financial }
func (r *FinancialWeek) Key() NaturalKey { return r.key("") }
func (r *FinancialWeek) Values() Values {
	return Values{
		"total_trading_income": r.TotalTradingIncome,
		"total_cost_of_sales":  r.TotalCostOfSales,
		"gross_profit":         r.GrossProfit,
		"other_income":         r.OtherIncome,
		"operating_expenses":   r.OperatingExpenses,
		"wages":                r.Wages,
		"net_profit":           r.NetProfit,
	}
}

// ProjectWeek counts projects of one type.
type ProjectWeek struct {
	Base
	ProjectType string
	Count       *float64
	Value       *float64
}

func (r *ProjectWeek) Table() Table    { return Projects }
func (r *ProjectWeek) Key() NaturalKey { return r.key(r.ProjectType) }
func (r *ProjectWeek) Values() Values {
	return Values{"count": r.Count, "value": r.Value}
}

// SalesWeek counts sales of one type.
type SalesWeek struct {
	Base
	SalesType string
	Count     *float64
	Value     *float64
}

func (r *SalesWeek) Table() Table    { return Sales }
func (r *SalesWeek) Key() NaturalKey { return r.key(r.SalesType) }
func (r *SalesWeek) Values() Values {
	return Values{"count": r.Count, "value": r.Value}
}

// LeadWeek summarizes leads from one source.
type LeadWeek struct {
	Base
	LeadSource string
	Leads      *float64
	Qualified  *float64
	Converted  *float64
}

func (r *LeadWeek) Table() Table    { return Leads }
func (r *LeadWeek) Key() NaturalKey { return r.key(r.LeadSource) }
func (r *LeadWeek) Values() Values {
	return Values{"leads": r.Leads, "qualified": r.Qualified, "converted": r.Converted}
}

// ReviewWeek is the weekly review snapshot.
type ReviewWeek struct {
	Base
	AverageRating *float64
	TotalReviews  *float64
	NewReviews    *float64
}

func (r *ReviewWeek) Table() Table    { return GoogleReviews }
func (r *ReviewWeek) Key() NaturalKey { return r.key("") }
func (r *ReviewWeek) Values() Values {
	return Values{
		"average_rating": r.AverageRating,
		"total_reviews":  r.TotalReviews,
		"new_reviews":    r.NewReviews,
	}
}

// TeamWeek is one region's weekly performance.
type TeamWeek struct {
	Base
	Region        string
	JobsCompleted *float64
	Revenue       *float64
	Utilisation   *float64
}

func (r *TeamWeek) Table() Table    { return TeamPerformance }
func (r *TeamWeek) Key() NaturalKey { return r.key(r.Region) }
func (r *TeamWeek) Values() Values {
	return Values{
		"jobs_completed": r.JobsCompleted,
		"revenue":        r.Revenue,
		"utilisation":    r.Utilisation,
	}
}

// RevenueWeek is revenue for one category.
type RevenueWeek struct {
	Base
	Category string
	Amount   *float64
}

func (r *RevenueWeek) Table() Table    { return Revenue }
func (r *RevenueWeek) Key() NaturalKey { return r.key(r.Category) }
func (r *RevenueWeek) Values() Values  { return Values{"amount": r.Amount} }

// CashSnapshot is the cash position at the reference week.
type CashSnapshot struct {
	Base
	BankBalance *float64
	Receivables *float64
	Payables    *float64
	NetPosition *float64
}

func (r *CashSnapshot) Table() Table    { return CashPosition }
func (r *CashSnapshot) Key() NaturalKey { return r.key("") }
func (r *CashSnapshot) Values() Values {
	return Values{
		"bank_balance": r.BankBalance,
		"receivables":  r.Receivables,
		"payables":     r.Payables,
		"net_position": r.NetPosition,
	}
}

// ProductivityWeek is one staff member's weekly productivity.
type ProductivityWeek struct {
	Base
	StaffName     string
	HoursWorked   *float64
	BillableHours *float64
	JobsCompleted *float64
	Utilisation   *float64
}

func (r *ProductivityWeek) Table() Table    { return StaffProductivity }
func (r *ProductivityWeek) Key() NaturalKey { return r.key(r.StaffName) }
func (r *ProductivityWeek) Values() Values {
	return Values{
		"hours_worked":   r.HoursWorked,
		"billable_hours": r.BillableHours,
		"jobs_completed": r.JobsCompleted,
		"utilisation":    r.Utilisation,
	}
}

// PhoneWeek is one staff member's weekly call activity.
type PhoneWeek struct {
	Base
	StaffName        string
	Inbound          *float64
	Outbound         *float64
	Missed           *float64
	AvgHandleSeconds *float64
}

func (r *PhoneWeek) Table() Table    { return Phone }
func (r *PhoneWeek) Key() NaturalKey { return r.key(r.StaffName) }
func (r *PhoneWeek) Values() Values {
	return Values{
		"inbound":            r.Inbound,
		"outbound":           r.Outbound,
		"missed":             r.Missed,
		"avg_handle_seconds": r.AvgHandleSeconds,
	}
}

// MarketingWeek is one platform's weekly campaign spend and results.
type MarketingWeek struct {
	Base
	Platform    string
	Spend       *float64
	Impressions *float64
	Clicks      *float64
	Conversions *float64
}

func (r *MarketingWeek) Table() Table    { return Marketing }
func (r *MarketingWeek) Key() NaturalKey { return r.key(r.Platform) }
func (r *MarketingWeek) Values() Values {
	return Values{
		"spend":       r.Spend,
		"impressions": r.Impressions,
		"clicks":      r.Clicks,
		"conversions": r.Conversions,
	}
}

// DiscriminatorColumn returns the natural-key column that accompanies
// week_date for t, or "" when t is keyed by week alone.
func DiscriminatorColumn(t Table) string {
	switch t {
	case Projects:
		return "project_type"
	case Sales:
		return "sales_type"
	case Leads:
		return "lead_source"
	case TeamPerformance:
		return "region"
	case Revenue:
		return "category"
	case Marketing:
		return "platform"
	case StaffProductivity, Phone:
		return "staff_name"
	default:
		return ""
	}
}

// Columns returns the value columns of t in a stable order.
func Columns(t Table) []string {
	switch t {
	case Financial:
		return []string{"total_trading_income", "total_cost_of_sales", "gross_profit",
			"other_income", "operating_expenses", "wages", "net_profit"}
	case Projects, Sales:
		return []string{"count", "value"}
	case Leads:
		return []string{"leads", "qualified", "converted"}
	case GoogleReviews:
		return []string{"average_rating", "total_reviews", "new_reviews"}
	case TeamPerformance:
		return []string{"jobs_completed", "revenue", "utilisation"}
	case Revenue:
		return []string{"amount"}
	case CashPosition:
		return []string{"bank_balance", "receivables", "payables", "net_position"}
	case StaffProductivity:
		return []string{"hours_worked", "billable_hours", "jobs_completed", "utilisation"}
	case Phone:
		return []string{"inbound", "outbound", "missed", "avg_handle_seconds"}
	case Marketing:
		return []string{"spend", "impressions", "clicks", "conversions"}
	default:
		return nil
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
