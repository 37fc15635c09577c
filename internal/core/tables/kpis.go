package tables

import (
	"github.com/JonMunkholm/workbook-migrate/internal/core"
	"github.com/JonMunkholm/workbook-migrate/internal/record"
	"github.com/JonMunkholm/workbook-migrate/internal/schema"
)

func init() {
	core.Register(define(record.GoogleReviews, schema.KPIs.Name, "Google Reviews", "weekly_google_reviews"))
	core.Register(define(record.TeamPerformance, schema.KPIs.Name, "Team Performance", "weekly_team_performance"))
}
