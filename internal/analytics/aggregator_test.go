package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/leadflow-crm/api/internal/store"
)

func fact(status, source string, value float64, createdAt time.Time) store.LeadFact {
	return store.LeadFact{
		Status:     status,
		SourceName: source,
		AssigneeID: uuid.Nil,
		Value:      value,
		CreatedAt:  createdAt,
	}
}

func TestComputeEmptyScope(t *testing.T) {
	report := Compute(nil, "user", false)

	assert.Equal(t, Funnel{}, report.ConversionFunnel)
	assert.Empty(t, report.SourceAnalysis)
	assert.Empty(t, report.MonthlyTrends)
	assert.Empty(t, report.UserPerformance)
	assert.Equal(t, ValueStats{}, report.ValueStats)
	assert.Equal(t, 0, report.TotalLeads)
	assert.Equal(t, "user", report.Role)
}

func TestComputeFunnelZeroFillsBuckets(t *testing.T) {
	now := time.Now()
	report := Compute([]store.LeadFact{
		fact(store.StatusNew, "Website", 0, now),
		fact(store.StatusNew, "Website", 0, now),
		fact(store.StatusConverted, "Website", 0, now),
	}, "admin", true)

	assert.Equal(t, Funnel{New: 2, Converted: 1}, report.ConversionFunnel)
	assert.Equal(t, 3, report.TotalLeads)
}

func TestComputeSourceAnalysisSortedByLeadsDesc(t *testing.T) {
	now := time.Now()
	report := Compute([]store.LeadFact{
		fact(store.StatusNew, "Referral", 0, now),
		fact(store.StatusConverted, "Website", 0, now),
		fact(store.StatusNew, "Website", 0, now),
		fact(store.StatusLost, "Website", 0, now),
		fact(store.StatusConverted, "Referral", 0, now),
	}, "admin", true)

	assert.Len(t, report.SourceAnalysis, 2)
	assert.Equal(t, "Website", report.SourceAnalysis[0].Name)
	assert.Equal(t, 3, report.SourceAnalysis[0].Leads)
	assert.Equal(t, 1, report.SourceAnalysis[0].Converted)
	assert.InDelta(t, 100.0/3, report.SourceAnalysis[0].Rate, 0.0001)
	assert.Equal(t, "Referral", report.SourceAnalysis[1].Name)
	assert.InDelta(t, 50.0, report.SourceAnalysis[1].Rate, 0.0001)
}

func TestComputeMonthlyTrendsKeepsMostRecentTwelve(t *testing.T) {
	facts := []store.LeadFact{}
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		facts = append(facts, fact(store.StatusNew, "Website", 0, start.AddDate(0, i, 0)))
	}

	report := Compute(facts, "admin", true)

	assert.Len(t, report.MonthlyTrends, 12)
	// Jan, Feb, Mar 2024 fall off the front; Apr 2024 through Mar 2025 stay.
	assert.Equal(t, "Apr", report.MonthlyTrends[0].Month)
	assert.Equal(t, "Mar", report.MonthlyTrends[11].Month)
}

func TestComputeMonthlyTrendsOrderedAscending(t *testing.T) {
	report := Compute([]store.LeadFact{
		fact(store.StatusConverted, "Website", 0, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)),
		fact(store.StatusNew, "Website", 0, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
		fact(store.StatusNew, "Website", 0, time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)),
	}, "user", false)

	assert.Equal(t, []MonthlyTrend{
		{Month: "Jan", Leads: 2, Converted: 0},
		{Month: "Mar", Leads: 1, Converted: 1},
	}, report.MonthlyTrends)
}

func TestComputeUserPerformanceAdminOnly(t *testing.T) {
	now := time.Now()
	alice := uuid.New()
	bob := uuid.New()
	facts := []store.LeadFact{
		{Status: store.StatusConverted, SourceName: "Website", AssigneeID: alice, AssigneeName: "Alice", CreatedAt: now},
		{Status: store.StatusNew, SourceName: "Website", AssigneeID: alice, AssigneeName: "Alice", CreatedAt: now},
		{Status: store.StatusNew, SourceName: "Website", AssigneeID: alice, AssigneeName: "Alice", CreatedAt: now},
		{Status: store.StatusNew, SourceName: "Website", AssigneeID: bob, AssigneeName: "Bob", CreatedAt: now},
	}

	admin := Compute(facts, "admin", true)
	assert.Len(t, admin.UserPerformance, 2)
	assert.Equal(t, "Alice", admin.UserPerformance[0].Name)
	assert.Equal(t, 3, admin.UserPerformance[0].Leads)
	assert.Equal(t, 33.3, admin.UserPerformance[0].Rate)
	assert.Equal(t, "Bob", admin.UserPerformance[1].Name)
	assert.Equal(t, 0.0, admin.UserPerformance[1].Rate)

	user := Compute(facts, "user", false)
	assert.Empty(t, user.UserPerformance)
}

func TestComputeValueStats(t *testing.T) {
	now := time.Now()
	report := Compute([]store.LeadFact{
		fact(store.StatusConverted, "Website", 1000, now),
		fact(store.StatusNew, "Website", 500, now),
		fact(store.StatusLost, "Website", 300, now),
	}, "admin", true)

	assert.Equal(t, 1800.0, report.ValueStats.TotalValue)
	assert.Equal(t, 1000.0, report.ValueStats.ConvertedValue)
	assert.Equal(t, 600.0, report.ValueStats.AvgLeadValue)
}
