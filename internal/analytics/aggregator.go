// Package analytics computes the reporting payload from flattened lead
// rows. The store hands in rows already filtered to the caller's scope, so
// everything here is a pure in-memory aggregation.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/leadflow-crm/api/internal/store"
)

type Funnel struct {
	New        int `json:"new"`
	Contacted  int `json:"contacted"`
	InProgress int `json:"inProgress"`
	Converted  int `json:"converted"`
	Lost       int `json:"lost"`
	FollowUp   int `json:"followUp"`
}

type SourceStat struct {
	Name      string  `json:"name"`
	Leads     int     `json:"leads"`
	Converted int     `json:"converted"`
	Rate      float64 `json:"rate"`
}

type MonthlyTrend struct {
	Month     string `json:"month"`
	Leads     int    `json:"leads"`
	Converted int    `json:"converted"`
}

type UserStat struct {
	Name      string  `json:"name"`
	Leads     int     `json:"leads"`
	Converted int     `json:"converted"`
	Rate      float64 `json:"rate"`
}

type ValueStats struct {
	TotalValue     float64 `json:"totalValue"`
	ConvertedValue float64 `json:"convertedValue"`
	AvgLeadValue   float64 `json:"avgLeadValue"`
}

type Report struct {
	ConversionFunnel Funnel         `json:"conversionFunnel"`
	SourceAnalysis   []SourceStat   `json:"sourceAnalysis"`
	MonthlyTrends    []MonthlyTrend `json:"monthlyTrends"`
	UserPerformance  []UserStat     `json:"userPerformance"`
	ValueStats       ValueStats     `json:"valueStats"`
	TotalLeads       int            `json:"totalLeads"`
	Role             string         `json:"role"`
}

const monthlyTrendCap = 12

// Compute aggregates the scoped facts into the report. includeUsers is set
// for admin callers only; everyone else gets an empty userPerformance list.
func Compute(facts []store.LeadFact, role string, includeUsers bool) Report {
	report := Report{
		SourceAnalysis:  []SourceStat{},
		MonthlyTrends:   []MonthlyTrend{},
		UserPerformance: []UserStat{},
		TotalLeads:      len(facts),
		Role:            role,
	}

	sources := map[string]*SourceStat{}
	sourceOrder := []string{}
	type monthKey struct {
		year  int
		month time.Month
	}
	months := map[monthKey]*MonthlyTrend{}
	monthKeys := []monthKey{}
	users := map[string]*UserStat{}
	userOrder := []string{}

	for _, f := range facts {
		converted := f.Status == store.StatusConverted

		switch f.Status {
		case store.StatusNew:
			report.ConversionFunnel.New++
		case store.StatusContacted:
			report.ConversionFunnel.Contacted++
		case store.StatusInProgress:
			report.ConversionFunnel.InProgress++
		case store.StatusConverted:
			report.ConversionFunnel.Converted++
		case store.StatusLost:
			report.ConversionFunnel.Lost++
		case store.StatusFollowUp:
			report.ConversionFunnel.FollowUp++
		}

		src, ok := sources[f.SourceName]
		if !ok {
			src = &SourceStat{Name: f.SourceName}
			sources[f.SourceName] = src
			sourceOrder = append(sourceOrder, f.SourceName)
		}
		src.Leads++
		if converted {
			src.Converted++
		}

		mk := monthKey{year: f.CreatedAt.Year(), month: f.CreatedAt.Month()}
		trend, ok := months[mk]
		if !ok {
			trend = &MonthlyTrend{Month: mk.month.String()[:3]}
			months[mk] = trend
			monthKeys = append(monthKeys, mk)
		}
		trend.Leads++
		if converted {
			trend.Converted++
		}

		if includeUsers {
			uid := f.AssigneeID.String()
			u, ok := users[uid]
			if !ok {
				u = &UserStat{Name: f.AssigneeName}
				users[uid] = u
				userOrder = append(userOrder, uid)
			}
			u.Leads++
			if converted {
				u.Converted++
			}
		}

		report.ValueStats.TotalValue += f.Value
		if converted {
			report.ValueStats.ConvertedValue += f.Value
		}
	}

	if len(facts) > 0 {
		report.ValueStats.AvgLeadValue = report.ValueStats.TotalValue / float64(len(facts))
	}

	for _, name := range sourceOrder {
		s := *sources[name]
		if s.Leads > 0 {
			s.Rate = float64(s.Converted) / float64(s.Leads) * 100
		}
		report.SourceAnalysis = append(report.SourceAnalysis, s)
	}
	sort.SliceStable(report.SourceAnalysis, func(i, j int) bool {
		return report.SourceAnalysis[i].Leads > report.SourceAnalysis[j].Leads
	})

	sort.Slice(monthKeys, func(i, j int) bool {
		if monthKeys[i].year != monthKeys[j].year {
			return monthKeys[i].year < monthKeys[j].year
		}
		return monthKeys[i].month < monthKeys[j].month
	})
	if len(monthKeys) > monthlyTrendCap {
		monthKeys = monthKeys[len(monthKeys)-monthlyTrendCap:]
	}
	for _, mk := range monthKeys {
		report.MonthlyTrends = append(report.MonthlyTrends, *months[mk])
	}

	for _, uid := range userOrder {
		u := *users[uid]
		if u.Leads > 0 {
			u.Rate = math.Round(float64(u.Converted)/float64(u.Leads)*1000) / 10
		}
		report.UserPerformance = append(report.UserPerformance, u)
	}
	sort.SliceStable(report.UserPerformance, func(i, j int) bool {
		return report.UserPerformance[i].Leads > report.UserPerformance[j].Leads
	})

	return report
}
