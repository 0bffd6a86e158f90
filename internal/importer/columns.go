package importer

import "strings"

// ColumnMap holds the header index for each canonical lead field, -1 when
// the CSV has no matching column.
type ColumnMap struct {
	Name            int
	Phone           int
	Email           int
	CompanyName     int
	ProductInterest int
	Source          int
	LeadValue       int
	Priority        int
	Notes           int
}

var columnAliases = map[string][]string{
	"name":            {"name", "full name", "fullname", "customer name"},
	"phone":           {"phone", "phone number", "mobile", "contact"},
	"email":           {"email", "email address", "e-mail"},
	"companyName":     {"company", "company name", "companyname", "organization"},
	"productInterest": {"product", "product interest", "productinterest", "service"},
	"source":          {"source", "lead source", "leadsource", "referral"},
	"leadValue":       {"value", "lead value", "leadvalue", "amount", "price"},
	"priority":        {"priority", "importance"},
	"notes":           {"notes", "comments", "description", "remarks"},
}

// MapColumns matches the header row against the alias table. Headers are
// trimmed and lowercased, the first header additionally loses any BOM, and
// for each field the leftmost matching header wins. Unknown headers are
// ignored.
func MapColumns(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	indexOf := func(field string) int {
		aliases := columnAliases[field]
		for i, h := range normalized {
			for _, alias := range aliases {
				if h == alias {
					return i
				}
			}
		}
		return -1
	}

	return ColumnMap{
		Name:            indexOf("name"),
		Phone:           indexOf("phone"),
		Email:           indexOf("email"),
		CompanyName:     indexOf("companyName"),
		ProductInterest: indexOf("productInterest"),
		Source:          indexOf("source"),
		LeadValue:       indexOf("leadValue"),
		Priority:        indexOf("priority"),
		Notes:           indexOf("notes"),
	}
}
