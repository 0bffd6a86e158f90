package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapColumnsMatchesAliases(t *testing.T) {
	cols := MapColumns([]string{"Full Name", "Mobile", "E-Mail", "Organization", "Service", "Referral", "Amount", "Importance", "Remarks"})

	assert.Equal(t, 0, cols.Name)
	assert.Equal(t, 1, cols.Phone)
	assert.Equal(t, 2, cols.Email)
	assert.Equal(t, 3, cols.CompanyName)
	assert.Equal(t, 4, cols.ProductInterest)
	assert.Equal(t, 5, cols.Source)
	assert.Equal(t, 6, cols.LeadValue)
	assert.Equal(t, 7, cols.Priority)
	assert.Equal(t, 8, cols.Notes)
}

func TestMapColumnsFirstMatchWins(t *testing.T) {
	cols := MapColumns([]string{"name", "customer name", "phone"})
	assert.Equal(t, 0, cols.Name)
	assert.Equal(t, 2, cols.Phone)
}

func TestMapColumnsMissingFieldIsMinusOne(t *testing.T) {
	cols := MapColumns([]string{"name", "phone"})
	assert.Equal(t, -1, cols.Email)
	assert.Equal(t, -1, cols.LeadValue)
	assert.Equal(t, -1, cols.Priority)
}

func TestMapColumnsStripsBOMAndIgnoresUnknownHeaders(t *testing.T) {
	cols := MapColumns([]string{"\ufeffName", "favourite colour", " PHONE "})
	assert.Equal(t, 0, cols.Name)
	assert.Equal(t, 2, cols.Phone)
}
