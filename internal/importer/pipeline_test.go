package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow-crm/api/internal/store"
)

type fakeEntity struct {
	id   uuid.UUID
	name string
}

type fakeStore struct {
	entities  map[store.EntityKind][]fakeEntity
	created   map[store.EntityKind][]string
	inserted  []store.CreateLeadParams
	insertErr error
	findErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entities: map[store.EntityKind][]fakeEntity{},
		created:  map[store.EntityKind][]string{},
	}
}

func (f *fakeStore) seed(kind store.EntityKind, name string) uuid.UUID {
	id := uuid.New()
	f.entities[kind] = append(f.entities[kind], fakeEntity{id: id, name: name})
	return id
}

func (f *fakeStore) FindActiveEntity(_ context.Context, kind store.EntityKind, name string) (uuid.UUID, bool, error) {
	if f.findErr != nil {
		return uuid.Nil, false, f.findErr
	}
	for _, e := range f.entities[kind] {
		if strings.Contains(strings.ToLower(e.name), strings.ToLower(name)) {
			return e.id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (f *fakeStore) OldestActiveEntity(_ context.Context, kind store.EntityKind) (uuid.UUID, bool, error) {
	if len(f.entities[kind]) == 0 {
		return uuid.Nil, false, nil
	}
	return f.entities[kind][0].id, true, nil
}

func (f *fakeStore) CreateEntity(_ context.Context, kind store.EntityKind, name, _ string, _ uuid.UUID) (uuid.UUID, error) {
	f.created[kind] = append(f.created[kind], name)
	return f.seed(kind, name), nil
}

func (f *fakeStore) BulkInsertLeads(_ context.Context, leads []store.CreateLeadParams) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, leads...)
	return int64(len(leads)), nil
}

func testPipeline(f *fakeStore) *Pipeline {
	return NewPipeline(f, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
}

func TestImportRejectsFilesWithoutDataRows(t *testing.T) {
	p := testPipeline(newFakeStore())

	for _, text := range []string{"", "name,phone", "name,phone\n\n  \n"} {
		_, err := p.Import(context.Background(), text, uuid.New(), uuid.New())
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "input %q", text)
	}
}

func TestImportRejectsOversizedFiles(t *testing.T) {
	f := newFakeStore()
	p := NewPipeline(f, slog.New(slog.NewTextHandler(io.Discard, nil)), 2)

	csv := "name,phone\nA,1\nB,2\nC,3"
	_, err := p.Import(context.Background(), csv, uuid.New(), uuid.New())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestImportHappyPath(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "Premium Hosting")
	f.seed(store.EntitySource, "Website")
	assignee := uuid.New()
	admin := uuid.New()

	csv := "Name,Phone,Email,Company,Product,Source,Value,Priority,Notes\n" +
		"Jane Doe,555-1234,jane@acme.test,Acme,hosting,website,$2500.50,high,Call back Monday"

	summary, err := testPipeline(f).Import(context.Background(), csv, assignee, admin)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 1, summary.Total)
	assert.Empty(t, summary.Errors)
	require.Len(t, f.inserted, 1)

	lead := f.inserted[0]
	assert.Equal(t, "Jane Doe", lead.Name)
	assert.Equal(t, "555-1234", lead.Phone)
	assert.Equal(t, "jane@acme.test", lead.Email)
	assert.Equal(t, "Acme", lead.CompanyName)
	assert.Equal(t, 2500.50, lead.LeadValue)
	assert.Equal(t, "High", lead.Priority)
	assert.Equal(t, "Call back Monday", lead.Notes)
	assert.Equal(t, assignee, lead.AssignedTo)
	assert.Equal(t, admin, lead.CreatedBy)
}

func TestImportQuotedCommaShiftsColumns(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "General Service")
	f.seed(store.EntitySource, "CSV Upload")

	// Commas inside quotes still split the row, so the value field only
	// sees the text before the comma.
	csv := "name,phone,value,priority\n" + `Jane,555-1,"$2,500",high`
	summary, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
	require.Len(t, f.inserted, 1)
	assert.Equal(t, 2.0, f.inserted[0].LeadValue)
	// "500" landed in the priority column and falls back to Medium.
	assert.Equal(t, "Medium", f.inserted[0].Priority)
}

func TestImportSkipsRowsMissingNameOrPhone(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "General Service")
	f.seed(store.EntitySource, "CSV Upload")

	csv := "name,phone\nJane,555-1\n,555-2\nBob,"
	summary, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, summary.Total, summary.Count+summary.Skipped)
	assert.Equal(t, []string{
		"Row 3: Missing required name or phone",
		"Row 4: Missing required name or phone",
	}, summary.Errors)
}

func TestImportBootstrapsDefaultEntitiesWhenCatalogEmpty(t *testing.T) {
	f := newFakeStore()

	csv := "name,phone\nJane,555-1"
	summary, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, []string{"General Service"}, f.created[store.EntityProduct])
	assert.Equal(t, []string{"CSV Upload"}, f.created[store.EntitySource])
	require.Len(t, f.inserted, 1)
	assert.Equal(t, f.entities[store.EntityProduct][0].id, f.inserted[0].ProductID)
	assert.Equal(t, f.entities[store.EntitySource][0].id, f.inserted[0].SourceID)
}

func TestImportBlankCellsUseDefaultEntities(t *testing.T) {
	f := newFakeStore()
	productID := f.seed(store.EntityProduct, "General Service")
	sourceID := f.seed(store.EntitySource, "CSV Upload")

	csv := "name,phone,product,source\nJane,555-1,,"
	_, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	require.Len(t, f.inserted, 1)
	assert.Equal(t, productID, f.inserted[0].ProductID)
	assert.Equal(t, sourceID, f.inserted[0].SourceID)
	assert.Empty(t, f.created[store.EntityProduct])
}

func TestImportAutoCreatesUnknownEntitiesOncePerRun(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "General Service")
	f.seed(store.EntitySource, "CSV Upload")

	csv := "name,phone,product\nJane,555-1,Solar Panels\nBob,555-2,solar panels\nAmy,555-3,SOLAR PANELS"
	summary, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, []string{"Solar Panels"}, f.created[store.EntityProduct])
}

func TestImportMatchesEntitiesBySubstring(t *testing.T) {
	f := newFakeStore()
	hostingID := f.seed(store.EntityProduct, "Premium Web Hosting")
	f.seed(store.EntitySource, "CSV Upload")

	csv := "name,phone,product\nJane,555-1,web hosting"
	_, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())
	require.NoError(t, err)

	require.Len(t, f.inserted, 1)
	assert.Equal(t, hostingID, f.inserted[0].ProductID)
	assert.Empty(t, f.created[store.EntityProduct])
}

func TestImportBulkInsertFailureIsFatal(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "General Service")
	f.seed(store.EntitySource, "CSV Upload")
	f.insertErr = errors.New("connection reset")

	csv := "name,phone\nJane,555-1"
	_, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, f.inserted)
}

func TestImportEntityLookupFailureIsFatal(t *testing.T) {
	f := newFakeStore()
	f.seed(store.EntityProduct, "General Service")
	f.seed(store.EntitySource, "CSV Upload")
	f.findErr = errors.New("connection reset")

	csv := "name,phone,product\nJane,555-1,Hosting"
	_, err := testPipeline(f).Import(context.Background(), csv, uuid.New(), uuid.New())

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
}
