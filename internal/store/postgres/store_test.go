package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock, "businesses")
	require.NoError(t, err)
	return mock, store
}

func businessColumns() []string {
	return []string{
		"id", "business_name", "industry", "industry_display_name",
		"location", "city", "state", "website", "email",
	}
}

func TestReplaceAllDeletesThenCopies(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM businesses").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"businesses"}, copyColumns).
		WillReturnResult(2)
	mock.ExpectCommit()
	mock.ExpectRollback()

	records := []lead.Business{
		{ID: "a", BusinessName: "Acme", Industry: "Plumbing", Location: "Springfield, IL"},
		{ID: "b", BusinessName: "Blue", Industry: "Bakery", Location: "Austin, TX"},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllEmptySkipsCopy(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM businesses").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()
	mock.ExpectRollback()

	require.NoError(t, store.ReplaceAll(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM businesses WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(businessColumns()))

	_, err := store.Get(context.Background(), "missing")
	var nfe *lead.NotFoundError
	require.ErrorAs(t, err, &nfe)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScansNullableFields(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	website := "https://acme.example"
	mock.ExpectQuery("SELECT .+ FROM businesses WHERE id").
		WithArgs("a").
		WillReturnRows(pgxmock.NewRows(businessColumns()).AddRow(
			"a", "Acme", "Plumbing", "Industry", "Springfield, IL",
			(*string)(nil), (*string)(nil), &website, (*string)(nil),
		))

	b, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	require.Equal(t, "Acme", b.BusinessName)
	require.Nil(t, b.City)
	require.NotNil(t, b.Website)
	require.Equal(t, "https://acme.example", *b.Website)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIndexOutOfRange(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM businesses ORDER BY position OFFSET").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows(businessColumns()))

	_, err := store.GetByIndex(context.Background(), 5)
	var nfe *lead.NotFoundError
	require.ErrorAs(t, err, &nfe)

	// Negative indices never reach the database.
	_, err = store.GetByIndex(context.Background(), -1)
	require.ErrorAs(t, err, &nfe)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWebsiteReturnsUpdatedRow(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	website := "https://acme.example"
	mock.ExpectQuery("UPDATE businesses SET website").
		WithArgs("a", website).
		WillReturnRows(pgxmock.NewRows(businessColumns()).AddRow(
			"a", "Acme", "Plumbing", "Industry", "Springfield, IL",
			(*string)(nil), (*string)(nil), &website, (*string)(nil),
		))

	b, err := store.SetWebsite(context.Background(), "a", website)
	require.NoError(t, err)
	require.NotNil(t, b.Website)
	require.Equal(t, website, *b.Website)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWebsiteUnknownID(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery("UPDATE businesses SET website").
		WithArgs("missing", "https://x.example").
		WillReturnRows(pgxmock.NewRows(businessColumns()))

	_, err := store.SetWebsite(context.Background(), "missing", "https://x.example")
	var nfe *lead.NotFoundError
	require.ErrorAs(t, err, &nfe)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAndClear(t *testing.T) {
	t.Parallel()

	mock, store := newMockStore(t)

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectExec("DELETE FROM businesses").
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, n)

	require.NoError(t, store.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "businesses; DROP TABLE x")
	require.Error(t, err)

	_, err = NewWithPool(nil, "businesses")
	require.Error(t, err)
}
