package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/marathon-cli/internal/model"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshot_events`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, p.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Load(t *testing.T) {
	p, mock := newMockPostgres(t)
	rows := pgxmock.NewRows([]string{"event_key", "record"}).
		AddRow("2026-03-15_서울 마라톤", []byte(`{"name":"서울 마라톤","date":"2026-03-15","organizer":"ACME"}`)).
		AddRow("None_미정 대회", []byte(`{"name":"미정 대회"}`))
	mock.ExpectQuery(`SELECT event_key, record FROM snapshot_events`).WillReturnRows(rows)

	events, err := p.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ACME", events["2026-03-15_서울 마라톤"].Organizer)
	assert.Equal(t, "None_미정 대회", events["None_미정 대회"].Key())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadQueryError(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectQuery(`SELECT event_key, record FROM snapshot_events`).
		WillReturnError(errors.New("connection refused"))

	_, err := p.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: query snapshot")
}

func TestPostgres_SaveInOneTransaction(t *testing.T) {
	p, mock := newMockPostgres(t)
	a := model.Event{Name: "a 마라톤", Date: "2026-01-01"}
	b := model.Event{Name: "b 마라톤", Date: "2026-02-01"}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshot_events`).
		WithArgs(a.Key(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO snapshot_events`).
		WithArgs(b.Key(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := p.Save(context.Background(), map[string]model.Event{b.Key(): b, a.Key(): a})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRollsBackOnError(t *testing.T) {
	p, mock := newMockPostgres(t)
	ev := model.Event{Name: "a 마라톤", Date: "2026-01-01"}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshot_events`).
		WithArgs(ev.Key(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := p.Save(context.Background(), map[string]model.Event{ev.Key(): ev})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: upsert")
	assert.NoError(t, mock.ExpectationsWereMet())
}
