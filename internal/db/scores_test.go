package db

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"classroom-scores/internal/config"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "scores.db"), config.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(conn) })
	return conn
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))
	return NewStore(conn)
}

func TestInsertAssignsIDAndDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	row, err := store.Insert(ctx, Score{Name: "Ana", TimeSeconds: 42, Errors: 0})
	require.NoError(t, err)

	assert.NotZero(t, row.ID)
	assert.False(t, row.CreatedAt.IsZero())
	want := Score{Name: "Ana", TimeSeconds: 42}
	if diff := cmp.Diff(want, row, cmpopts.IgnoreFields(Score{}, "ID", "CreatedAt")); diff != "" {
		t.Fatalf("stored row mismatch (-want +got):\n%s", diff)
	}

	got, err := store.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, row, got)
}

func TestInsertIDsIncrease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var last uint
	for i := 0; i < 5; i++ {
		row, err := store.Insert(ctx, Score{Name: gofakeit.FirstName(), TimeSeconds: i, Errors: i})
		require.NoError(t, err)
		assert.Greater(t, row.ID, last)
		assert.False(t, row.CreatedAt.Before(mustGet(t, store, last).CreatedAt))
		last = row.ID
	}
}

func mustGet(t *testing.T, store *Store, id uint) Score {
	t.Helper()
	if id == 0 {
		return Score{}
	}
	row, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return row
}

func TestIDsNotReusedAfterDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Insert(ctx, Score{Name: "Ana", TimeSeconds: 1})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, first.ID))

	second, err := store.Insert(ctx, Score{Name: "Ben", TimeSeconds: 1})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	keep, err := store.Insert(ctx, Score{Name: "Keep", TimeSeconds: 1})
	require.NoError(t, err)
	drop, err := store.Insert(ctx, Score{Name: "Drop", TimeSeconds: 2})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, drop.ID))
	_, err = store.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, keep.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, store.Delete(ctx, drop.ID+100), ErrNotFound)
	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestListFiltersAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []Score{
		{Name: "Ana", Classe: "6A", StudentNumber: "s-01", TimeSeconds: 30, Errors: 2, GameType: "click"},
		{Name: "Ben", Classe: "6A", StudentNumber: "s-02", TimeSeconds: 30, Errors: 0, GameType: "dnd"},
		{Name: "Chloe", Classe: "6B", StudentNumber: "s-03", TimeSeconds: 10, Errors: 5, GameType: "keyboard"},
		{Name: "Dan", Classe: "6B", StudentNumber: "x-99", TimeSeconds: 50, Errors: 1, GameType: "click"},
	}
	for _, row := range seed {
		_, err := store.Insert(ctx, row)
		require.NoError(t, err)
	}

	rows, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chloe", "Ben", "Ana", "Dan"}, names(rows))

	rows, err = store.List(ctx, ListOptions{Classe: "6A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ben", "Ana"}, names(rows))

	rows, err = store.List(ctx, ListOptions{GameType: "click", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dan", "Ana"}, names(rows))

	rows, err = store.List(ctx, ListOptions{Query: "s-0"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = store.List(ctx, ListOptions{Query: "board"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chloe"}, names(rows))

	rows, err = store.List(ctx, ListOptions{OrderBy: OrderErrors, Desc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chloe", "Ana"}, names(rows))
}

func names(rows []Score) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out
}

func TestListEmptyIsNotNil(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.List(context.Background(), ListOptions{Classe: "none"})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestConcurrentInserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const writers = 16
	ids := make(chan uint, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			row, err := store.Insert(ctx, Score{Name: gofakeit.Name(), TimeSeconds: i, Errors: i % 3})
			if assert.NoError(t, err) {
				ids <- row.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, writers)
	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, writers, total)
}

func TestMigrateIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn))

	m, err := NewMigrator(conn)
	require.NoError(t, err)
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 5, version)
	assert.False(t, dirty)
}

func TestMigrateAdoptsLegacyTable(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, conn.Exec(`CREATE TABLE scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		classe TEXT DEFAULT '',
		time_seconds INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`).Error)
	require.NoError(t, conn.Exec(`INSERT INTO scores (name, classe, time_seconds, errors) VALUES ('Old', NULL, 12, 3)`).Error)

	require.NoError(t, Migrate(conn))

	migrator := conn.Migrator()
	for _, column := range legacyColumns {
		assert.True(t, migrator.HasColumn(&Score{}, column), column)
	}
	store := NewStore(conn)
	rows, err := store.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Old", rows[0].Name)
	assert.Equal(t, "", rows[0].Classe)
	assert.Equal(t, "", rows[0].StudentNumber)
	assert.Equal(t, "", rows[0].GameType)
}

func TestMigrateAdoptsCurrentLegacyTable(t *testing.T) {
	conn := openTestDB(t)
	require.NoError(t, conn.Exec(`CREATE TABLE scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		classe TEXT DEFAULT '',
		student_number TEXT DEFAULT '',
		time_seconds INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		game_type TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`).Error)

	require.NoError(t, Migrate(conn))

	m, err := NewMigrator(conn)
	require.NoError(t, err)
	version, _, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 5, version)
}

func TestMigrateAdoptsLegacyTableWithGaps(t *testing.T) {
	cases := map[string]string{
		"game_type only": `CREATE TABLE scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			time_seconds INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			game_type TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		"classe and game_type": `CREATE TABLE scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			classe TEXT DEFAULT '',
			time_seconds INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			game_type TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for name, ddl := range cases {
		t.Run(name, func(t *testing.T) {
			conn := openTestDB(t)
			require.NoError(t, conn.Exec(ddl).Error)
			require.NoError(t, conn.Exec(`INSERT INTO scores (name, time_seconds, errors, game_type) VALUES ('Old', 12, 3, NULL)`).Error)

			require.NoError(t, Migrate(conn))
			require.NoError(t, Migrate(conn))

			m, err := NewMigrator(conn)
			require.NoError(t, err)
			version, dirty, err := m.Version()
			require.NoError(t, err)
			assert.EqualValues(t, 5, version)
			assert.False(t, dirty)

			for _, column := range legacyColumns {
				assert.True(t, conn.Migrator().HasColumn(&Score{}, column), column)
			}
			rows, err := NewStore(conn).List(context.Background(), ListOptions{})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "Old", rows[0].Name)
			assert.Equal(t, "", rows[0].Classe)
			assert.Equal(t, "", rows[0].StudentNumber)
			assert.Equal(t, "", rows[0].GameType)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, Score{Name: `O"Brien`, Classe: "6A", TimeSeconds: 7, Errors: 1, GameType: "click"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, Score{Name: "Zoé, la grande", TimeSeconds: 9, Errors: 0})
	require.NoError(t, err)
	rows, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteScoresCSV(&buf, rows))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "id,name,classe,student_number,time_seconds,errors,game_type,created_at\r\n"))
	assert.Contains(t, out, `"O""Brien","6A",""`)
	assert.False(t, strings.HasSuffix(out, "\r\n"))

	parsed, err := ReadScoresCSV(strings.NewReader(out))
	require.NoError(t, err)
	if diff := cmp.Diff(rows, parsed, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadScoresCSVErrors(t *testing.T) {
	_, err := ReadScoresCSV(strings.NewReader("id,name\r\n1,\"Ana\""))
	require.Error(t, err)

	_, err = ReadScoresCSV(strings.NewReader("name,time_seconds,errors\r\n\"Ana\",abc,0"))
	require.Error(t, err)

	rows, err := ReadScoresCSV(strings.NewReader("name,time_seconds,errors\r\n\"Ana\",3,0"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].Name)
}

func TestRestore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := newTestStore(t)
	for _, name := range []string{"Al", "Ben", "Chloe"} {
		_, err := source.Insert(ctx, Score{Name: name, TimeSeconds: len(name)})
		require.NoError(t, err)
	}
	exported, err := source.List(ctx, ListOptions{Desc: true})
	require.NoError(t, err)

	loaded, err := store.Restore(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)

	rows, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Al", "Ben", "Chloe"}, names(rows))

	_, err = store.Restore(ctx, exported)
	assert.Error(t, err)
}

func TestXLSXRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, Score{
			Name:        gofakeit.FirstName(),
			Classe:      "6A",
			TimeSeconds: gofakeit.Number(1, 300),
			Errors:      gofakeit.Number(0, 9),
			GameType:    "click",
		})
		require.NoError(t, err)
	}
	rows, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteScoresXLSX(&buf, rows))

	parsed, err := ReadScoresXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if diff := cmp.Diff(rows, parsed, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreJSONUsesStorageTimestamp(t *testing.T) {
	row := Score{ID: 7, Name: "Ana", TimeSeconds: 3, CreatedAt: time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":"2024-03-09 14:05:06"`)
	assert.Contains(t, string(data), `"student_number":""`)

	var decoded Score
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, row, decoded)

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Ben","created_at":"2024-03-09T14:05:06Z"}`), &decoded))
	assert.True(t, decoded.CreatedAt.Equal(row.CreatedAt))

	data, err = json.Marshal(Score{Name: "Zero"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":""`)
}
