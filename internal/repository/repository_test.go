package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/model"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range []string{
		`CREATE TABLE books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			isbn TEXT UNIQUE NOT NULL,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			category TEXT,
			publication_year INTEGER,
			description TEXT
		)`,
		`CREATE TABLE copies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'AVAILABLE',
			location TEXT NOT NULL DEFAULT 'Main Shelf'
		)`,
		`CREATE TABLE holds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book_id INTEGER NOT NULL,
			member_id INTEGER NOT NULL,
			place_date DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			notification_sent BOOLEAN NOT NULL DEFAULT 0
		)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO books (isbn, title, author) VALUES ('isbn-1', 'Test Book', 'Test Author')`)
	require.NoError(t, err)
	return db
}

func addCopy(t *testing.T, db *sql.DB, status string) uint64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO copies (book_id, status) VALUES (1, ?)`, status)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestClaimAvailablePicksLowestID(t *testing.T) {
	db := testDB(t)
	firstCopy := addCopy(t, db, "AVAILABLE")
	addCopy(t, db, "AVAILABLE")
	repo := NewCopyRepo(db)

	inTx(t, db, func(tx *sql.Tx) {
		claimed, err := repo.ClaimAvailableTx(context.Background(), tx, 1)
		require.NoError(t, err)
		assert.Equal(t, firstCopy, claimed)
	})

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM copies WHERE id = ?`, firstCopy).Scan(&status))
	assert.Equal(t, "CHECKED_OUT", status)
}

func TestClaimAvailableSkipsUnlendableCopies(t *testing.T) {
	db := testDB(t)
	addCopy(t, db, "CHECKED_OUT")
	addCopy(t, db, "MAINTENANCE")
	lendable := addCopy(t, db, "AVAILABLE")
	repo := NewCopyRepo(db)

	inTx(t, db, func(tx *sql.Tx) {
		claimed, err := repo.ClaimAvailableTx(context.Background(), tx, 1)
		require.NoError(t, err)
		assert.Equal(t, lendable, claimed)
	})

	// Nothing left to claim now.
	inTx(t, db, func(tx *sql.Tx) {
		_, err := repo.ClaimAvailableTx(context.Background(), tx, 1)
		assert.ErrorIs(t, err, ErrNoAvailableCopies)
	})
}

func TestReleaseOnlyFlipsCheckedOut(t *testing.T) {
	db := testDB(t)
	maint := addCopy(t, db, "MAINTENANCE")
	repo := NewCopyRepo(db)

	// Releasing a maintenance copy must not resurrect it.
	inTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, repo.ReleaseTx(context.Background(), tx, maint))
	})
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM copies WHERE id = ?`, maint).Scan(&status))
	assert.Equal(t, "MAINTENANCE", status)
}

func TestHoldPositionTieBreakByID(t *testing.T) {
	db := testDB(t)
	repo := NewHoldRepo(db)
	ctx := context.Background()

	// Two holds in the same second: the lower id is first in line.
	placed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var ids []uint64
	inTx(t, db, func(tx *sql.Tx) {
		for member := uint64(1); member <= 2; member++ {
			id, err := repo.CreateTx(ctx, tx, 1, member, placed)
			require.NoError(t, err)
			ids = append(ids, id)
		}
		pos1, err := repo.PositionTx(ctx, tx, ids[0])
		require.NoError(t, err)
		pos2, err := repo.PositionTx(ctx, tx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, 1, pos1)
		assert.Equal(t, 2, pos2)
	})
}

func TestPromoteNextFollowsPlacementOrder(t *testing.T) {
	db := testDB(t)
	repo := NewHoldRepo(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var second uint64
	inTx(t, db, func(tx *sql.Tx) {
		// Insert out of chronological order on purpose.
		_, err := repo.CreateTx(ctx, tx, 1, 1, base.Add(time.Hour))
		require.NoError(t, err)
		second, err = repo.CreateTx(ctx, tx, 1, 2, base)
		require.NoError(t, err)
	})

	inTx(t, db, func(tx *sql.Tx) {
		h, err := repo.PromoteNextTx(ctx, tx, 1)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, second, h.ID) // earliest placement wins, not lowest id
	})

	// The promoted hold is READY and no longer a promotion candidate.
	inTx(t, db, func(tx *sql.Tx) {
		h, err := repo.PromoteNextTx(ctx, tx, 1)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.NotEqual(t, second, h.ID)
	})
	inTx(t, db, func(tx *sql.Tx) {
		h, err := repo.PromoteNextTx(ctx, tx, 1)
		require.NoError(t, err)
		assert.Nil(t, h) // queue drained
	})
}

func TestClaimCandidatesSkipsStaleEntries(t *testing.T) {
	db := testDB(t)
	taken := addCopy(t, db, "AVAILABLE")
	fallback := addCopy(t, db, "AVAILABLE")
	repo := NewCopyRepo(db)
	ctx := context.Background()

	// Another checkout grabbed the first candidate after this
	// transaction selected it.  The guarded update misses, and the loop
	// falls through to the next candidate instead of failing.
	_, err := db.Exec(`UPDATE copies SET status = 'CHECKED_OUT' WHERE id = ?`, taken)
	require.NoError(t, err)

	inTx(t, db, func(tx *sql.Tx) {
		claimed, err := repo.claimCandidatesTx(ctx, tx, []uint64{taken, fallback})
		require.NoError(t, err)
		assert.Equal(t, fallback, claimed)
	})

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM copies WHERE id = ?`, fallback).Scan(&status))
	assert.Equal(t, "CHECKED_OUT", status)
}

func TestClaimCandidatesAllStaleReportsNoCopies(t *testing.T) {
	db := testDB(t)
	a := addCopy(t, db, "AVAILABLE")
	b := addCopy(t, db, "AVAILABLE")
	repo := NewCopyRepo(db)
	ctx := context.Background()

	// Every candidate was claimed elsewhere before the updates ran.
	_, err := db.Exec(`UPDATE copies SET status = 'CHECKED_OUT' WHERE id IN (?, ?)`, a, b)
	require.NoError(t, err)

	inTx(t, db, func(tx *sql.Tx) {
		_, err := repo.claimCandidatesTx(ctx, tx, []uint64{a, b})
		assert.ErrorIs(t, err, ErrNoAvailableCopies)
	})
}

func TestPromoteCandidatesSkipsAlreadyTakenHold(t *testing.T) {
	db := testDB(t)
	repo := NewHoldRepo(db)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var first, second uint64
	inTx(t, db, func(tx *sql.Tx) {
		var err error
		first, err = repo.CreateTx(ctx, tx, 1, 1, base)
		require.NoError(t, err)
		second, err = repo.CreateTx(ctx, tx, 1, 2, base.Add(time.Minute))
		require.NoError(t, err)
	})

	// A concurrent return already promoted the front hold; the
	// candidate list is stale.
	_, err := db.Exec(`UPDATE holds SET status = 'READY' WHERE id = ?`, first)
	require.NoError(t, err)

	candidates := []model.Hold{
		{ID: first, BookID: 1, MemberID: 1, PlaceDate: base, Status: model.HoldPending},
		{ID: second, BookID: 1, MemberID: 2, PlaceDate: base.Add(time.Minute), Status: model.HoldPending},
	}
	inTx(t, db, func(tx *sql.Tx) {
		h, err := repo.promoteCandidatesTx(ctx, tx, candidates)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, second, h.ID)
		assert.Equal(t, model.HoldReady, h.Status)
	})

	// No candidate left standing means no promotion, not an error.
	inTx(t, db, func(tx *sql.Tx) {
		h, err := repo.promoteCandidatesTx(ctx, tx, candidates)
		require.NoError(t, err)
		assert.Nil(t, h)
	})
}
