package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-circulation/internal/config"
	"github.com/iliyamo/library-circulation/internal/model"
	"github.com/iliyamo/library-circulation/internal/policy"
	"github.com/iliyamo/library-circulation/internal/queue"
	"github.com/iliyamo/library-circulation/internal/repository"
)

// The handler tests run the real repositories against an in-memory
// SQLite database.  Production SQL is kept engine-portable (? markers,
// timestamps passed from Go, compare-and-set updates) precisely so the
// full request flow can be exercised here without a database server.
var testSchema = []string{
	`CREATE TABLE members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'MEMBER',
		registration_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id INTEGER NOT NULL REFERENCES members(id),
		token_hash TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL
	)`,
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
		book_id INTEGER NOT NULL REFERENCES books(id),
		status TEXT NOT NULL DEFAULT 'AVAILABLE',
		location TEXT NOT NULL DEFAULT 'Main Shelf'
	)`,
	`CREATE TABLE loans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		copy_id INTEGER NOT NULL REFERENCES copies(id),
		member_id INTEGER NOT NULL REFERENCES members(id),
		checkout_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		return_date DATETIME NULL,
		renewed_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE fines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id INTEGER NOT NULL REFERENCES members(id),
		loan_id INTEGER NULL REFERENCES loans(id),
		amount_cents INTEGER NOT NULL,
		reason TEXT NOT NULL,
		issue_date DATETIME NOT NULL,
		paid_date DATETIME NULL,
		status TEXT NOT NULL DEFAULT 'UNPAID'
	)`,
	`CREATE TABLE holds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books(id),
		member_id INTEGER NOT NULL REFERENCES members(id),
		place_date DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'PENDING',
		notification_sent BOOLEAN NOT NULL DEFAULT 0
	)`,
}

// env bundles everything a handler test needs: the database, the
// repositories and the handlers wired exactly as in main.
type env struct {
	db      *sql.DB
	books   *repository.BookRepo
	copies  *repository.CopyRepo
	loans   *repository.LoanRepo
	holds   *repository.HoldRepo
	fines   *repository.FineRepo
	members *repository.MemberRepo
	tokens  *repository.TokenRepo

	cfg  config.Config
	circ *CirculationHandler
	hold *HoldHandler
	fine *FineHandler
	memb *MemberHandler
	rep  *ReportHandler
	cat  *CatalogHandler
	auth *AuthHandler

	published []queue.HoldReadyEvent
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range testSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	e := &env{
		db:      db,
		books:   repository.NewBookRepo(db),
		copies:  repository.NewCopyRepo(db),
		loans:   repository.NewLoanRepo(db),
		holds:   repository.NewHoldRepo(db),
		fines:   repository.NewFineRepo(db),
		members: repository.NewMemberRepo(db),
		tokens:  repository.NewTokenRepo(db),
		cfg: config.Config{
			JWTSecret:          "test-secret",
			AccessTTLMin:       15,
			RefreshTTLDays:     7,
			BcryptCost:         4, // keep tests fast
			LoanPeriodDays:     14,
			RenewBlockWhenHeld: true,
			MaxRenewals:        0,
			FinePerDayCents:    50,
			FineOnReturn:       true,
		},
	}
	e.circ = &CirculationHandler{
		Cfg:     e.cfg,
		Books:   e.books,
		Copies:  e.copies,
		Loans:   e.loans,
		Holds:   e.holds,
		Fines:   e.fines,
		Members: e.members,
		Overdue: policy.PerDay(e.cfg.FinePerDayCents),
		PublishHoldReady: func(_ context.Context, ev queue.HoldReadyEvent) error {
			e.published = append(e.published, ev)
			return nil
		},
	}
	e.hold = NewHoldHandler(e.books, e.holds)
	e.fine = NewFineHandler(e.fines, e.members)
	e.memb = NewMemberHandler(e.members, e.tokens)
	e.rep = NewReportHandler(e.books, e.members, e.loans, e.holds, e.fines)
	e.cat = NewCatalogHandler(e.books, e.copies)
	e.auth = NewAuthHandler(e.cfg, e.members, e.tokens)
	return e
}

func (e *env) addMember(t *testing.T, name, role string) uint64 {
	t.Helper()
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org"
	id, err := e.members.Create(context.Background(), name, email, "hunter22", role, e.cfg.BcryptCost)
	require.NoError(t, err)
	return id
}

func (e *env) addBook(t *testing.T, title string, copies int) uint64 {
	t.Helper()
	res, err := e.db.Exec(
		`INSERT INTO books (isbn, title, author, category, publication_year, description)
		 VALUES (?, ?, 'Test Author', 'Fiction', 2020, '')`,
		fmt.Sprintf("isbn-%s-%d", strings.ReplaceAll(title, " ", "-"), copies), title)
	require.NoError(t, err)
	bookID, err := res.LastInsertId()
	require.NoError(t, err)
	for i := 0; i < copies; i++ {
		_, err := e.db.Exec(`INSERT INTO copies (book_id, status) VALUES (?, 'AVAILABLE')`, bookID)
		require.NoError(t, err)
	}
	return uint64(bookID)
}

// request builds an echo context carrying the identity claims the JWT
// middleware would have injected, runs the handler, and decodes the
// JSON response.
func request(t *testing.T, method, path, body string, memberID uint64, role string,
	params map[string]string, h echo.HandlerFunc) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if memberID != 0 {
		c.Set("member_id", float64(memberID)) // jwt decodes numbers as float64
		c.Set("role", role)
	}
	names := make([]string, 0, len(params))
	values := make([]string, 0, len(params))
	for k, v := range params {
		names = append(names, k)
		values = append(values, v)
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)

	require.NoError(t, h(c))

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

// backdateLoan rewrites a loan's due date so overdue paths can be
// exercised without sleeping.
func backdateLoan(t *testing.T, db *sql.DB, loanID uint64, due time.Time) {
	t.Helper()
	_, err := db.Exec(`UPDATE loans SET due_date = ? WHERE id = ?`, due, loanID)
	require.NoError(t, err)
}

func checkout(t *testing.T, e *env, bookID, memberID uint64) (code int, resp map[string]any) {
	t.Helper()
	return request(t, http.MethodPost, "/v1/books/:id/checkout", "", memberID, model.RoleMember,
		map[string]string{"id": fmt.Sprint(bookID)}, e.circ.Checkout)
}

func returnBook(t *testing.T, e *env, bookID, memberID uint64) (code int, resp map[string]any) {
	t.Helper()
	return request(t, http.MethodPost, "/v1/books/:id/return", "", memberID, model.RoleMember,
		map[string]string{"id": fmt.Sprint(bookID)}, e.circ.Return)
}

func placeHold(t *testing.T, e *env, bookID, memberID uint64) (code int, resp map[string]any) {
	t.Helper()
	return request(t, http.MethodPost, "/v1/books/:id/holds", "", memberID, model.RoleMember,
		map[string]string{"id": fmt.Sprint(bookID)}, e.hold.PlaceHold)
}
