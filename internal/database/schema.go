package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the circulation tables when they do not yet
// exist.  Order matters because of foreign keys: members and books
// first, then copies, loans, fines and holds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id INT PRIMARY KEY AUTO_INCREMENT,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(100) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('LIBRARIAN','MEMBER') NOT NULL DEFAULT 'MEMBER',
		registration_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INT PRIMARY KEY AUTO_INCREMENT,
		member_id INT NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		FOREIGN KEY (member_id) REFERENCES members(id)
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		id INT PRIMARY KEY AUTO_INCREMENT,
		isbn VARCHAR(20) UNIQUE NOT NULL,
		title VARCHAR(200) NOT NULL,
		author VARCHAR(100) NOT NULL,
		category VARCHAR(50),
		publication_year INT,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS copies (
		id INT PRIMARY KEY AUTO_INCREMENT,
		book_id INT NOT NULL,
		status ENUM('AVAILABLE','CHECKED_OUT','MAINTENANCE') NOT NULL DEFAULT 'AVAILABLE',
		location VARCHAR(50) NOT NULL DEFAULT 'Main Shelf',
		FOREIGN KEY (book_id) REFERENCES books(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		id INT PRIMARY KEY AUTO_INCREMENT,
		copy_id INT NOT NULL,
		member_id INT NOT NULL,
		checkout_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		return_date DATETIME NULL,
		renewed_count INT NOT NULL DEFAULT 0,
		FOREIGN KEY (copy_id) REFERENCES copies(id),
		FOREIGN KEY (member_id) REFERENCES members(id)
	)`,
	`CREATE TABLE IF NOT EXISTS fines (
		id INT PRIMARY KEY AUTO_INCREMENT,
		member_id INT NOT NULL,
		loan_id INT NULL,
		amount_cents BIGINT NOT NULL,
		reason VARCHAR(100) NOT NULL,
		issue_date DATETIME NOT NULL,
		paid_date DATETIME NULL,
		status ENUM('UNPAID','PAID','WAIVED') NOT NULL DEFAULT 'UNPAID',
		FOREIGN KEY (member_id) REFERENCES members(id),
		FOREIGN KEY (loan_id) REFERENCES loans(id)
	)`,
	`CREATE TABLE IF NOT EXISTS holds (
		id INT PRIMARY KEY AUTO_INCREMENT,
		book_id INT NOT NULL,
		member_id INT NOT NULL,
		place_date DATETIME NOT NULL,
		status ENUM('PENDING','READY','CANCELLED') NOT NULL DEFAULT 'PENDING',
		notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
		FOREIGN KEY (book_id) REFERENCES books(id),
		FOREIGN KEY (member_id) REFERENCES members(id)
	)`,
}

// Setup creates the schema on the given database.  It is idempotent and
// safe to run on every startup.
func Setup(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
