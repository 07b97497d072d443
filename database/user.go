package database

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// EnsureUser creates username with password unless it already exists.
func EnsureUser(db *sql.DB, username, password string) error {
	var exists bool
	err := db.QueryRow("SELECT 1 FROM user WHERE username = ?", username).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.Exec("INSERT INTO user (username, password_hash) VALUES (?, ?)", username, hash)
	return err
}
