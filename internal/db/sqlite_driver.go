package db

import (
	"database/sql"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver registration.
	// A dedicated name keeps the connect hook from leaking into other users
	// of the plain "sqlite3" driver in the same process.
	SQLiteDriverName = "sqlite3_slugpad"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite ships with foreign key enforcement off; the notes and
			// sessions tables rely on it.
			_, err := conn.Exec("PRAGMA foreign_keys = ON", nil)
			return err
		},
	})
}
