package stub

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tokens (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_name TEXT NOT NULL,
	token_hash TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	image TEXT,
	price REAL NOT NULL,
	stock INTEGER NOT NULL DEFAULT 0,
	rating REAL NOT NULL DEFAULT 0,
	rating_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS equipment (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	image TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	class_type TEXT NOT NULL,
	trainer_name TEXT NOT NULL,
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	price REAL NOT NULL,
	capacity INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	product_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity >= 1),
	UNIQUE (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS session_cart_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	session_id INTEGER NOT NULL,
	UNIQUE (user_id, session_id)
);
`

// OpenDB opens (and creates if needed) the stub's sqlite database.
// WAL + busy timeout so the CLI and server can share the file.
func OpenDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return sql.Open("sqlite", dbPath+"?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL")
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate stub schema: %w", err)
	}
	return nil
}

// Seed inserts a small demo catalog when the tables are empty.
func Seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	stmts := []string{
		`INSERT INTO products (name, description, price, stock) VALUES
			('Whey Protein 2kg', 'Vanilla whey protein powder', 39.99, 25),
			('Resistance Bands Set', 'Five bands, light to heavy', 19.50, 40),
			('Shaker Bottle', '700ml with mixing ball', 7.99, 100),
			('Lifting Straps', 'Cotton wrist straps, pair', 12.00, 0)`,
		`INSERT INTO equipment (name, category, description) VALUES
			('Treadmill X300', 'cardio', 'Motorized treadmill, 20 km/h top speed'),
			('Olympic Barbell', 'free weights', '20kg, 28mm grip'),
			('Cable Crossover', 'machines', 'Dual adjustable pulleys')`,
		`INSERT INTO sessions (class_type, trainer_name, date, start_time, end_time, price, capacity) VALUES
			('Yoga', 'Maya Torres', '2026-09-07', '09:00', '10:00', 15.00, 12),
			('HIIT', 'Jonas Keller', '2026-09-07', '18:00', '18:45', 12.50, 8),
			('Spin', 'Maya Torres', '2026-09-08', '07:30', '08:15', 10.00, 15),
			('Boxing', 'Ada Okafor', '2026-09-09', '19:00', '20:00', 18.00, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to seed stub data: %w", err)
		}
	}
	return nil
}
