package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// tableDDL creates the storefront tables. Column names and order match
// backend.StorefrontSchema.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{"auth_users", `
		CREATE TABLE IF NOT EXISTS auth_users (
			id CHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NULL,
			provider VARCHAR(32) NOT NULL DEFAULT 'email',
			full_name VARCHAR(255) NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_auth_users_email (email)
		)`},
	{"auth_sessions", `
		CREATE TABLE IF NOT EXISTS auth_sessions (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			expires_at DATETIME(6) NOT NULL,
			INDEX idx_auth_sessions_user (user_id)
		)`},
	{"user_profiles", `
		CREATE TABLE IF NOT EXISTS user_profiles (
			id CHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			full_name VARCHAR(255) NULL,
			is_admin TINYINT(1) NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL
		)`},
	{"products", `
		CREATE TABLE IF NOT EXISTS products (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NULL,
			description TEXT NULL,
			price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
			image_url TEXT NULL,
			category VARCHAR(255) NULL,
			sizes JSON NULL,
			colors JSON NULL,
			stock INT NOT NULL DEFAULT 0,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NULL,
			INDEX idx_products_active_created (is_active, created_at)
		)`},
	{"orders", `
		CREATE TABLE IF NOT EXISTS orders (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL,
			customer_phone VARCHAR(64) NOT NULL,
			address TEXT NOT NULL,
			city VARCHAR(255) NOT NULL,
			zip_code VARCHAR(32) NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			payment_method VARCHAR(64) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NULL,
			INDEX idx_orders_user_created (user_id, created_at),
			INDEX idx_orders_status (status)
		)`},
	{"order_items", `
		CREATE TABLE IF NOT EXISTS order_items (
			id CHAR(36) PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			product_id CHAR(36) NOT NULL,
			quantity INT NOT NULL,
			size VARCHAR(64) NULL,
			color VARCHAR(64) NULL,
			price DECIMAL(10,2) NOT NULL,
			created_at DATETIME(6) NOT NULL,
			INDEX idx_order_items_order (order_id)
		)`},
	{"pending_order_items", `
		CREATE TABLE IF NOT EXISTS pending_order_items (
			id CHAR(36) PRIMARY KEY,
			order_id CHAR(36) NOT NULL,
			items JSON NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NULL
		)`},
}

// InitSchema creates the database tables if they don't exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, t := range tableDDL {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		slog.Debug("table ready", slog.String("table", t.name))
	}
	return nil
}
