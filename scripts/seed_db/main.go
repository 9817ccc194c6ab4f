package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Seeds a local MySQL with enough order data to exercise paginated
// exports against a real server.
func main() {
	dsn := "root:root@tcp(localhost:3306)/my_app?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	// Wait for DB to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Info("Waiting for database...", "attempt", i+1)
		time.Sleep(1 * time.Second)
	}

	slog.Info("Connected to MySQL. Creating tables...")

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name TEXT,
			email TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		panic(err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			customer_id BIGINT,
			amount DECIMAL(15, 2),
			currency VARCHAR(3),
			status VARCHAR(20),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_customer_id (customer_id)
		)
	`)
	if err != nil {
		panic(err)
	}

	var customerCount int
	db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&customerCount)
	if customerCount < 100000 {
		slog.Info("Seeding 100,000 customers...")
		start := time.Now()
		batchSize := 1000
		total := 100000

		for i := 0; i < total; i += batchSize {
			vals := []interface{}{}
			stmt := "INSERT INTO customers (name, email, created_at) VALUES "
			placeholders := []string{}

			for j := 0; j < batchSize; j++ {
				idx := i + j + 1
				placeholders = append(placeholders, "(?, ?, ?)")
				vals = append(vals,
					fmt.Sprintf("Customer%d", idx),
					fmt.Sprintf("customer%d@example.com", idx),
					time.Now(),
				)
			}

			stmt += strings.Join(placeholders, ",")
			if _, err := db.Exec(stmt, vals...); err != nil {
				panic(err)
			}
		}
		slog.Info("Customer seeding complete", "duration", time.Since(start))
	} else {
		slog.Info("Customers already seeded", "count", customerCount)
	}

	var orderCount int
	db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&orderCount)
	if orderCount < 1000000 {
		slog.Info("Seeding 1,000,000 orders...")
		start := time.Now()
		batchSize := 2000
		total := 1000000

		for i := 0; i < total; i += batchSize {
			vals := []interface{}{}
			stmt := "INSERT INTO orders (customer_id, amount, currency, status, created_at) VALUES "
			placeholders := []string{}

			for j := 0; j < batchSize; j++ {
				cid := (i+j)%100000 + 1 // Cycle through customers
				placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
				vals = append(vals,
					cid,
					float64(cid)*0.25,
					"USD",
					"COMPLETED",
					time.Now(),
				)
			}

			stmt += strings.Join(placeholders, ",")
			if _, err := db.Exec(stmt, vals...); err != nil {
				panic(err)
			}

			if (i+batchSize)%100000 == 0 {
				fmt.Printf("\rSeeding Orders: %d/%d", i+batchSize, total)
			}
		}
		fmt.Println()
		slog.Info("Order seeding complete", "duration", time.Since(start))
	} else {
		slog.Info("Orders already seeded", "count", orderCount)
	}

	slog.Info("Database schema and data prep complete.")
}
