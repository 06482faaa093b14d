package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/db"
	"github.com/nailtimes/salon-backend/internal/phone"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAppointments(context.Background(), pool, 60); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}
	if err := seedThreads(context.Background(), pool, 15); err != nil {
		log.Fatalf("seed threads: %v", err)
	}

	log.Println("seed complete")
}

var serviceCatalog = []booking.SelectedService{
	{Name: "Classic Manicure", Category: "Manicure", Price: 28, DurationMinutes: 30},
	{Name: "Gel Manicure", Category: "Manicure", Price: 42, DurationMinutes: 45},
	{Name: "Spa Pedicure", Category: "Pedicure", Price: 55, DurationMinutes: 60},
	{Name: "Acrylic Full Set", Category: "Extensions", Price: 65, DurationMinutes: 90},
	{Name: "Dip Powder", Category: "Extensions", Price: 50, DurationMinutes: 60},
	{Name: "Nail Art", Category: "Design", Price: 20, DurationMinutes: 30},
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d appointments", count)

	statuses := []string{"pending", "pending", "confirmed", "confirmed", "confirmed", "cancelled"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Spread appointments over the next two weeks, one per slot so seeded
	// data never violates the no-overlap rule.
	slot := time.Now().Truncate(time.Hour).Add(24 * time.Hour)

	for i := 0; i < count; i++ {
		picked := serviceCatalog[gofakeit.Number(0, len(serviceCatalog)-1)]
		services, err := json.Marshal([]booking.SelectedService{picked})
		if err != nil {
			return err
		}

		minutes := picked.DurationMinutes
		start := slot
		end := start.Add(time.Duration(minutes) * time.Minute)
		slot = end.Add(time.Duration(gofakeit.Number(1, 4)) * time.Hour)

		status := statuses[gofakeit.Number(0, len(statuses)-1)]
		var confirmedAt, cancelledAt *time.Time
		now := time.Now()
		switch status {
		case "confirmed":
			confirmedAt = &now
		case "cancelled":
			cancelledAt = &now
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO appointments
				(id, customer_name, customer_email, customer_phone, service, selected_services,
				 start_time, end_time, duration_minutes, notes, status, confirmed_at, cancelled_at,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		`, uuid.New(), gofakeit.Name(), gofakeit.Email(), fakePhone(), picked.Name, services,
			start, end, minutes, "", status, confirmedAt, cancelledAt)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("appointments seeded")
	return nil
}

func seedThreads(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d message threads", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		customerPhone := fakePhone()
		name := gofakeit.Name()
		messages := gofakeit.Number(2, 6)
		at := time.Now().Add(-time.Duration(gofakeit.Number(1, 72)) * time.Hour)

		for j := 0; j < messages; j++ {
			direction := "inbound"
			var readAt *time.Time
			if j%2 == 1 {
				direction = "outbound"
				readAt = &at
			} else if j < messages-1 {
				// Older inbound texts have been read; the newest may not be.
				readAt = &at
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO messages
					(id, customer_phone, customer_name, direction, body,
					 provider_sid, provider_status, read_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, uuid.New(), customerPhone, name, direction, gofakeit.Sentence(gofakeit.Number(4, 12)),
				fmt.Sprintf("SM%s", gofakeit.LetterN(32)), "delivered", readAt, at)
			if err != nil {
				return err
			}

			at = at.Add(time.Duration(gofakeit.Number(1, 30)) * time.Minute)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("message threads seeded")
	return nil
}

func fakePhone() string {
	return phone.Normalize(fmt.Sprintf("555%07d", gofakeit.Number(0, 9999999)))
}
