// Package main seeds the marketplace catalog with demo products and emits
// the matching product.created events, so a locally running search service
// picks them up the same way it would in production.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	segkafka "github.com/segmentio/kafka-go"

	"github.com/grovemarket/search-service/pkg/kafka"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var categories = []struct {
	Name  string
	Items []string
}{
	{"Shoes", []string{"Trail Running Shoes", "Road Running Shoes", "Leather Boots", "Canvas Sneakers"}},
	{"Apparel", []string{"Running Jacket", "Merino Base Layer", "Rain Shell", "Fleece Hoodie"}},
	{"Kitchen", []string{"Espresso Machine", "Cast Iron Skillet", "Ceramic Mug Set", "Chef Knife"}},
	{"Electronics", []string{"Wireless Earbuds", "Mechanical Keyboard", "4K Monitor", "USB-C Dock"}},
}

var brands = []string{"Apex", "Strider", "Kilnworks", "Brewline", "Loopwear", "Hidecraft", "Northbound"}

func main() {
	ctx := context.Background()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("POSTGRES_USER", "marketplace"),
		getEnv("POSTGRES_PASSWORD", "marketplace_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "marketplace"),
	)

	perCategory, err := strconv.Atoi(getEnv("SEED_PRODUCTS_PER_CATEGORY", "25"))
	if err != nil || perCategory < 1 {
		log.Fatalf("invalid SEED_PRODUCTS_PER_CATEGORY")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	writer := &segkafka.Writer{
		Addr:     segkafka.TCP(getEnv("KAFKA_BROKERS", "localhost:9092")),
		Topic:    kafka.Topic("product", "created"),
		Balancer: &segkafka.Hash{},
	}
	defer writer.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	total := 0

	for _, cat := range categories {
		// The upsert returns the surviving id so that on a re-run the
		// products reference the existing category instead of a row
		// that was never inserted.
		var categoryID string
		err := pool.QueryRow(ctx,
			`INSERT INTO categories (id, name) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			uuid.New().String(), cat.Name,
		).Scan(&categoryID)
		if err != nil {
			log.Fatalf("upsert category %s: %v", cat.Name, err)
		}

		for i := 0; i < perCategory; i++ {
			base := cat.Items[i%len(cat.Items)]
			brand := brands[rng.Intn(len(brands))]
			productID := uuid.New().String()
			name := fmt.Sprintf("%s %s %d", brand, base, i+1)

			_, err := pool.Exec(ctx, `
				INSERT INTO products (id, name, description, brand, category_id, price, rating, review_count)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				productID,
				name,
				fmt.Sprintf("Demo listing for %s in %s.", base, cat.Name),
				brand,
				categoryID,
				float64(rng.Intn(30000))/100+5,
				3.0+rng.Float64()*2,
				rng.Intn(600),
			)
			if err != nil {
				log.Fatalf("insert product %s: %v", name, err)
			}

			event, err := kafka.NewEvent("product.created", productID, "product", "seed", map[string]string{"name": name})
			if err != nil {
				log.Fatalf("build event: %v", err)
			}
			payload, err := event.Marshal()
			if err != nil {
				log.Fatalf("marshal event: %v", err)
			}
			if err := writer.WriteMessages(ctx, segkafka.Message{
				Key:   []byte(productID),
				Value: payload,
			}); err != nil {
				log.Fatalf("publish event for %s: %v", name, err)
			}
			total++
		}
		log.Printf("seeded category %s with %d products", cat.Name, perCategory)
	}

	log.Printf("done: %d products seeded and announced", total)
}
