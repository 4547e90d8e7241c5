// Ad-hoc inspection of the observation log. Reads CLICKHOUSE_URL and dumps
// per-player observation counts plus the strongest transitions.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	ctx := context.Background()

	dsn := os.Getenv("CLICKHOUSE_URL")
	if dsn == "" {
		dsn = "clickhouse://default:@localhost:9000/magicchess"
	}
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}

	var total uint64
	if err := conn.QueryRow(ctx, "SELECT count() FROM magicchess.match_observations").Scan(&total); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Total observations: %d\n\n", total)

	rows, err := conn.Query(ctx, `
		SELECT player, count() AS cnt
		FROM magicchess.match_observations
		GROUP BY player
		ORDER BY cnt DESC
	`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Per player:")
	for rows.Next() {
		var player string
		var cnt uint64
		if err := rows.Scan(&player, &cnt); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %-12s %d\n", player, cnt)
	}
	rows.Close()

	rows, err = conn.Query(ctx, `
		SELECT player, prev_opponent, opponent, count() AS cnt
		FROM magicchess.match_observations
		WHERE prev_opponent != ''
		GROUP BY player, prev_opponent, opponent
		ORDER BY cnt DESC
		LIMIT 20
	`)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("\nTop transitions:")
	for rows.Next() {
		var player, prev, opp string
		var cnt uint64
		if err := rows.Scan(&player, &prev, &opp, &cnt); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  %s: %s -> %s (%d)\n", player, prev, opp, cnt)
	}
	rows.Close()
}
