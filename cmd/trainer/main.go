// Command trainer converts recorded match tables (Match-*.csv) into
// observations and uploads them to the ingest endpoint.
//
// A match table has the round label in the first column and one column per
// player; each cell names the opponent that player faced in that round.
// "Creep" rounds (warmup) and "Null" rounds (eliminated) carry no signal and
// are skipped. An "M." prefix marks a mirror copy of a player; it counts as
// the real player when faced, but never as a transition source.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type observation struct {
	MatchID      string `json:"match_id"`
	Player       string `json:"player"`
	RoundIndex   int    `json:"round_index"`
	Opponent     string `json:"opponent"`
	PrevOpponent string `json:"prev_opponent"`
}

func main() {
	dataDir := flag.String("data", ".", "directory containing Match-*.csv files")
	apiURL := flag.String("api", "http://localhost:8080/api/v1/ingest/observations", "ingest endpoint")
	batchSize := flag.Int("batch", 500, "observations per upload request")
	flag.Parse()

	files, err := filepath.Glob(filepath.Join(*dataDir, "Match-*.csv"))
	if err != nil {
		log.Fatalf("Failed to list match files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No Match-*.csv files found in %s", *dataDir)
	}
	sort.Strings(files)

	var all []observation
	for _, file := range files {
		obs, err := parseMatchFile(file)
		if err != nil {
			log.Printf("Warning: %s skipped: %v", file, err)
			continue
		}
		log.Printf("Parsed %s: %d observations", filepath.Base(file), len(obs))
		all = append(all, obs...)
	}

	if len(all) == 0 {
		log.Fatal("No observations parsed, nothing to upload")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	uploaded := 0
	for start := 0; start < len(all); start += *batchSize {
		end := start + *batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := upload(client, *apiURL, all[start:end]); err != nil {
			log.Fatalf("Upload failed at offset %d: %v", start, err)
		}
		uploaded += end - start
	}

	log.Printf("Done: uploaded %d observations from %d files", uploaded, len(files))
}

// parseMatchFile turns one match table into observations. The raw previous
// cell decides the transition source: a skipped or mirrored previous round
// yields an empty prev_opponent.
func parseMatchFile(path string) ([]observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	matchID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	header := records[0]
	rows := records[1:]

	var observations []observation
	for col := 1; col < len(header); col++ {
		player := strings.TrimSpace(header[col])
		if player == "" {
			continue
		}

		for roundIdx, row := range rows {
			if col >= len(row) {
				continue
			}
			opponent := strings.TrimSpace(row[col])
			if opponent == "Creep" || opponent == "Null" || opponent == "" {
				continue
			}
			opponent = strings.TrimPrefix(opponent, "M.")

			prev := ""
			if roundIdx > 0 && col < len(rows[roundIdx-1]) {
				raw := strings.TrimSpace(rows[roundIdx-1][col])
				if raw != "Creep" && raw != "Null" && !strings.HasPrefix(raw, "M.") {
					prev = raw
				}
			}

			observations = append(observations, observation{
				MatchID:      matchID,
				Player:       player,
				RoundIndex:   roundIdx,
				Opponent:     opponent,
				PrevOpponent: prev,
			})
		}
	}

	return observations, nil
}

// upload sends a batch as newline-separated JSON, the format the ingest
// endpoint expects.
func upload(client *http.Client, apiURL string, batch []observation) error {
	var buf bytes.Buffer
	for _, obs := range batch {
		line, err := json.Marshal(obs)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	resp, err := client.Post(apiURL, "application/json", &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	log.Printf("Uploaded batch of %d: %s", len(batch), strings.TrimSpace(string(body)))
	return nil
}
