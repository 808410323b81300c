// Command snapshot polls the read surface of a running server and writes the
// combined collections to a local JSON file for backup and versioning.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

type snapshot struct {
	Users         []json.RawMessage `json:"users"`
	Events        []json.RawMessage `json:"events"`
	Registrations []json.RawMessage `json:"registrations"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:3001", "Base URL of the running server")
		out      = flag.String("out", "db.json", "Snapshot output file")
		username = flag.String("username", os.Getenv("SNAPSHOT_USERNAME"), "Admin username")
		password = flag.String("password", os.Getenv("SNAPSHOT_PASSWORD"), "Admin password")
		interval = flag.Duration("interval", 0, "Polling interval; 0 runs a single snapshot")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *username == "" || *password == "" {
		slog.Error("Admin credentials are required (flags or SNAPSHOT_USERNAME/SNAPSHOT_PASSWORD)")
		os.Exit(1)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		slog.Error("Failed to create cookie jar", "error", err)
		os.Exit(1)
	}
	client := &http.Client{Jar: jar, Timeout: 30 * time.Second}

	run := func() error {
		if err := login(client, *baseURL, *username, *password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		return writeSnapshot(client, *baseURL, *out)
	}

	if err := run(); err != nil {
		slog.Error("Snapshot failed", "error", err)
		os.Exit(1)
	}

	if *interval <= 0 {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := run(); err != nil {
			slog.Error("Snapshot failed", "error", err)
		}
	}
}

func login(client *http.Client, baseURL, username, password string) error {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, payload)
	}
	return nil
}

func writeSnapshot(client *http.Client, baseURL, out string) error {
	var snap snapshot
	for _, collection := range []struct {
		name string
		dest *[]json.RawMessage
	}{
		{"users", &snap.Users},
		{"events", &snap.Events},
		{"registrations", &snap.Registrations},
	} {
		rows, err := fetchCollection(client, baseURL, collection.name)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", collection.name, err)
		}
		*collection.dest = rows
		slog.Info("Fetched collection", "collection", collection.name, "rows", len(rows))
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	slog.Info("Snapshot written", "file", out)
	return nil
}

func fetchCollection(client *http.Client, baseURL, name string) ([]json.RawMessage, error) {
	resp, err := client.Get(baseURL + "/" + name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, payload)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return rows, nil
}
