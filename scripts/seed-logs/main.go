package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"flexmon-go/schema"
)

func sampleLogs() []schema.LogEntry {
	now := time.Now().UTC()
	var entries []schema.LogEntry
	for i := 0; i < 15; i++ {
		entries = append(entries, schema.LogEntry{
			Timestamp: now.Add(-time.Duration(i) * 10 * time.Second),
			TenantID:  "t1",
			Host:      "prod-server-01",
			Level:     "error",
			Service:   "payment-service",
			Message:   "upstream connection refused",
		})
	}
	return entries
}

func main() {
	cfg := elasticsearch.Config{
		Addresses: []string{
			"http://localhost:9200",
		},
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Fatalf("Error creating the client: %s", err)
	}

	for _, entry := range sampleLogs() {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(entry); err != nil {
			log.Fatalf("Error encoding document: %s", err)
		}

		req := esapi.IndexRequest{
			Index:   "flexmon-logs",
			Body:    &buf,
			Refresh: "true",
		}

		res, err := req.Do(context.Background(), es)
		if err != nil {
			log.Fatalf("Error getting response: %s", err)
		}

		if res.IsError() {
			log.Printf("[%s] Error indexing log entry", res.Status())
		} else {
			log.Printf("[%s] Log entry indexed successfully", res.Status())
		}

		if err := res.Body.Close(); err != nil {
			log.Printf("Error closing response body: %s", err)
		}
	}
}
