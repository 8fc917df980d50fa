package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const logsIndex = "flexmon-logs"

func main() {
	esURL := "http://localhost:9200"

	// flexmon-logs index mapping. host and tenant_id are keywords so the
	// engine's terms aggregations work without fielddata.
	logsMapping := []byte(`{
	  "mappings": {
	    "properties": {
	      "@timestamp": { "type": "date" },
	      "tenant_id":  { "type": "keyword" },
	      "host":       { "type": "keyword" },
	      "level":      { "type": "keyword" },
	      "service":    { "type": "keyword" },
	      "message":    { "type": "text" }
	    }
	  }
	}`)

	createIndex(esURL, logsIndex, logsMapping)
}

func createIndex(esURL, index string, mapping []byte) {
	url := fmt.Sprintf("%s/%s", esURL, index)
	req, err := http.NewRequest("PUT", url, bytes.NewBuffer(mapping))
	if err != nil {
		fmt.Printf("Failed to create request for %s: %v\n", index, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Failed to create index %s: %v\n", index, err)
		return
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Index %s: %s\n", index, string(body))
}
