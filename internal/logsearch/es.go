package logsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"flexmon-go/internal/config"
	"flexmon-go/internal/metrics"
)

// ESClient implements Searcher against an Elasticsearch cluster.
type ESClient struct {
	es *elasticsearch.Client
}

// NewESClient creates a new Elasticsearch-backed searcher.
func NewESClient(cfg *config.ElasticsearchConfig) (*ESClient, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ESClient{es: client}, nil
}

// CountByHost runs the raw query DSL against the index, restricted to the
// trailing window, aggregated by host with a nested tenant resolution.
func (c *ESClient) CountByHost(ctx context.Context, index, rawQuery string, window time.Duration) ([]HostCount, error) {
	body, err := buildSearchBody(rawQuery, window)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode search body: %w", err)
	}

	start := time.Now()
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(&buf),
	)
	metrics.StoreOperationLatency.WithLabelValues("elasticsearch", "search").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreOperationsTotal.WithLabelValues("elasticsearch", "search", "failure").Inc()
		return nil, fmt.Errorf("log search failed: %w", err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.IsError() {
		metrics.StoreOperationsTotal.WithLabelValues("elasticsearch", "search", "failure").Inc()
		return nil, fmt.Errorf("log search returned status %s", res.Status())
	}
	metrics.StoreOperationsTotal.WithLabelValues("elasticsearch", "search", "success").Inc()

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return parseHostBuckets(r)
}

// buildSearchBody combines the rule's query predicate with the time range
// and the host/tenant aggregation. The raw query may be a full body with a
// "query" key or a bare query clause.
func buildSearchBody(rawQuery string, window time.Duration) (map[string]interface{}, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(rawQuery), &parsed); err != nil {
		return nil, fmt.Errorf("invalid query DSL: %w", err)
	}

	clause, ok := parsed["query"].(map[string]interface{})
	if !ok {
		clause = parsed
	}

	rangeFilter := map[string]interface{}{
		"range": map[string]interface{}{
			"@timestamp": map[string]interface{}{
				"gte": fmt.Sprintf("now-%ds", int(window.Seconds())),
			},
		},
	}

	boolQuery := map[string]interface{}{
		"filter": []interface{}{rangeFilter},
	}
	if len(clause) > 0 {
		boolQuery["must"] = []interface{}{clause}
	}

	return map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"aggs": map[string]interface{}{
			"hosts": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "host",
					"size":  1000,
				},
				"aggs": map[string]interface{}{
					"tenant": map[string]interface{}{
						"terms": map[string]interface{}{
							"field": "tenant_id",
							"size":  1,
						},
					},
				},
			},
		},
	}, nil
}

// parseHostBuckets extracts host buckets and their resolved tenants from
// the aggregation response.
func parseHostBuckets(r map[string]interface{}) ([]HostCount, error) {
	aggs, ok := r["aggregations"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	hosts, ok := aggs["hosts"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response: missing hosts aggregation")
	}
	buckets, ok := hosts["buckets"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response: missing host buckets")
	}

	var results []HostCount
	for _, b := range buckets {
		bucket, ok := b.(map[string]interface{})
		if !ok {
			continue
		}

		host, ok := bucket["key"].(string)
		if !ok {
			continue
		}
		count, ok := bucket["doc_count"].(float64)
		if !ok {
			continue
		}

		hc := HostCount{Host: host, Count: int64(count)}

		// The nested tenant aggregation yields at most one bucket; a host
		// whose documents carry no tenant field yields none.
		if tenantAgg, ok := bucket["tenant"].(map[string]interface{}); ok {
			if tenantBuckets, ok := tenantAgg["buckets"].([]interface{}); ok && len(tenantBuckets) > 0 {
				if tb, ok := tenantBuckets[0].(map[string]interface{}); ok {
					if tenant, ok := tb["key"].(string); ok {
						hc.TenantID = tenant
					}
				}
			}
		}

		results = append(results, hc)
	}

	return results, nil
}
