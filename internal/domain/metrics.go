package domain

import "time"

// BackendMetrics is the latest health/cost snapshot for one backend.
// One row per backend name; each update replaces the previous snapshot
// in full (last-write-wins, no partial merge).
type BackendMetrics struct {
	BackendName        string    `json:"backend_name" dynamodbav:"backend_name"`
	AvgLatencyMs       float64   `json:"avg_latency_ms" dynamodbav:"avg_latency_ms"`
	SuccessRate        float64   `json:"success_rate" dynamodbav:"success_rate"`
	ThroughputMbps     float64   `json:"throughput_mbps" dynamodbav:"throughput_mbps"`
	StorageCostPerGB   float64   `json:"storage_cost_per_gb" dynamodbav:"storage_cost_per_gb"`
	RetrievalCostPerGB float64   `json:"retrieval_cost_per_gb" dynamodbav:"retrieval_cost_per_gb"`
	BandwidthCostPerGB float64   `json:"bandwidth_cost_per_gb" dynamodbav:"bandwidth_cost_per_gb"`
	TotalStoredBytes   int64     `json:"total_stored_bytes" dynamodbav:"total_stored_bytes"`
	TotalRetrievedByte int64     `json:"total_retrieved_bytes" dynamodbav:"total_retrieved_bytes"`
	Region             string    `json:"region" dynamodbav:"region"`
	MultiRegion        bool      `json:"multi_region" dynamodbav:"multi_region"`
	UptimePct          float64   `json:"uptime_pct" dynamodbav:"uptime_pct"`
	UpdatedAt          time.Time `json:"updated_at" dynamodbav:"updated_at"`
}
