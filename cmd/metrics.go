package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/domain"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Backend metrics management commands",
	Long:  "Inspect and update the per-backend health and cost snapshots used for scoring",
}

var metricsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show metrics for all backends",
	Run: func(cmd *cobra.Command, args []string) {
		printJSON(metrics.All())
	},
}

var metricsGetCmd = &cobra.Command{
	Use:   "get [backend-name]",
	Short: "Show metrics for one backend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m, err := metrics.Get(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printJSON(m)
	},
}

var metricsSetCmd = &cobra.Command{
	Use:   "set [backend-name]",
	Short: "Replace the metrics snapshot for one backend",
	Long:  "Replaces the backend's snapshot in full; flags left at their defaults are stored as zero values",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]

		m := domain.BackendMetrics{
			AvgLatencyMs:       metricsLatencyMs,
			SuccessRate:        metricsSuccessRate,
			ThroughputMbps:     metricsThroughput,
			StorageCostPerGB:   metricsStorageCost,
			RetrievalCostPerGB: metricsRetrievalCost,
			BandwidthCostPerGB: metricsBandwidthCost,
			Region:             metricsRegion,
			MultiRegion:        metricsMultiRegion,
			UptimePct:          metricsUptimePct,
		}
		applyBackendDefaults(name, &m)

		metrics.Update(name, m)
		if err := saveMetrics(); err != nil {
			fmt.Printf("Error saving metrics: %v\n", err)
			return
		}
		fmt.Printf("Metrics updated for backend %s\n", name)
	},
}

var (
	metricsLatencyMs     float64
	metricsSuccessRate   float64
	metricsThroughput    float64
	metricsStorageCost   float64
	metricsRetrievalCost float64
	metricsBandwidthCost float64
	metricsRegion        string
	metricsMultiRegion   bool
	metricsUptimePct     float64
)

// loadMetrics hydrates the in-memory metrics store from the metrics file.
// A missing file is not an error; the store starts empty.
func loadMetrics() {
	data, err := os.ReadFile(cfg.MetricsFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Failed to read metrics file %s: %v", cfg.MetricsFile, err)
		}
		return
	}

	var snapshots map[string]domain.BackendMetrics
	if err := json.Unmarshal(data, &snapshots); err != nil {
		log.Warnf("Failed to parse metrics file %s: %v", cfg.MetricsFile, err)
		return
	}

	for name, m := range snapshots {
		applyBackendDefaults(name, &m)
		metrics.Update(name, m)
	}
}

// saveMetrics writes the current metrics store back to the metrics file.
func saveMetrics() error {
	data, err := json.MarshalIndent(metrics.All(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.MetricsFile, data, 0644)
}

// applyBackendDefaults fills region fields from the backend configuration
// when the snapshot leaves them unset.
func applyBackendDefaults(name string, m *domain.BackendMetrics) {
	backend, ok := cfg.Backends[name]
	if !ok {
		return
	}
	if m.Region == "" {
		m.Region = backend.Region
	}
	if backend.MultiRegion {
		m.MultiRegion = true
	}
}

func init() {
	metricsSetCmd.Flags().Float64Var(&metricsLatencyMs, "latency-ms", 0, "Average request latency in milliseconds")
	metricsSetCmd.Flags().Float64Var(&metricsSuccessRate, "success-rate", 1, "Request success rate in [0,1]")
	metricsSetCmd.Flags().Float64Var(&metricsThroughput, "throughput-mbps", 0, "Sustained throughput in Mbps")
	metricsSetCmd.Flags().Float64Var(&metricsStorageCost, "storage-cost", 0, "Storage cost per GB-month")
	metricsSetCmd.Flags().Float64Var(&metricsRetrievalCost, "retrieval-cost", 0, "Retrieval cost per GB")
	metricsSetCmd.Flags().Float64Var(&metricsBandwidthCost, "bandwidth-cost", 0, "Egress bandwidth cost per GB")
	metricsSetCmd.Flags().StringVar(&metricsRegion, "region", "", "Backend region identifier")
	metricsSetCmd.Flags().BoolVar(&metricsMultiRegion, "multi-region", false, "Backend is multi-region")
	metricsSetCmd.Flags().Float64Var(&metricsUptimePct, "uptime-pct", 1, "Uptime fraction in [0,1]")

	metricsCmd.AddCommand(metricsListCmd)
	metricsCmd.AddCommand(metricsGetCmd)
	metricsCmd.AddCommand(metricsSetCmd)
	rootCmd.AddCommand(metricsCmd)
}
