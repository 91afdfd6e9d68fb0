package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/routing"
)

var (
	routeStrategy    string
	routePriority    string
	routeBackend     string
	routeContentType string
	routeLat         float64
	routeLon         float64
	routeMetadata    []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file-path]",
	Short: "Analyze a file and show the routing decision without storing it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, metadata, err := readRouteInput(args[0])
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			return
		}

		opts, err := buildRouteOptions(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		decision, err := router.Analyze(content, metadata, opts)
		if err != nil {
			fmt.Printf("Error analyzing content: %v\n", err)
			return
		}

		printJSON(decision)
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [file-path]",
	Short: "Route a file to the best backend and store it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, metadata, err := readRouteInput(args[0])
		if err != nil {
			fmt.Printf("Error reading file: %v\n", err)
			return
		}

		opts, err := buildRouteOptions(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}

		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		result, err := router.Route(context.Background(), content, metadata, opts)
		if err != nil {
			fmt.Printf("Error routing content: %v\n", err)
			if result.Decision.SelectedBackend != "" {
				printJSON(result)
			}
			return
		}

		fmt.Printf("Stored %s on backend %s\n", result.ContentID, result.Decision.SelectedBackend)
		printJSON(result)
	},
}

// readRouteInput reads the file and assembles routing metadata from its
// name and the CLI flags.
func readRouteInput(filePath string) ([]byte, map[string]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, err
	}

	metadata := map[string]string{
		"filename": filepath.Base(filePath),
	}
	if routeContentType != "" {
		metadata["content_type"] = routeContentType
	}
	for _, pair := range routeMetadata {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[parts[0]] = parts[1]
	}

	return content, metadata, nil
}

func buildRouteOptions(cmd *cobra.Command) (routing.RouteOptions, error) {
	opts := routing.RouteOptions{Backend: routeBackend}

	if routeStrategy != "" {
		strategy, err := domain.ParseStrategy(routeStrategy)
		if err != nil {
			return routing.RouteOptions{}, err
		}
		opts.Strategy = strategy
	}

	if routePriority != "" {
		priority, err := domain.ParsePriority(routePriority)
		if err != nil {
			return routing.RouteOptions{}, err
		}
		opts.Priority = priority
	}

	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		opts.Location = &domain.GeoLocation{Latitude: routeLat, Longitude: routeLon}
	}

	return opts, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, routeCmd} {
		cmd.Flags().StringVar(&routeStrategy, "strategy", "", "Routing strategy (cost_optimized, latency_optimized, geo_optimized, balanced)")
		cmd.Flags().StringVar(&routePriority, "priority", "", "Priority fallback when no rule matches (low, normal, high, critical)")
		cmd.Flags().StringVar(&routeContentType, "content-type", "", "Override content type detection")
		cmd.Flags().Float64Var(&routeLat, "lat", 0, "Client latitude for geo scoring")
		cmd.Flags().Float64Var(&routeLon, "lon", 0, "Client longitude for geo scoring")
		cmd.Flags().StringArrayVar(&routeMetadata, "metadata", nil, "Extra metadata as key=value (repeatable)")
	}
	routeCmd.Flags().StringVar(&routeBackend, "backend", "", "Bypass routing and store on this backend")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(routeCmd)
}
