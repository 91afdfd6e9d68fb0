package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Backend management commands",
}

var backendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured backends",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range registry.Names() {
			backend := cfg.Backends[name]
			fmt.Printf("%s\t%s://%s\t%s\n", name, backend.Platform, backend.BucketName, backend.Region)
		}
	},
}

var backendsDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover backend buckets by tag",
	Long:  "Finds S3 buckets carrying the configured backend tag via the Resource Groups Tagging API",
	Run: func(cmd *cobra.Command, args []string) {
		buckets, err := dynamoDb.DiscoverBackendBuckets(context.Background(), cfg.BackendTagKey)
		if err != nil {
			fmt.Printf("Error discovering backends: %v\n", err)
			return
		}

		if len(buckets) == 0 {
			fmt.Printf("No buckets tagged %s found\n", cfg.BackendTagKey)
			return
		}
		for _, bucket := range buckets {
			fmt.Println(bucket)
		}
	},
}

func init() {
	backendsCmd.AddCommand(backendsListCmd)
	backendsCmd.AddCommand(backendsDiscoverCmd)
	rootCmd.AddCommand(backendsCmd)
}
