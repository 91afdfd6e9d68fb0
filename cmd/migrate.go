package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Content migration commands",
	Long:  "Queue, inspect, and manage migrations of stored content between backends",
}

var (
	migratePriority     string
	migrateDeleteSource bool
	migrateStatus       string
	migrateSource       string
	migrateDestination  string
	migrateBatch        string
	migrateCleanupDays  int
)

var migrateStartCmd = &cobra.Command{
	Use:   "start [source-backend] [destination-backend] [content-id...]",
	Short: "Queue migration of one or more content items",
	Args:  cobra.MinimumNArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		source, destination, contentIDs := args[0], args[1], args[2:]

		priority := domain.PriorityNormal
		if migratePriority != "" {
			parsed, err := domain.ParsePriority(migratePriority)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			priority = parsed
		}

		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		if len(contentIDs) == 1 {
			task, err := controller.StartMigration(context.Background(), source, destination, contentIDs[0], priority, migrateDeleteSource)
			if err != nil {
				fmt.Printf("Error starting migration: %v\n", err)
				return
			}
			fmt.Printf("Migration task queued: %s\n", task.ID)
			printJSON(task)
			return
		}

		queued, err := controller.StartBatch(context.Background(), source, destination, contentIDs, priority, migrateDeleteSource)
		if err != nil {
			fmt.Printf("Error starting migrations: %v\n", err)
			return
		}
		fmt.Printf("%d migration tasks queued\n", len(queued))
		printJSON(queued)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show one migration task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		task, err := controller.Task(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printJSON(task)
	},
}

var migrateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List migration tasks",
	Run: func(cmd *cobra.Command, args []string) {
		filter := migration.TaskFilter{
			SourceBackend:      migrateSource,
			DestinationBackend: migrateDestination,
			BatchID:            migrateBatch,
		}
		if migrateStatus != "" {
			status, err := domain.ParseTaskStatus(migrateStatus)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			filter.Status = status
		}

		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		printJSON(controller.List(filter))
	},
}

var migrateCancelCmd = &cobra.Command{
	Use:   "cancel [task-id]",
	Short: "Cancel a queued or in-progress migration task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		if err := controller.Cancel(context.Background(), args[0]); err != nil {
			fmt.Printf("Error cancelling task: %v\n", err)
			return
		}
		fmt.Printf("Task cancelled: %s\n", args[0])
	},
}

var migrateSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show task counts per status",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}
		printJSON(controller.Summary())
	},
}

var migrateCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete finished tasks older than the retention window",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		removed, err := controller.Cleanup(context.Background(), migrateCleanupDays)
		if err != nil {
			fmt.Printf("Error cleaning up tasks: %v\n", err)
			return
		}
		fmt.Printf("Removed %d finished tasks\n", removed)
	},
}

var migrateEstimateCmd = &cobra.Command{
	Use:   "estimate [source-backend] [destination-backend] [content-id]",
	Short: "Estimate cost and duration of migrating one content item",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		estimate, err := controller.Estimate(context.Background(), args[0], args[1], args[2])
		if err != nil {
			fmt.Printf("Error estimating migration: %v\n", err)
			return
		}
		printJSON(estimate)
	},
}

var migrateRunCmd = &cobra.Command{
	Use:   "run [policy-name]",
	Short: "Execute a migration policy now",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadPolicies(); err != nil {
			fmt.Printf("Error loading policies: %v\n", err)
			return
		}
		if err := loadTasks(); err != nil {
			fmt.Printf("Error loading tasks: %v\n", err)
			return
		}

		batch, err := controller.ExecutePolicy(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error executing policy: %v\n", err)
			return
		}
		fmt.Printf("Policy %s queued %d tasks in batch %s\n", args[0], len(batch.TaskIDs), batch.BatchID)
		printJSON(batch)
	},
}

var migratePolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Migration policy management commands",
}

var migratePolicyCreateCmd = &cobra.Command{
	Use:   "create [policy-file.json]",
	Short: "Create a migration policy from a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		policy, err := readPolicyFile(args[0])
		if err != nil {
			fmt.Printf("Error reading policy file: %v\n", err)
			return
		}

		if err := loadPolicies(); err != nil {
			fmt.Printf("Error loading policies: %v\n", err)
			return
		}

		created, err := policies.Create(context.Background(), policy)
		if err != nil {
			fmt.Printf("Error creating policy: %v\n", err)
			return
		}
		fmt.Printf("Policy created successfully: %s\n", created.Name)
	},
}

var migratePolicyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List migration policies",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadPolicies(); err != nil {
			fmt.Printf("Error loading policies: %v\n", err)
			return
		}
		printJSON(policies.List())
	},
}

var migratePolicyGetCmd = &cobra.Command{
	Use:   "get [policy-name]",
	Short: "Show one migration policy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadPolicies(); err != nil {
			fmt.Printf("Error loading policies: %v\n", err)
			return
		}

		policy, err := policies.Get(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printJSON(policy)
	},
}

var migratePolicyDeleteCmd = &cobra.Command{
	Use:   "delete [policy-name]",
	Short: "Delete a migration policy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadPolicies(); err != nil {
			fmt.Printf("Error loading policies: %v\n", err)
			return
		}

		if err := policies.Delete(context.Background(), args[0]); err != nil {
			fmt.Printf("Error deleting policy: %v\n", err)
			return
		}
		fmt.Printf("Policy deleted successfully: %s\n", args[0])
	},
}

var migrateBatchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List migration batches",
	Run: func(cmd *cobra.Command, args []string) {
		batches, err := tasks.Batches(context.Background())
		if err != nil {
			fmt.Printf("Error listing batches: %v\n", err)
			return
		}
		printJSON(batches)
	},
}

func readPolicyFile(path string) (domain.MigrationPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.MigrationPolicy{}, err
	}

	var policy domain.MigrationPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return domain.MigrationPolicy{}, err
	}
	return policy, nil
}

func init() {
	migrateStartCmd.Flags().StringVar(&migratePriority, "priority", "", "Task priority (low, normal, high, critical)")
	migrateStartCmd.Flags().BoolVar(&migrateDeleteSource, "delete-source", false, "Delete the source copy after a successful migration")
	migrateListCmd.Flags().StringVar(&migrateStatus, "status", "", "Filter by task status")
	migrateListCmd.Flags().StringVar(&migrateSource, "source", "", "Filter by source backend")
	migrateListCmd.Flags().StringVar(&migrateDestination, "destination", "", "Filter by destination backend")
	migrateListCmd.Flags().StringVar(&migrateBatch, "batch", "", "Filter by batch id")
	migrateCleanupCmd.Flags().IntVar(&migrateCleanupDays, "days", 30, "Retention window in days")

	migratePolicyCmd.AddCommand(migratePolicyCreateCmd)
	migratePolicyCmd.AddCommand(migratePolicyListCmd)
	migratePolicyCmd.AddCommand(migratePolicyGetCmd)
	migratePolicyCmd.AddCommand(migratePolicyDeleteCmd)

	migrateCmd.AddCommand(migrateStartCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateListCmd)
	migrateCmd.AddCommand(migrateCancelCmd)
	migrateCmd.AddCommand(migrateSummaryCmd)
	migrateCmd.AddCommand(migrateCleanupCmd)
	migrateCmd.AddCommand(migrateEstimateCmd)
	migrateCmd.AddCommand(migrateRunCmd)
	migrateCmd.AddCommand(migratePolicyCmd)
	migrateCmd.AddCommand(migrateBatchesCmd)
	rootCmd.AddCommand(migrateCmd)
}
