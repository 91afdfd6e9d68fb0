package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/config"
	"github.com/zzenonn/zroute/internal/domain"
	"github.com/zzenonn/zroute/internal/logging"
	"github.com/zzenonn/zroute/internal/migration"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
	"github.com/zzenonn/zroute/internal/repository/db"
	"github.com/zzenonn/zroute/internal/routing"
)

var (
	cfg        *config.Config
	dynamoDb   *db.DynamoDb
	registry   *backendstore.Registry
	analyzer   *routing.Analyzer
	metrics    *routing.MetricsStore
	rules      *routing.RuleEngine
	router     *routing.Router
	policies   *migration.PolicyStore
	tasks      *migration.TaskStore
	controller *migration.Controller
)

var (
	cfgFile string
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "zroute",
	Short: "Content-aware routing and migration for multi-backend object storage",
	Long:  "A CLI for routing content to storage backends by cost, latency, and geography, and for migrating stored content between backends",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress bars")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize and migrate the database",
	Run: func(cmd *cobra.Command, args []string) {
		if err := dynamoDb.MigrateDb(context.Background()); err != nil {
			fmt.Printf("Failed to migrate the database: %v\n", err)
			return
		}

		fmt.Println("Database initialized and migrated successfully")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if err := dynamoDb.MigrateDown(context.Background()); err != nil {
			fmt.Printf("Failed to roll back migrations: %v\n", err)
			return
		}

		fmt.Println("Database migrations rolled back successfully")
	},
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	dynamoDb, err = db.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	ruleRepository := db.NewRuleRepository(dynamoDb.Client, cfg.RulesTable)
	rules = routing.NewRuleEngine(&ruleRepository)

	policyRepository := db.NewPolicyRepository(dynamoDb.Client, cfg.PoliciesTable)
	policies = migration.NewPolicyStore(&policyRepository)

	taskRepository := db.NewTaskRepository(dynamoDb.Client, cfg.TasksTable)
	batchRepository := db.NewBatchRepository(dynamoDb.Client, cfg.BatchesTable)
	tasks = migration.NewTaskStore(&taskRepository, &batchRepository)

	registry = buildRegistry(cfg)
	analyzer = routing.NewAnalyzer()
	metrics = routing.NewMetricsStore()
	loadMetrics()

	defaultStrategy, err := domain.ParseStrategy(cfg.DefaultStrategy)
	if err != nil {
		log.Fatalf("Invalid default_strategy: %v", err)
	}

	scoring := routing.NewScoringEngine(metrics)
	router = routing.NewRouter(analyzer, rules, scoring, metrics, registry, defaultStrategy)
	controller = migration.NewController(policies, tasks, registry, metrics)
}

// buildRegistry registers one backend store per configured backend, in
// name order so registration is deterministic.
func buildRegistry(cfg *config.Config) *backendstore.Registry {
	registry := backendstore.NewRegistry()
	factory := backendstore.NewFactory(cfg.AwsConfig, cfg.GcsClient, quiet)

	names := make([]string, 0, len(cfg.Backends))
	for name := range cfg.Backends {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		backend := cfg.Backends[name]
		store, err := factory.CreateBackend(backendstore.BucketConfig{
			Name: backend.BucketName,
			Type: backendstore.PlatformType(backend.Platform),
		})
		if err != nil {
			log.Fatalf("Failed to create backend %s: %v", name, err)
		}
		if err := registry.Register(name, store); err != nil {
			log.Fatalf("Failed to register backend %s: %v", name, err)
		}
	}

	return registry
}

// loadRules hydrates the rule engine from DynamoDB.
func loadRules() error {
	return rules.Load(context.Background())
}

// loadPolicies hydrates the policy store from DynamoDB.
func loadPolicies() error {
	return policies.Load(context.Background())
}

// loadTasks hydrates the task store from DynamoDB.
func loadTasks() error {
	return tasks.Load(context.Background())
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(downCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
