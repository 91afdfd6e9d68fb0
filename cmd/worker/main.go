package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/config"
	"github.com/zzenonn/zroute/internal/logging"
	"github.com/zzenonn/zroute/internal/migration"
	"github.com/zzenonn/zroute/internal/repository/backendstore"
	"github.com/zzenonn/zroute/internal/repository/db"
	"github.com/zzenonn/zroute/internal/routing"
)

var (
	cfg        *config.Config
	registry   *backendstore.Registry
	policies   *migration.PolicyStore
	tasks      *migration.TaskStore
	controller *migration.Controller
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "zroute-worker",
	Short: "Migration worker daemon",
	Long:  "Runs the migration executor and the periodic policy scheduler until interrupted",
	Run: func(cmd *cobra.Command, args []string) {
		run()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
}

func initConfig() {
	var err error
	cfg, err = config.LoadConfig(cfgFile, rootCmd)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logging.InitLogger(cfg)

	dynamoDb, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	policyRepository := db.NewPolicyRepository(dynamoDb.Client, cfg.PoliciesTable)
	policies = migration.NewPolicyStore(&policyRepository)

	taskRepository := db.NewTaskRepository(dynamoDb.Client, cfg.TasksTable)
	batchRepository := db.NewBatchRepository(dynamoDb.Client, cfg.BatchesTable)
	tasks = migration.NewTaskStore(&taskRepository, &batchRepository)

	registry = backendstore.NewRegistry()
	factory := backendstore.NewFactory(cfg.AwsConfig, cfg.GcsClient, true)

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

	controller = migration.NewController(policies, tasks, registry, routing.NewMetricsStore())
}

func run() {
	ctx := context.Background()

	if err := policies.Load(ctx); err != nil {
		log.Fatalf("Failed to load policies: %v", err)
	}
	if err := tasks.Load(ctx); err != nil {
		log.Fatalf("Failed to load tasks: %v", err)
	}

	executor := migration.NewExecutor(tasks, registry, migration.ExecutorOptions{
		Workers:      cfg.Executor.Workers,
		MaxRetries:   cfg.Executor.MaxRetries,
		RetryBackoff: cfg.Executor.RetryBackoff,
		PollInterval: cfg.Executor.PollInterval,
	})
	scheduler := migration.NewScheduler(policies, controller)

	executor.Start(ctx)
	scheduler.Start()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Infof("Received %s, shutting down", sig)

	scheduler.Stop()
	executor.Stop()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
