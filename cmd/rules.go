package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zzenonn/zroute/internal/domain"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Routing rule management commands",
	Long:  "CRUD operations for routing rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all routing rules in evaluation order",
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}
		printJSON(rules.List())
	},
}

var rulesGetCmd = &cobra.Command{
	Use:   "get [rule-id]",
	Short: "Show one routing rule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		rule, err := rules.Get(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printJSON(rule)
	},
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create [rule-file.json]",
	Short: "Create a routing rule from a JSON file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rule, err := readRuleFile(args[0])
		if err != nil {
			fmt.Printf("Error reading rule file: %v\n", err)
			return
		}

		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		created, err := rules.Add(context.Background(), rule)
		if err != nil {
			fmt.Printf("Error creating rule: %v\n", err)
			return
		}
		fmt.Printf("Rule created successfully: %s\n", created.ID)
	},
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update [rule-id] [rule-file.json]",
	Short: "Replace a routing rule from a JSON file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rule, err := readRuleFile(args[1])
		if err != nil {
			fmt.Printf("Error reading rule file: %v\n", err)
			return
		}

		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		updated, err := rules.Update(context.Background(), args[0], rule)
		if err != nil {
			fmt.Printf("Error updating rule: %v\n", err)
			return
		}
		fmt.Printf("Rule updated successfully: %s\n", updated.ID)
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete [rule-id]",
	Short: "Delete a routing rule",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := loadRules(); err != nil {
			fmt.Printf("Error loading rules: %v\n", err)
			return
		}

		if err := rules.Delete(context.Background(), args[0]); err != nil {
			fmt.Printf("Error deleting rule: %v\n", err)
			return
		}
		fmt.Printf("Rule deleted successfully: %s\n", args[0])
	},
}

func readRuleFile(path string) (domain.RoutingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RoutingRule{}, err
	}

	var rule domain.RoutingRule
	if err := json.Unmarshal(data, &rule); err != nil {
		return domain.RoutingRule{}, err
	}
	return rule, nil
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesGetCmd)
	rulesCmd.AddCommand(rulesCreateCmd)
	rulesCmd.AddCommand(rulesUpdateCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rootCmd.AddCommand(rulesCmd)
}
