package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and switch generation models",
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	RunE:  runModelList,
}

var modelInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show model details",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelInfo,
}

var modelSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Switch the active model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelSet,
}

func init() {
	modelCmd.AddCommand(modelListCmd)
	modelCmd.AddCommand(modelInfoCmd)
	modelCmd.AddCommand(modelSetCmd)
	rootCmd.AddCommand(modelCmd)
}

func runModelList(cmd *cobra.Command, _ []string) error {
	if backendService == nil {
		return errors.New("backend not configured; set an API key first")
	}

	models, err := backendService.ListModels(context.Background())
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	active := ""
	if queryService != nil {
		active = queryService.Model()
	}

	cmd.Println("Models:")
	for _, m := range models {
		marker := "  "
		if m.Name == active {
			marker = "* "
		}
		cmd.Printf("%s%s", marker, m.Name)
		if m.DisplayName != "" {
			cmd.Printf(" - %s", m.DisplayName)
		}
		cmd.Println()
	}
	return nil
}

func runModelInfo(cmd *cobra.Command, args []string) error {
	if backendService == nil {
		return errors.New("backend not configured; set an API key first")
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else if queryService != nil {
		name = queryService.Model()
	}
	if name == "" {
		return errors.New("no model specified")
	}

	info, err := backendService.GetModel(context.Background(), name)
	if err != nil {
		return fmt.Errorf("model info: %w", err)
	}

	cmd.Printf("Model: %s\n", info.Name)
	if info.DisplayName != "" {
		cmd.Printf("  Display name: %s\n", info.DisplayName)
	}
	if info.Description != "" {
		cmd.Printf("  Description: %s\n", info.Description)
	}
	cmd.Printf("  Input token limit: %d\n", info.InputTokenLimit)
	cmd.Printf("  Output token limit: %d\n", info.OutputTokenLimit)
	return nil
}

func runModelSet(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	if err := queryService.SetModel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("set model: %w", err)
	}

	cmd.Printf("Active model: %s\n", args[0])
	return nil
}
