package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	storeListJSON bool
	storeDocsJSON bool
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage document stores",
	Long: `Document stores group uploaded files. Queries run against a store
and are grounded on its documents.`,
}

var storeCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a document store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreCreate,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List document stores",
	RunE:  runStoreList,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a store and release its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

var storeDocsCmd = &cobra.Command{
	Use:   "docs [name]",
	Short: "List documents in a store",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDocs,
}

func init() {
	storeListCmd.Flags().BoolVar(&storeListJSON, "json", false, "output as JSON")
	storeDocsCmd.Flags().BoolVar(&storeDocsJSON, "json", false, "output as JSON")

	storeCmd.AddCommand(storeCreateCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeDeleteCmd)
	storeCmd.AddCommand(storeDocsCmd)
	rootCmd.AddCommand(storeCmd)
}

func runStoreCreate(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	store, err := registryService.CreateStore(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	cmd.Printf("Store %q ready (%s)\n", store.Name, store.ID)
	return nil
}

func runStoreList(cmd *cobra.Command, _ []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	stores := registryService.ListStores(context.Background())

	if storeListJSON {
		data, err := json.MarshalIndent(stores, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal stores: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(stores) == 0 {
		cmd.Println("No stores found. Create one with 'docask store create <name>'.")
		return nil
	}

	cmd.Println("Stores:")
	for _, info := range stores {
		cmd.Printf("  %s (%d documents)\n", info.Name, info.DocumentCount)
	}
	return nil
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	if !registryService.DeleteStore(context.Background(), args[0]) {
		cmd.Printf("Store %q not found.\n", args[0])
		return nil
	}

	cmd.Printf("Deleted store %q.\n", args[0])
	return nil
}

func runStoreDocs(cmd *cobra.Command, args []string) error {
	if registryService == nil {
		return errors.New("registry service not configured")
	}

	docs := registryService.ListDocuments(context.Background(), args[0])

	if storeDocsJSON {
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in store %q.\n", args[0])
		return nil
	}

	cmd.Printf("Documents in %q:\n", args[0])
	for i, rec := range docs {
		cmd.Printf("  [%d] %s (%s, %.1f KB)\n", i+1, rec.DisplayName, rec.HandleID,
			float64(rec.SizeBytes)/1024)
	}
	return nil
}
