package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/docask/docask-cli/internal/core/domain"
	"github.com/docask/docask-cli/internal/core/services"
)

var (
	searchStores      []string
	searchMaxFiles    int
	searchTemperature float64
	searchMaxTokens   int
	searchCitations   bool
	searchJSON        bool

	askStore    string
	askContext  string
	askMaxFiles int
	askJSON     bool

	summarizeStore    string
	summarizeFocus    string
	summarizeMaxFiles int

	batchStore string
	batchDelay time.Duration
	batchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Answer a query grounded on store documents",
	Long: `Answers a free-form query using the documents in one or more stores.
The answer cites the source passages it was built from.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a direct question with a tight document budget",
	Long: `Asks a direct question with deterministic generation and a small
document budget, for quick factual lookups.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the documents in a store",
	RunE:  runSummarize,
}

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Run a file of queries sequentially",
	Long: `Reads queries from a file (one per line, blank lines and # comments
skipped) and runs them in order against one store. A failed query does
not abort the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	searchCmd.Flags().StringSliceVarP(&searchStores, "store", "s", nil, "store to query (repeatable; default from config)")
	searchCmd.Flags().IntVarP(&searchMaxFiles, "max-files", "n", 0, "max documents to send (default 5)")
	searchCmd.Flags().Float64VarP(&searchTemperature, "temperature", "t", domain.DefaultTemperature, "generation temperature")
	searchCmd.Flags().IntVar(&searchMaxTokens, "max-tokens", domain.DefaultMaxTokens, "max answer tokens")
	searchCmd.Flags().BoolVar(&searchCitations, "citations", true, "show source citations")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")

	askCmd.Flags().StringVarP(&askStore, "store", "s", "", "store to query (default from config)")
	askCmd.Flags().StringVarP(&askContext, "context", "c", "", "additional context for the question")
	askCmd.Flags().IntVarP(&askMaxFiles, "max-files", "n", 0, "max documents to send (default 3)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")

	summarizeCmd.Flags().StringVarP(&summarizeStore, "store", "s", "", "store to summarize (default from config)")
	summarizeCmd.Flags().StringVarP(&summarizeFocus, "focus", "f", "", "topic to focus the summary on")
	summarizeCmd.Flags().IntVarP(&summarizeMaxFiles, "max-files", "n", 0, "max documents to send (default 7)")

	batchCmd.Flags().StringVarP(&batchStore, "store", "s", "", "store to query (default from config)")
	batchCmd.Flags().DurationVarP(&batchDelay, "delay", "d", 2*time.Second, "delay between queries")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(batchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	stores := searchStores
	if len(stores) == 0 {
		stores = []string{defaultStoreName}
	}

	opts := domain.DefaultQueryOptions()
	opts.Temperature = searchTemperature
	opts.MaxTokens = searchMaxTokens
	if cmd.Flags().Changed("max-files") {
		maxFiles := searchMaxFiles
		opts.MaxFiles = &maxFiles
	}

	var resp *domain.SearchResponse
	if len(stores) == 1 {
		resp = queryService.Run(context.Background(), args[0], stores[0], opts)
	} else {
		resp = queryService.RunMultiStore(context.Background(), args[0], stores, opts)
	}

	return printResponse(cmd, resp, searchCitations, searchJSON)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	store := askStore
	if store == "" {
		store = defaultStoreName
	}

	resp := queryService.Ask(context.Background(), args[0], store, askContext, askMaxFiles)
	return printResponse(cmd, resp, true, askJSON)
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	store := summarizeStore
	if store == "" {
		store = defaultStoreName
	}

	resp := queryService.Summarize(context.Background(), store, summarizeFocus, summarizeMaxFiles)
	return printResponse(cmd, resp, true, false)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	queries, err := readQueries(args[0])
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		cmd.Println("No queries found in file.")
		return nil
	}

	store := batchStore
	if store == "" {
		store = defaultStoreName
	}

	results := queryService.BatchRun(context.Background(), queries, store, batchDelay)

	if batchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	var failed int
	for i, resp := range results {
		cmd.Printf("--- Query %d/%d: %s ---\n", i+1, len(results), resp.Query)
		cmd.Println(services.FormatResponse(resp, true))
		if resp.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		cmd.Printf("%d of %d queries failed.\n", failed, len(results))
	}
	return nil
}

// printResponse renders one response as text or JSON. A response that
// carries an error is still printed; the error propagates so the exit
// code reflects the failure.
func printResponse(cmd *cobra.Command, resp *domain.SearchResponse, citations, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Println(services.FormatResponse(resp, citations))
	}
	return resp.Err
}

// readQueries loads one query per line, skipping blanks and # comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	return queries, nil
}
