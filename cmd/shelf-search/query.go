package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shelfsearch/shelf-search/internal/pipeline"
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Ask a natural-language question about the inventory",
		Long: `Ask a free-text question and print the answer.

Examples:
  shelf-search query "science fiction books under $20"
  shelf-search query "which store has cheaper fantasy books"
  shelf-search query --batch questions.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: runQuery,
	}

	cmd.Flags().Bool("json", false, "print the full response as JSON")
	cmd.Flags().String("batch", "", "file with one question per line")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("json")
	batchPath, _ := cmd.Flags().GetString("batch")

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" && batchPath == "" {
		return fmt.Errorf("provide a question or --batch file")
	}

	a, err := buildApp(configPath, verbose)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	if batchPath != "" {
		texts, err := readQuestions(batchPath)
		if err != nil {
			return err
		}
		responses, err := a.pipeline.QueryBatch(ctx, texts)
		if err != nil {
			return err
		}
		for _, response := range responses {
			if err := printResponse(response, asJSON); err != nil {
				return err
			}
		}
		return nil
	}

	response, err := a.pipeline.Query(ctx, text)
	if err != nil {
		return err
	}
	return printResponse(response, asJSON)
}

func printResponse(response *pipeline.QueryResponse, asJSON bool) error {
	if asJSON {
		out, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(response.Answer.Text)
	return nil
}

// readQuestions reads one question per line, skipping blanks.
func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return texts, nil
}
