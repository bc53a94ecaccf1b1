// ABOUTME: Command-line benchmark runner for grounding quality tests
// ABOUTME: Executes retrieval scenarios against an in-memory stack and outputs JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"clauselens/benchmarks/grounding"
)

func main() {
	// Command-line flags
	testID := flag.String("test", "", "Run specific scenario (grounding_recall, article_boost, type_diversity). If empty, runs all scenarios.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	ctx := context.Background()

	// Print header
	fmt.Println("========================================")
	fmt.Println("ClauseLens Grounding Benchmarks")
	fmt.Println("========================================")
	fmt.Println()

	runner := grounding.NewBenchmarkRunner(*verbose)

	// Run scenarios
	var results []grounding.TestResult

	if *testID == "" {
		fmt.Println("Running all grounding benchmark scenarios...")
		fmt.Println()

		results = runner.RunAllTests(ctx)
	} else {
		scenario, ok := findScenario(*testID)
		if !ok {
			log.Fatalf("Unknown scenario ID: %s (valid options: %s)", *testID, scenarioIDs())
		}

		fmt.Printf("Running scenario: %s\n\n", scenario.Name)

		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatalf("Scenario failed: %v", err)
		}

		results = []grounding.TestResult{result}
	}

	// Print summary
	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	passed := 0
	failed := 0

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Context Recall: %.2f\n", result.RecallScore)
		fmt.Printf("  Scope Exclusion: %.2f\n", result.ExclusionScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}

		if result.Status == "PASS" {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Scenarios: %d\n", len(results))
	fmt.Printf("Passed: %d\n", passed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	// Export results
	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	// Exit with error code if any scenarios failed
	if failed > 0 {
		os.Exit(1)
	}
}

func findScenario(id string) (grounding.TestScenario, bool) {
	for _, scenario := range grounding.GetAllTests() {
		if scenario.ID == id {
			return scenario, true
		}
	}
	return grounding.TestScenario{}, false
}

func scenarioIDs() string {
	ids := ""
	for i, scenario := range grounding.GetAllTests() {
		if i > 0 {
			ids += ", "
		}
		ids += scenario.ID
	}
	return ids
}
