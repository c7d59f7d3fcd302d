// Package main measures how long repolens takes to analyze local repositories.
// Every repository is analyzed with each git driver and traversal cap, several times
// per combination; the first successful run counts as cold and the rest are averaged
// as warm. Results are written to a CSV file for comparison across releases.
//
// Prerequisites:
// - repolens binary installed and available in PATH
// - Test repositories cloned to the specified base directory
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// BenchmarkResult holds the timings of one repository, driver and cap combination.
type BenchmarkResult struct {
	Repository string
	Driver     string
	MaxCommits int
	ColdTime   string
	WarmTime   string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase   string
	Timeout    time.Duration
	Runs       int
	TestRepos  []string
	Drivers    []string
	CommitCaps []int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		RepoBase:   os.Args[1],
		Timeout:    5 * time.Minute,
		Runs:       4,
		TestRepos:  []string{"csv-parser", "fd", "git", "kubernetes"},
		Drivers:    []string{"gogit", "cli"},
		CommitCaps: []int{100, 1000},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the repolens binary and test repositories exist.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("repolens"); err != nil {
		return fmt.Errorf("repolens binary not found in PATH")
	}
	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}
	return nil
}

// runBenchmarks executes every combination across configured repositories.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d runs per combination\n",
		len(config.TestRepos), config.Timeout, config.Runs)

	for _, repo := range config.TestRepos {
		repoPath, _ := filepath.Abs(filepath.Join(config.RepoBase, repo))
		for _, driver := range config.Drivers {
			for _, maxCommits := range config.CommitCaps {
				fmt.Printf("Benchmarking %s (driver %s, max-commits %d)\n", repo, driver, maxCommits)
				cold, warm := runBenchmark(config, repoPath, driver, maxCommits)
				result := BenchmarkResult{
					Repository: repo,
					Driver:     driver,
					MaxCommits: maxCommits,
					ColdTime:   formatSeconds(cold),
					WarmTime:   formatAverage(warm),
				}
				fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
				results = append(results, result)
			}
		}
	}
	return results
}

// runBenchmark analyzes repoPath config.Runs times and returns the cold time and warm times.
// Nothing is stored so every run clones and walks the repository from scratch.
func runBenchmark(config BenchmarkConfig, repoPath, driver string, maxCommits int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"analyze", repoPath,
		"--git-driver", driver,
		"--max-commits", strconv.Itoa(maxCommits),
		"--database-backend", "none",
		"--output", "json",
	}

	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		err := exec.CommandContext(ctx, "repolens", args...).Run()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err == nil {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func formatSeconds(s float64) string {
	if s <= 0 {
		return "TIMEOUT"
	}
	return fmt.Sprintf("%.3fs", s)
}

func formatAverage(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return formatSeconds(sum / float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("repolens_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"repo", "driver", "max_commits", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Repository, r.Driver, strconv.Itoa(r.MaxCommits), r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by driver.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, driver := range []string{"gogit", "cli"} {
		fmt.Printf("Driver %s:\n", driver)
		for _, r := range results {
			if r.Driver == driver {
				fmt.Printf("  %-12s max %-5d: Cold: %s, Warm: %s\n", r.Repository, r.MaxCommits, r.ColdTime, r.WarmTime)
			}
		}
	}
}
