package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"
)

// Golden is the recorded behaviour of one source file.
type Golden struct {
	Compiles   bool   `json:"compiles"`
	Diagnostic string `json:"diagnostic,omitempty"`
	ExitCode   int    `json:"exitCode"`
}

type Execution struct {
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

type FileTestResult struct {
	File     string     `json:"file"`
	Status   string     `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string     `json:"message,omitempty"`
	Diff     string     `json:"diff,omitempty"`
	Expected *Golden    `json:"expected,omitempty"`
	Got      *Golden    `json:"got,omitempty"`
	Compile  *Execution `json:"compile,omitempty"`
	Run      *Execution `json:"run,omitempty"`
}

var (
	targetCompiler = flag.String("compiler", "./pnc", "Path to the compiler to test.")
	targetArgs     = flag.String("args", "", "Extra arguments for the compiler (space-separated).")
	generateGolden = flag.String("generate-golden", "", "Generate golden .json files for the given source files (space-separated globs).")
	testFiles      = flag.String("test-files", "examples/*.pn", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	timeout        = flag.Duration("timeout", 5*time.Second, "Timeout for each command execution.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *jobs < 1 {
		*jobs = 1
	}

	// Single tempDir for all test artifacts
	tempDir, err := os.MkdirTemp("", "gtest-*")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to create temp directory: %v\n", cRed, cNone, err)
	}
	defer os.RemoveAll(tempDir)
	setupInterruptHandler(tempDir)

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden, tempDir)
		return
	}

	if !handleRunTestSuite(tempDir) {
		os.RemoveAll(tempDir)
		os.Exit(1)
	}
}

// setupInterruptHandler is used to clean up on CTRL+C
func setupInterruptHandler(tempDir string) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		os.RemoveAll(tempDir)
		fmt.Printf("\n%s[INTERRUPT]%s Test run cancelled. Cleaning up...\n", cYellow, cNone)
		os.Exit(1)
	}()
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum64()), nil
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func handleGenerateGolden(patterns, tempDir string) {
	files, err := expandGlobPatterns(patterns)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}

	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}

	for _, sourceFile := range files {
		fileHash, err := hashFile(sourceFile)
		if err != nil {
			log.Fatalf("%s[ERROR]%s Could not hash source file %s: %v\n", cRed, cNone, sourceFile, err)
		}

		got, _, _, err := compileAndRun(sourceFile, tempDir, fileHash)
		if err != nil {
			log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n", cRed, cNone, sourceFile, err)
		}

		jsonData, err := json.MarshalIndent(got, "", "  ")
		if err != nil {
			log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
		}

		goldenFileName := getJSONPath(sourceFile)
		if err := os.WriteFile(goldenFileName, append(jsonData, '\n'), 0644); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
		}

		log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
	}
}

func handleRunTestSuite(tempDir string) bool {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return true
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		skipList[f] = true
	}

	type task struct{ file, hash string }

	tasks := make(chan task, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				resultsChan <- testFile(t.file, tempDir, t.hash)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- task{file, fileHash}
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	writeJSONReport(allResults)

	for _, r := range allResults {
		if r.Status == "FAIL" || r.Status == "ERROR" {
			return false
		}
	}
	return true
}

func testFile(file, tempDir, fileHash string) *FileTestResult {
	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if errors.Is(err, os.ErrNotExist) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}

	var expected Golden
	if err := json.Unmarshal(goldenData, &expected); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	got, compile, run, err := compileAndRun(file, tempDir, fileHash)
	res := &FileTestResult{File: file, Expected: &expected, Got: got, Compile: compile, Run: run}
	if err != nil {
		res.Status, res.Message = "ERROR", err.Error()
		return res
	}

	if diff := cmp.Diff(&expected, got); diff != "" {
		res.Status, res.Message, res.Diff = "FAIL", "Behaviour differs from golden file", diff
		return res
	}

	res.Status = "PASS"
	if !got.Compiles {
		res.Message = "Rejected as expected"
	}
	return res
}

// compileAndRun builds file and, if that succeeds, runs the binary. A
// rejected program is a result, not an error.
func compileAndRun(file, tempDir, fileHash string) (*Golden, *Execution, *Execution, error) {
	binaryPath := filepath.Join(tempDir, "bin-"+fileHash)

	args := append([]string{"build", "-o", binaryPath}, strings.Fields(*targetArgs)...)
	args = append(args, file)

	compile, err := runCommand(*targetCompiler, args...)
	if err != nil {
		return nil, compile, nil, fmt.Errorf("running %s: %w", *targetCompiler, err)
	}
	if compile.TimedOut {
		return nil, compile, nil, fmt.Errorf("compiler timed out after %v", *timeout)
	}

	if compile.ExitCode != 0 {
		return &Golden{Compiles: false, Diagnostic: diagnostic(file, compile.Stderr), ExitCode: compile.ExitCode}, compile, nil, nil
	}

	run, err := runCommand(binaryPath)
	if err != nil {
		return nil, compile, run, fmt.Errorf("running %s: %w", binaryPath, err)
	}
	if run.TimedOut {
		return nil, compile, run, fmt.Errorf("binary timed out after %v", *timeout)
	}

	return &Golden{Compiles: true, ExitCode: run.ExitCode}, compile, run, nil
}

// diagnostic keeps the first error line without the file name, so golden
// files do not depend on where the suite is run from.
func diagnostic(file, stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		if !strings.Contains(line, "error:") {
			continue
		}
		line = strings.TrimPrefix(line, file+":")
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(stderr)
}

func runCommand(name string, args ...string) (*Execution, error) {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if *verbose {
		log.Printf("%s[RUN]%s %s %s\n", cCyan, cNone, name, strings.Join(args, " "))
	}

	start := time.Now()
	err := cmd.Run()
	res := &Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		TimedOut: ctx.Err() == context.DeadlineExceeded,
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case res.TimedOut:
	default:
		return res, err
	}

	return res, nil
}

func printSummary(results []*FileTestResult) {
	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++

		color := cGreen
		switch r.Status {
		case "FAIL", "ERROR":
			color = cRed
		case "SKIP":
			color = cYellow
		}

		if r.Status == "PASS" && !*verbose {
			continue
		}

		fmt.Printf("%s[%s]%s %s", color, r.Status, cNone, r.File)
		if r.Message != "" {
			fmt.Printf(": %s", r.Message)
		}
		fmt.Println()
		if r.Diff != "" {
			fmt.Printf("%s\n", r.Diff)
		}
	}

	fmt.Printf("\n%s%d passed, %d failed, %d errors, %d skipped%s\n", cBold, counts["PASS"], counts["FAIL"], counts["ERROR"], counts["SKIP"], cNone)
}

func writeJSONReport(results []*FileTestResult) {
	report := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		report[r.File] = r
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("%s[WARN]%s Failed to marshal report: %v\n", cYellow, cNone, err)
		return
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		log.Printf("%s[WARN]%s Failed to write report %s: %v\n", cYellow, cNone, outputFile, err)
	}
}
