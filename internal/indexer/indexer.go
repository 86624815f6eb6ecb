package indexer

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/felo/mailnorm/internal/parser"
	"github.com/felo/mailnorm/internal/payload"
	"github.com/felo/mailnorm/internal/scanner"
)

// Indexer normalizes stored payload files with a pool of workers
type Indexer struct {
	normalizer  *parser.Normalizer
	scanner     *scanner.Scanner
	log         zerolog.Logger
	concurrency int // Number of concurrent workers
}

// NewIndexer creates a new indexer over the payload files below rootPath
func NewIndexer(normalizer *parser.Normalizer, rootPath string, log zerolog.Logger) *Indexer {
	return &Indexer{
		normalizer:  normalizer,
		scanner:     scanner.NewScanner(rootPath),
		log:         log,
		concurrency: runtime.NumCPU() * 2, // 2x CPUs, work is mostly file I/O
	}
}

// WithConcurrency sets the number of concurrent workers
func (idx *Indexer) WithConcurrency(workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	idx.concurrency = workers
	return idx
}

// Entry is the outcome for one payload file
type Entry struct {
	Path  string        `json:"path"`
	Email *parser.Email `json:"email,omitempty"`
	Error string        `json:"error,omitempty"`
}

// IndexResult contains statistics about an indexing operation
type IndexResult struct {
	TotalFound  int
	Normalized  int
	Failed      int
	FailedFiles []string
	// Entries are in the order returned by the scanner
	Entries []Entry
}

// IndexAll scans and normalizes all payload files using concurrent workers
func (idx *Indexer) IndexAll() (*IndexResult, error) {
	return idx.IndexWithProgress(nil)
}

type job struct {
	pos  int
	path string
}

type jobResult struct {
	pos   int
	entry Entry
}

// IndexWithProgress normalizes all files and reports progress via a callback
func (idx *Indexer) IndexWithProgress(progress func(current, total int, filePath string)) (*IndexResult, error) {
	files, err := idx.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan for files: %w", err)
	}

	result := &IndexResult{
		TotalFound:  len(files),
		FailedFiles: make([]string, 0),
		Entries:     make([]Entry, len(files)),
	}

	idx.log.Debug().
		Str("root", idx.scanner.GetRootPath()).
		Int("files", result.TotalFound).
		Int("workers", idx.concurrency).
		Msg("Normalizing payload files")

	// Create channels for work distribution
	jobChan := make(chan job, len(files))
	resultChan := make(chan jobResult, len(files))

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < idx.concurrency; i++ {
		wg.Add(1)
		go idx.worker(&wg, jobChan, resultChan)
	}

	for i, file := range files {
		jobChan <- job{pos: i, path: file}
	}
	close(jobChan)

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	processedCount := 0
	for res := range resultChan {
		processedCount++
		if progress != nil {
			progress(processedCount, result.TotalFound, res.entry.Path)
		}

		result.Entries[res.pos] = res.entry
		if res.entry.Error != "" {
			result.Failed++
			result.FailedFiles = append(result.FailedFiles, res.entry.Path)
		} else {
			result.Normalized++
		}
	}

	idx.log.Debug().
		Int("normalized", result.Normalized).
		Int("failed", result.Failed).
		Msg("Normalization complete")

	return result, nil
}

// worker processes files from the job channel
func (idx *Indexer) worker(wg *sync.WaitGroup, jobs <-chan job, results chan<- jobResult) {
	defer wg.Done()

	for j := range jobs {
		entry := Entry{Path: j.path}
		email, err := idx.processFile(j.path)
		if err != nil {
			idx.log.Warn().Err(err).Str("path", j.path).Msg("Failed to normalize payload")
			entry.Error = err.Error()
		} else {
			entry.Email = email
		}
		results <- jobResult{pos: j.pos, entry: entry}
	}
}

// processFile reads and normalizes a single payload file
func (idx *Indexer) processFile(relPath string) (*parser.Email, error) {
	f, err := os.Open(idx.scanner.Resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	p, err := payload.FromJSON(f)
	if err != nil {
		return nil, err
	}

	for _, cerr := range payload.ApplyCharsets(p) {
		idx.log.Warn().Err(cerr).Str("path", relPath).Msg("Charset conversion skipped")
	}

	return idx.normalizer.Normalize(p), nil
}
