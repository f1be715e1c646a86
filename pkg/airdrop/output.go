package airdrop

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultOutputDir receives the per-run transaction id files.
const DefaultOutputDir = "./data/output"

// ResultFiles names the files written for one run.
type ResultFiles struct {
	Completed string
	Reverted  string
	Dropped   string
}

// ResultFileNames returns the three output paths for a run finished at ts.
func ResultFileNames(dir string, ts time.Time) ResultFiles {
	suffix := ts.Unix()
	return ResultFiles{
		Completed: filepath.Join(dir, fmt.Sprintf("completed-txs-%d.csv", suffix)),
		Reverted:  filepath.Join(dir, fmt.Sprintf("reverted-txs-%d.csv", suffix)),
		Dropped:   filepath.Join(dir, fmt.Sprintf("dropped-txs-%d.csv", suffix)),
	}
}

// WriteOutcome writes one transaction id per line into each of the three
// files, creating dir if needed.
func WriteOutcome(dir string, ts time.Time, outcome *Outcome) (*ResultFiles, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	files := ResultFileNames(dir, ts)
	for _, f := range []struct {
		path   string
		hashes []common.Hash
	}{
		{files.Completed, outcome.Completed},
		{files.Reverted, outcome.Reverted},
		{files.Dropped, outcome.Dropped},
	} {
		if err := writeHashes(f.path, f.hashes); err != nil {
			return nil, err
		}
	}
	return &files, nil
}

// WriteSubmitted records the hashes of submitted transactions so an
// interrupted run can be resumed with ReadTxIDs.
func WriteSubmitted(dir string, ts time.Time, records []*TxRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	hashes := make([]common.Hash, len(records))
	for i, r := range records {
		hashes[i] = r.Hash
	}
	path := filepath.Join(dir, fmt.Sprintf("submitted-txs-%d.csv", ts.Unix()))
	if err := writeHashes(path, hashes); err != nil {
		return "", err
	}
	return path, nil
}

func writeHashes(path string, hashes []common.Hash) error {
	lines := make([]string, len(hashes))
	for i, h := range hashes {
		lines[i] = h.Hex()
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadTxIDs reads transaction hashes, one per line, skipping blank lines.
func ReadTxIDs(path string) ([]common.Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tx file: %w", err)
	}
	defer file.Close()

	var hashes []common.Hash
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		raw, err := hexutil.Decode(text)
		if err != nil || len(raw) != common.HashLength {
			return nil, fmt.Errorf("invalid transaction id on line %d: %q", line, text)
		}
		hashes = append(hashes, common.BytesToHash(raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tx file: %w", err)
	}
	return hashes, nil
}
