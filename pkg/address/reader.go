package address

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DefaultAddressFile is where send and validate look for recipients.
const DefaultAddressFile = "./data/airdrop.csv"

// ReadAddressFile returns the non-blank lines of a newline-delimited file.
func ReadAddressFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open address file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read address file: %w", err)
	}
	return lines, nil
}

// WriteAddressFile writes one entry per line.
func WriteAddressFile(path string, entries []string) error {
	data := strings.Join(entries, "\n")
	if len(entries) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
