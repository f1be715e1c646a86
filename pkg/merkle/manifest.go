package merkle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/logutils"
)

// DefaultGlob matches the allocation CSVs next to the scripts.
const DefaultGlob = "./scripts/*.csv"

// FileRoot is the tree built from one allocation file.
type FileRoot struct {
	File    string
	Root    common.Hash
	Entries []Entry
	Tree    *Tree
}

// BuildFile reads one allocation file and builds its tree.
func BuildFile(path string) (*FileRoot, error) {
	entries, err := ReadAllocations(path)
	if err != nil {
		return nil, err
	}
	tree, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &FileRoot{
		File:    path,
		Root:    tree.Root(),
		Entries: entries,
		Tree:    tree,
	}, nil
}

// BuildFromGlob builds one tree per matching file, in lexical file order.
func BuildFromGlob(pattern string, logger *zap.Logger) ([]*FileRoot, error) {
	logger = logutils.OrNop(logger)

	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}

	roots := make([]*FileRoot, 0, len(files))
	for _, file := range files {
		root, err := BuildFile(file)
		if err != nil {
			return nil, err
		}
		logger.Info("built merkle tree",
			zap.String("file", file),
			zap.Int("entries", len(root.Entries)),
			zap.Stringer("root", root.Root))
		roots = append(roots, root)
	}
	return roots, nil
}

// Claim is one recipient's proof.
type Claim struct {
	Recipient common.Address `json:"recipient"`
	Amount    string         `json:"amount"`
	Leaf      common.Hash    `json:"leaf"`
	Proof     []common.Hash  `json:"proof"`
}

// ProofManifest is what a claim front end needs for one file.
type ProofManifest struct {
	Root   common.Hash `json:"root"`
	Claims []Claim     `json:"claims"`
}

// Manifest collects every proof of the tree.
func (f *FileRoot) Manifest() (*ProofManifest, error) {
	m := &ProofManifest{
		Root:   f.Root,
		Claims: make([]Claim, len(f.Entries)),
	}
	for i, e := range f.Entries {
		proof, err := f.Tree.Proof(i)
		if err != nil {
			return nil, err
		}
		m.Claims[i] = Claim{
			Recipient: e.Recipient,
			Amount:    e.Amount.String(),
			Leaf:      f.Tree.Leaf(i),
			Proof:     proof,
		}
	}
	return m, nil
}

// ProofPath is where WriteProofs puts the manifest of file.
func ProofPath(file string) string {
	return file + ".merkle.json"
}

// WriteProofs writes the proof manifest beside the source file.
func (f *FileRoot) WriteProofs() (string, error) {
	m, err := f.Manifest()
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal proofs: %w", err)
	}

	path := ProofPath(f.File)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write proofs: %w", err)
	}
	return path, nil
}
