package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/airdrop/cmd/airdrop/commands"
	"github.com/luxfi/airdrop/pkg/distribution"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := commands.NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDistributeThenMerkle(t *testing.T) {
	dir := t.TempDir()
	inventory := filepath.Join(dir, "inventory.yaml")
	require.NoError(t, os.WriteFile(inventory, []byte(`coins:
  - symbol: AAA
    num_tokens: 30
    price: 1
  - symbol: BBB
    num_tokens: 10
    price: 2
cohorts:
  - name: defi_live
    policy: first-fit
    recipients:
      - "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
      - "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
  - name: gremlins
    recipients:
      - "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB"
      - "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
      - "0x0000000000000000000000000000000000001001"
      - "0x0000000000000000000000000000000000001002"
`), 0644))

	manifestPath := filepath.Join(dir, "distribution.json")
	csvDir := filepath.Join(dir, "csv")

	out, err := execute(t, "distribute",
		"--inventory", inventory,
		"--output", manifestPath,
		"--export-csv", csvDir,
		"--seed", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Total value: 50.00")

	m, err := distribution.ReadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, 6, m.Recipients())

	out, err = execute(t, "merkle", "--glob", filepath.Join(csvDir, "*.csv"), "--proofs")
	require.NoError(t, err, out)

	roots := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "0x") {
			roots++
		}
	}
	assert.Equal(t, 2, roots)
	assert.FileExists(t, filepath.Join(csvDir, "AAA.csv.merkle.json"))
}

func TestMerkleNoFiles(t *testing.T) {
	_, err := execute(t, "merkle", "--glob", filepath.Join(t.TempDir(), "*.csv"))
	assert.Error(t, err)
}

func TestValidateWritesBuckets(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "airdrop.csv")
	require.NoError(t, os.WriteFile(list, []byte(
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed\n"+
			"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed\n"+
			"not-an-address\n"+
			"\n"+
			"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359\n"), 0644))

	out, err := execute(t, "validate", "--addresses", list, "--output-dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "# Bad addrs: 1")
	assert.Contains(t, out, "# Good addrs: 2")
	assert.Contains(t, out, "# Duplicates: 1")

	good, err := os.ReadFile(filepath.Join(dir, "good-addrs.csv"))
	require.NoError(t, err)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed\n0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359\n", string(good))
}

func TestSendRequiresContract(t *testing.T) {
	t.Setenv("AIRDROP_PRIVATE_KEY", "")
	_, err := execute(t, "send", "--addresses", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
