package distribution_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/airdrop/pkg/distribution"
)

const inventoryYAML = `coins:
  - symbol: AAA
    address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
    num_tokens: 1000
    price: 0.25
  - symbol: BBB
    decimals: 6
    num_tokens: 1e3
    price: "2"
cohorts:
  - name: defi_live
    policy: random-fit
    recipients:
      - alice
      - bob
  - name: gremlins
    recipients_file: gremlins.txt
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadInventory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gremlins.txt", "g1\n\n g2 \ng3\n")
	path := writeFile(t, dir, "inventory.yaml", inventoryYAML)

	inv, err := distribution.LoadInventory(path)
	require.NoError(t, err)

	require.Len(t, inv.Coins, 2)
	assert.Equal(t, distribution.DefaultDecimals, inv.Coins[0].Decimals)
	assert.Equal(t, 6, inv.Coins[1].Decimals)
	assert.True(t, inv.Coins[1].NumTokens.Equal(d("1000")))
	assert.True(t, inv.TotalValue().Equal(d("2250")))

	require.Len(t, inv.Cohorts, 2)
	defi, gremlins := inv.Cohorts[0], inv.Cohorts[1]
	assert.Equal(t, distribution.PolicyRandomFit, defi.Policy)
	assert.Equal(t, distribution.DefaultMaxAttempts, defi.MaxAttempts)
	assert.True(t, defi.Share.Equal(d("0.2")))
	assert.Equal(t, distribution.PolicyFirstFit, gremlins.Policy)
	assert.True(t, gremlins.Share.Equal(d("0.8")))
	assert.Equal(t, []string{"g1", "g2", "g3"}, gremlins.Recipients)
}

func TestLoadInventoryRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown field",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\n    colour: red\ncohorts:\n  - name: c\n    recipients: [x]\n",
		},
		{
			name: "bad contract address",
			yaml: "coins:\n  - symbol: A\n    address: 0x123\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: c\n    recipients: [x]\n",
		},
		{
			name: "zero price",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 0\ncohorts:\n  - name: c\n    recipients: [x]\n",
		},
		{
			name: "unknown policy",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: c\n    policy: best-fit\n    recipients: [x]\n",
		},
		{
			name: "shares over one",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: a\n    share: 0.7\n    recipients: [x]\n  - name: b\n    share: 0.5\n    recipients: [y]\n",
		},
		{
			name: "duplicate cohort",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: x\n    share: 0.5\n    recipients: [a]\n  - name: x\n    recipients: [b, c]\n",
		},
		{
			name: "cohort without share",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: a\n    share: 0.5\n    recipients: [x]\n  - name: b\n    recipients: [y]\n  - name: c\n    recipients: [z]\n",
		},
		{
			name: "empty cohort",
			yaml: "coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: c\n",
		},
		{
			name: "no coins",
			yaml: "cohorts:\n  - name: c\n    recipients: [x]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "inventory.yaml", tt.yaml)
			_, err := distribution.LoadInventory(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadInventoryMissingRecipientsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "inventory.yaml",
		"coins:\n  - symbol: A\n    num_tokens: 1\n    price: 1\ncohorts:\n  - name: c\n    recipients_file: nope.txt\n")
	_, err := distribution.LoadInventory(path)
	assert.Error(t, err)
}

func TestNormalizeDefaults(t *testing.T) {
	coins := []distribution.Coin{{Symbol: "AAA", NumTokens: d("1000"), Price: d("1")}}

	t.Run("named cohorts", func(t *testing.T) {
		inv := &distribution.Inventory{
			Coins: coins,
			Cohorts: []distribution.Cohort{
				{Name: "defi_live", Recipients: []string{"a"}},
				{Name: "gremlins", Recipients: []string{"b"}},
			},
		}
		require.NoError(t, inv.Normalize())

		defi, gremlins := inv.Cohorts[0], inv.Cohorts[1]
		assert.Equal(t, distribution.PolicyRandomFit, defi.Policy)
		assert.Equal(t, distribution.DefaultMaxAttempts, defi.MaxAttempts)
		assert.Equal(t, distribution.PolicyFirstFit, gremlins.Policy)
		assert.True(t, defi.Share.Equal(d("0.2")))
		assert.True(t, gremlins.Share.Equal(d("0.8")))
	})

	t.Run("unnamed pair gets the default split", func(t *testing.T) {
		inv := &distribution.Inventory{
			Coins: coins,
			Cohorts: []distribution.Cohort{
				{Name: "early", Recipients: []string{"a"}},
				{Name: "late", Recipients: []string{"b"}},
			},
		}
		require.NoError(t, inv.Normalize())
		assert.True(t, inv.Cohorts[0].Share.Equal(d("0.2")))
		assert.True(t, inv.Cohorts[1].Share.Equal(d("0.8")))
		assert.Equal(t, distribution.PolicyFirstFit, inv.Cohorts[0].Policy)

		m, err := distribution.Distribute(inv, distribution.Options{})
		require.NoError(t, err)
		assert.True(t, m.Cohorts[0].Pot.Equal(d("200")), m.Cohorts[0].Pot.String())
		assert.True(t, m.Cohorts[1].Pot.Equal(d("800")), m.Cohorts[1].Pot.String())
	})

	t.Run("explicit policy wins", func(t *testing.T) {
		inv := &distribution.Inventory{
			Coins: coins,
			Cohorts: []distribution.Cohort{
				{Name: "defi_live", Policy: distribution.PolicyFirstFit, Recipients: []string{"a"}},
				{Name: "gremlins", Recipients: []string{"b"}},
			},
		}
		require.NoError(t, inv.Normalize())
		assert.Equal(t, distribution.PolicyFirstFit, inv.Cohorts[0].Policy)
	})
}

func TestNormalizeRejectsDuplicateCohorts(t *testing.T) {
	inv := &distribution.Inventory{
		Coins: []distribution.Coin{{Symbol: "AAA", NumTokens: d("1000"), Price: d("1")}},
		Cohorts: []distribution.Cohort{
			{Name: "x", Share: d("0.5"), Recipients: []string{"a-0"}},
			{Name: "x", Recipients: []string{"b-0", "b-1", "b-2", "b-3"}},
		},
	}
	err := inv.Normalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate cohort")
}
