package airdrop_test

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luxfi/airdrop/pkg/airdrop"
)

var _ = Describe("Runner", func() {
	var (
		chain     *fakeChain
		out       *bytes.Buffer
		outputDir string
		amount    = big.NewInt(100_000_000_000)
		asked     int
		answer    bool
		confirmer airdrop.Confirmer
	)

	newRunner := func(batchSize int) *airdrop.Runner {
		runner, err := airdrop.NewRunner(chain, airdrop.RunConfig{
			From:      common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"),
			Amount:    amount,
			BatchSize: batchSize,
			OutputDir: outputDir,
		}, confirmer, out, nil)
		Expect(err).NotTo(HaveOccurred())
		runner.Timer = newInstantTimer()
		runner.Now = func() time.Time { return time.Unix(1700000000, 0) }
		return runner
	}

	BeforeEach(func() {
		chain = newFakeChain(new(big.Int).Mul(amount, big.NewInt(10_000)))
		out = &bytes.Buffer{}
		outputDir = filepath.Join(GinkgoT().TempDir(), "output")
		asked = 0
		answer = true
		confirmer = airdrop.ConfirmFunc(func(context.Context, string) (bool, error) {
			asked++
			return answer, nil
		})
	})

	Context("with a funded wallet and an approving operator", func() {
		It("should send every unique recipient exactly once", func() {
			addrs := testAddresses(1201)
			raw := append(hexes(addrs), addrs[0].Hex(), "garbage")

			report, err := newRunner(500).Run(context.Background(), raw)
			Expect(err).NotTo(HaveOccurred())

			Expect(asked).To(Equal(1))
			Expect(report.Validation.Good).To(HaveLen(1201))
			Expect(report.Validation.Duplicates).To(Equal(1))
			Expect(report.Validation.Bad).To(Equal([]string{"garbage"}))

			Expect(chain.sent).To(HaveLen(3))
			var sent []common.Address
			for _, b := range chain.sent {
				sent = append(sent, b.recipients...)
				Expect(b.amount).To(Equal(amount))
				Expect(b.value.Cmp(new(big.Int).Mul(amount, big.NewInt(int64(len(b.recipients)))))).To(BeZero())
			}
			Expect(sent).To(Equal(addrs))

			Expect(report.Outcome.Completed).To(HaveLen(3))
			Expect(out.String()).To(ContainSubstring("# Good addrs: 1201"))
			Expect(out.String()).To(ContainSubstring("Successful: 3 Reverted: 0 Pending: 0 Dropped: 0"))
		})

		It("should write the three result files", func() {
			chain.script = [][]airdrop.Status{
				{airdrop.StatusPending, airdrop.StatusSuccess},
				{airdrop.StatusReverted},
				{airdrop.StatusDropped},
			}

			report, err := newRunner(2).Run(context.Background(), hexes(testAddresses(6)))
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Files.Completed).To(Equal(filepath.Join(outputDir, "completed-txs-1700000000.csv")))
			submitted, err := airdrop.ReadTxIDs(report.Submitted)
			Expect(err).NotTo(HaveOccurred())
			Expect(submitted).To(Equal([]common.Hash{txHash(0), txHash(1), txHash(2)}))
			data, err := os.ReadFile(report.Files.Reverted)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(string(data))).To(Equal(txHash(1).Hex()))
			data, err = os.ReadFile(report.Files.Dropped)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.TrimSpace(string(data))).To(Equal(txHash(2).Hex()))
		})

		It("should retry a failing batch until it is accepted", func() {
			chain.failSends = 4

			report, err := newRunner(500).Run(context.Background(), hexes(testAddresses(10)))
			Expect(err).NotTo(HaveOccurred())
			Expect(chain.sendAttempt).To(Equal(5))
			Expect(chain.sent).To(HaveLen(1))
			Expect(report.Records).To(HaveLen(1))
		})
	})

	Context("with an underfunded wallet", func() {
		It("should abort before asking or sending", func() {
			chain.balance = big.NewInt(1)

			_, err := newRunner(500).Run(context.Background(), hexes(testAddresses(10)))
			Expect(err).To(MatchError(airdrop.ErrInsufficientFunds))
			Expect(asked).To(BeZero())
			Expect(chain.sent).To(BeEmpty())
			Expect(out.String()).To(ContainSubstring("Aborting, not enough funds"))
		})
	})

	Context("when the operator declines", func() {
		It("should not send anything", func() {
			answer = false

			_, err := newRunner(500).Run(context.Background(), hexes(testAddresses(10)))
			Expect(err).To(MatchError(airdrop.ErrDeclined))
			Expect(chain.sent).To(BeEmpty())
			_, statErr := os.Stat(outputDir)
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})

	Context("when contracts are excluded", func() {
		It("should skip addresses with code", func() {
			addrs := testAddresses(3)
			chain.contracts[addrs[1]] = true

			runner, err := airdrop.NewRunner(chain, airdrop.RunConfig{
				Amount:           amount,
				ExcludeContracts: true,
				OutputDir:        outputDir,
			}, confirmer, out, nil)
			Expect(err).NotTo(HaveOccurred())
			runner.Timer = newInstantTimer()

			report, err := runner.Run(context.Background(), hexes(addrs))
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Validation.Contracts).To(Equal([]common.Address{addrs[1]}))
			Expect(chain.sent[0].recipients).To(Equal([]common.Address{addrs[0], addrs[2]}))
		})
	})
})
