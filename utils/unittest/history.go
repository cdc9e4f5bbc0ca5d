package unittest

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"

	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/finalizer"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/module/signature"
	"github.com/onflow/txhistory/storage"
	bstorage "github.com/onflow/txhistory/storage/badger"
)

// History is a bootstrapped transaction history on a temporary database,
// certified by a set of local signers.
type History struct {
	t         testing.TB
	DB        *badger.DB
	Storage   *storage.All
	Hasher    hash.Hasher
	Verifier  *signature.ValidatorVerifier
	Committer *finalizer.Committer
	Waypoint  ledger.Waypoint
	Genesis   ledger.LedgerInfo
	Signers   []*signature.LocalSigner
}

// RunWithHistory runs f against a history whose genesis validators are n
// signers of equal voting power.
func RunWithHistory(t testing.TB, n int, f func(*History)) {
	RunWithBadgerDB(t, func(db *badger.DB) {
		f(NewHistory(t, db, n))
	})
}

func NewHistory(t testing.TB, db *badger.DB, n int) *History {
	all, err := bstorage.InitAll(metrics.NewNoopCollector(), db, bstorage.DefaultCacheSize)
	require.NoError(t, err)
	verifier, err := signature.NewValidatorVerifier(ledger.DefaultQuorumThreshold)
	require.NoError(t, err)

	h := &History{
		t:        t,
		DB:       db,
		Storage:  all,
		Hasher:   hash.NewSHA3_256(),
		Verifier: verifier,
		Signers:  SignersFixture(t, n),
	}
	genesis := EpochStateFixture(t, 1, h.Signers)
	h.Committer, h.Waypoint, err = finalizer.Bootstrap(Logger(), metrics.NewNoopCollector(), h.Hasher, verifier, all,
		TransactionFixture(), genesis.Validators, 1)
	require.NoError(t, err)

	latest, err := all.LedgerInfos.Latest()
	require.NoError(t, err)
	h.Genesis = latest.LedgerInfo
	return h
}

// Commit commits n transactions and returns the first version.
func (h *History) Commit(n int) uint64 {
	first, err := h.Committer.Commit(TransactionsFixture(n), ExecutionMetadataListFixture(n))
	require.NoError(h.t, err)
	return first
}

// Certify signs and commits a ledger info for everything committed so far.
func (h *History) Certify() *ledger.LedgerInfoWithSignatures {
	return h.certify(nil)
}

// EndEpoch certifies everything committed so far with a ledger info handing
// over to next, which sign from then on.
func (h *History) EndEpoch(next []*signature.LocalSigner) *ledger.LedgerInfoWithSignatures {
	state := EpochStateFixture(h.t, h.Committer.EpochState().Epoch+1, next)
	liws := h.certify(&state)
	h.Signers = next
	return liws
}

func (h *History) certify(next *ledger.EpochState) *ledger.LedgerInfoWithSignatures {
	numLeaves := h.Committer.NumLeaves()
	root, err := h.Committer.RootAt(numLeaves)
	require.NoError(h.t, err)

	li := LedgerInfoFixture(h.Committer.EpochState().Epoch, numLeaves-1, root)
	li.NextEpochState = next
	liws := SignedLedgerInfoFixture(h.t, li, h.Signers)
	require.NoError(h.t, h.Committer.CommitLedgerInfo(liws))
	return liws
}
