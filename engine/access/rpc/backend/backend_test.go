package backend_test

import (
	"context"
	"os"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/onflow/txhistory/engine/access/rpc/backend"
	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/model/ledger"
	"github.com/onflow/txhistory/module/metrics"
	"github.com/onflow/txhistory/state/trust"
	"github.com/onflow/txhistory/utils/unittest"
)

type Suite struct {
	suite.Suite

	dir     string
	db      *badger.DB
	history *unittest.History
	backend *backend.Backend
	latest  *ledger.LedgerInfoWithSignatures
}

func TestBackend(t *testing.T) {
	suite.Run(t, new(Suite))
}

func (suite *Suite) SetupTest() {
	suite.dir = unittest.TempDir(suite.T())
	suite.db = unittest.BadgerDB(suite.T(), suite.dir)
	suite.history = unittest.NewHistory(suite.T(), suite.db, 4)

	// versions 0 to 12 are certified, 13 to 15 are committed only
	suite.history.Commit(12)
	suite.latest = suite.history.Certify()
	suite.history.Commit(3)

	suite.backend = suite.newBackend(5)
}

func (suite *Suite) TearDownTest() {
	suite.Require().NoError(suite.db.Close())
	suite.Require().NoError(os.RemoveAll(suite.dir))
}

func (suite *Suite) newBackend(maxLimit uint64) *backend.Backend {
	all := suite.history.Storage
	b, err := backend.New(backend.Params{
		Log:              unittest.Logger(),
		Hasher:           suite.history.Hasher,
		ChainID:          4,
		MaxLimit:         maxLimit,
		Transactions:     all.Transactions,
		AccumulatorNodes: all.AccumulatorNodes,
		LedgerInfos:      all.LedgerInfos,
		AccessMetrics:    metrics.NewNoopCollector(),
	})
	suite.Require().NoError(err)
	return b
}

func (suite *Suite) verify(resp *ledger.TransactionsWithProofs) {
	state, err := trust.FromWaypoint(suite.history.Hasher, suite.history.Waypoint, suite.history.Genesis)
	suite.Require().NoError(err)
	_, err = state.VerifyAndRatchet(suite.history.Verifier, resp.LedgerInfo, nil)
	suite.Require().NoError(err)
	suite.Require().NoError(resp.Verify(suite.history.Hasher, resp.LedgerInfo.LedgerInfo))
}

func (suite *Suite) TestGetTransactionsWithProofs() {
	resp, err := suite.backend.GetTransactionsWithProofs(context.Background(), 2, 3)
	suite.Require().NoError(err)

	suite.Assert().Equal(suite.latest.LedgerInfo, resp.LedgerInfo.LedgerInfo)
	suite.Assert().Equal(uint64(2), resp.FirstVersion)
	suite.Assert().Equal(3, resp.Len())
	suite.Assert().Len(resp.TransactionInfos, 3)
	suite.verify(resp)
}

// the limit is clamped to the max limit
func (suite *Suite) TestGetTransactionsWithProofsClamped() {
	resp, err := suite.backend.GetTransactionsWithProofs(context.Background(), 0, 1000)
	suite.Require().NoError(err)
	suite.Assert().Equal(5, resp.Len())
	suite.verify(resp)
}

// the default max limit clamps a query over a longer history to 1000 transactions
func (suite *Suite) TestGetTransactionsWithProofsDefaultMaxLimit() {
	suite.history.Commit(1100)
	latest := suite.history.Certify()
	suite.Require().Greater(latest.LedgerInfo.NumLeaves(), backend.DefaultMaxLimit+1)

	b := suite.newBackend(backend.DefaultMaxLimit)
	resp, err := b.GetTransactionsWithProofs(context.Background(), 1, 1500)
	suite.Require().NoError(err)
	suite.Assert().Equal(uint64(1), resp.FirstVersion)
	suite.Assert().Equal(int(backend.DefaultMaxLimit), resp.Len())
	suite.verify(resp)

	resp, err = b.GetTransactionsWithProofs(context.Background(), 1, backend.DefaultMaxLimit)
	suite.Require().NoError(err)
	suite.Assert().Equal(int(backend.DefaultMaxLimit), resp.Len())
}

// the window ends at the latest certified version, not at the committed tip
func (suite *Suite) TestGetTransactionsWithProofsTail() {
	resp, err := suite.backend.GetTransactionsWithProofs(context.Background(), 10, 5)
	suite.Require().NoError(err)
	suite.Assert().Equal(3, resp.Len())
	suite.verify(resp)

	tx, err := ledger.DecodeTransaction(resp.Transactions[2])
	suite.Require().NoError(err)
	raw, err := suite.history.Storage.Transactions.ByVersion(12)
	suite.Require().NoError(err)
	suite.Assert().Equal(raw, resp.Transactions[2])
	suite.Assert().NotEmpty(tx.Payload)
}

func (suite *Suite) TestGetTransactionsWithProofsEmpty() {
	resp, err := suite.backend.GetTransactionsWithProofs(context.Background(), 13, 5)
	suite.Require().NoError(err)
	suite.Assert().Equal(uint64(13), resp.FirstVersion)
	suite.Assert().Zero(resp.Len())
	suite.Assert().True(resp.Proof.IsEmpty())
	suite.verify(resp)
}

func (suite *Suite) TestGetTransactionsWithProofsInvalidRange() {
	_, err := suite.backend.GetTransactionsWithProofs(context.Background(), 14, 5)
	suite.Assert().ErrorIs(err, backend.ErrInvalidRange)
	suite.Assert().ErrorIs(err, accumulator.ErrRangeOutOfBounds)
	suite.Assert().Equal(backend.KindInvalidRange, backend.ErrorKind(err))
	suite.Assert().Equal(codes.InvalidArgument, status.Code(backend.ConvertError(err)))

	_, err = suite.backend.GetTransactionsWithProofs(context.Background(), 0, 0)
	suite.Assert().ErrorIs(err, backend.ErrInvalidRange)
	suite.Assert().NotErrorIs(err, accumulator.ErrRangeOutOfBounds)
}

func (suite *Suite) TestGetTransactionsWithProofsCanceled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := suite.backend.GetTransactionsWithProofs(ctx, 0, 5)
	suite.Assert().ErrorIs(err, context.Canceled)
	suite.Assert().Equal(codes.Canceled, status.Code(backend.ConvertError(err)))
}

func (suite *Suite) TestGetTransactions() {
	list, err := suite.backend.GetTransactions(context.Background(), 11, 10)
	suite.Require().NoError(err)
	suite.Assert().Equal(uint64(11), list.FirstVersion)
	suite.Assert().Len(list.Transactions, 2)
	suite.Assert().Len(list.TransactionInfos, 2)

	for i, raw := range list.Transactions {
		suite.Assert().Equal(ledger.TransactionHash(suite.history.Hasher, raw), list.TransactionInfos[i].TransactionHash)
	}
}

func (suite *Suite) TestGetMetadata() {
	meta, err := suite.backend.GetMetadata(context.Background())
	suite.Require().NoError(err)
	suite.Assert().Equal(uint8(4), meta.ChainID)
	suite.Assert().Equal(uint64(12), meta.Version)
	suite.Assert().Equal(uint64(1), meta.Epoch)
	suite.Assert().Equal(suite.latest.LedgerInfo.TransactionAccumulatorHash, meta.AccumulatorRoot)
	suite.Assert().NoError(suite.backend.Ping(context.Background()))
}

func (suite *Suite) TestGetStateProof() {
	next := unittest.SignersFixture(suite.T(), 3)
	suite.history.EndEpoch(next)
	suite.history.Commit(2)
	latest := suite.history.Certify()

	proof, err := suite.backend.GetStateProof(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Assert().Equal(latest.LedgerInfo, proof.LedgerInfo.LedgerInfo)
	suite.Require().Len(proof.EpochChangeProof.LedgerInfos, 2)

	// a client trusting the genesis waypoint ratchets to the latest ledger info
	state, err := trust.FromWaypoint(suite.history.Hasher, suite.history.Waypoint, suite.history.Genesis)
	suite.Require().NoError(err)
	state, err = state.VerifyAndRatchet(suite.history.Verifier, proof.LedgerInfo, &proof.EpochChangeProof)
	suite.Require().NoError(err)
	suite.Assert().Equal(uint64(2), state.Epoch())
	suite.Assert().Equal(latest.LedgerInfo.Version, state.Version)

	_, err = suite.backend.GetStateProof(context.Background(), latest.LedgerInfo.Version+1)
	suite.Assert().ErrorIs(err, backend.ErrInvalidRange)
}

func TestNewBackendRequiresLimit(t *testing.T) {
	_, err := backend.New(backend.Params{Log: unittest.Logger(), AccessMetrics: metrics.NewNoopCollector()})
	require.Error(t, err)
}
