package models

import (
	"fmt"

	"github.com/onflow/txhistory/ledger/accumulator"
	"github.com/onflow/txhistory/ledger/common/hash"
	"github.com/onflow/txhistory/model/encoding/cbor"
	"github.com/onflow/txhistory/model/ledger"
)

var encoder = cbor.NewEncoder()

type MetadataView struct {
	ChainID             uint8  `json:"chain_id"`
	Epoch               uint64 `json:"epoch"`
	Version             uint64 `json:"version"`
	Timestamp           uint64 `json:"timestamp"`
	AccumulatorRootHash string `json:"accumulator_root_hash"`
}

func NewMetadataView(meta *ledger.Metadata) *MetadataView {
	return &MetadataView{
		ChainID:             meta.ChainID,
		Epoch:               meta.Epoch,
		Version:             meta.Version,
		Timestamp:           meta.Timestamp,
		AccumulatorRootHash: meta.AccumulatorRoot.String(),
	}
}

type TransactionView struct {
	Version                 uint64    `json:"version"`
	Hash                    string    `json:"hash"`
	Sender                  string    `json:"sender"`
	SequenceNumber          uint64    `json:"sequence_number"`
	MaxGasAmount            uint64    `json:"max_gas_amount"`
	GasUnitPrice            uint64    `json:"gas_unit_price"`
	GasCurrency             string    `json:"gas_currency"`
	ExpirationTimestampSecs uint64    `json:"expiration_timestamp_secs"`
	ChainID                 uint8     `json:"chain_id"`
	VMStatus                string    `json:"vm_status"`
	GasUsed                 uint64    `json:"gas_used"`
	Bytes                   BytesView `json:"bytes"`
}

// NewTransactionViews renders a transaction list. Stored transactions
// always decode, a failure means the history is corrupted.
func NewTransactionViews(list *ledger.TransactionList) ([]TransactionView, error) {
	views := make([]TransactionView, 0, len(list.Transactions))
	for i, raw := range list.Transactions {
		tx, err := ledger.DecodeTransaction(raw)
		if err != nil {
			return nil, fmt.Errorf("could not decode transaction %d: %w", list.FirstVersion+uint64(i), err)
		}
		info := list.TransactionInfos[i]
		views = append(views, TransactionView{
			Version:                 list.FirstVersion + uint64(i),
			Hash:                    info.TransactionHash.String(),
			Sender:                  tx.Sender.String(),
			SequenceNumber:          tx.SequenceNumber,
			MaxGasAmount:            tx.MaxGasAmount,
			GasUnitPrice:            tx.GasUnitPrice,
			GasCurrency:             tx.GasCurrencyCode,
			ExpirationTimestampSecs: tx.ExpirationTimestampSecs,
			ChainID:                 tx.ChainID,
			VMStatus:                info.Status.String(),
			GasUsed:                 info.GasUsed,
			Bytes:                   raw,
		})
	}
	return views, nil
}

type ProofsView struct {
	LedgerInfoToTransactionInfosProof BytesView `json:"ledger_info_to_transaction_infos_proof"`
	TransactionInfos                  BytesView `json:"transaction_infos"`
}

// TransactionsWithProofsView is the wire form of a paginated query answer.
// The ledger info, the proof and the transaction infos travel as CBOR.
type TransactionsWithProofsView struct {
	FirstTransactionVersion uint64      `json:"first_transaction_version"`
	SerializedTransactions  []BytesView `json:"serialized_transactions"`
	LedgerInfo              BytesView   `json:"ledger_info"`
	Proofs                  ProofsView  `json:"proofs"`
}

func NewTransactionsWithProofsView(resp *ledger.TransactionsWithProofs) (*TransactionsWithProofsView, error) {
	li, err := encoder.Encode(resp.LedgerInfo)
	if err != nil {
		return nil, fmt.Errorf("could not encode ledger info: %w", err)
	}
	proof, err := encoder.Encode(resp.Proof.Siblings)
	if err != nil {
		return nil, fmt.Errorf("could not encode range proof: %w", err)
	}
	infos := resp.TransactionInfos
	if infos == nil {
		infos = []ledger.TransactionInfo{}
	}
	encodedInfos, err := encoder.Encode(infos)
	if err != nil {
		return nil, fmt.Errorf("could not encode transaction infos: %w", err)
	}

	txs := make([]BytesView, 0, len(resp.Transactions))
	for _, raw := range resp.Transactions {
		txs = append(txs, raw)
	}
	return &TransactionsWithProofsView{
		FirstTransactionVersion: resp.FirstVersion,
		SerializedTransactions:  txs,
		LedgerInfo:              li,
		Proofs: ProofsView{
			LedgerInfoToTransactionInfosProof: proof,
			TransactionInfos:                  encodedInfos,
		},
	}, nil
}

// Decode parses the view. It only checks the encoding, the result still has
// to be verified.
//
// Expected errors:
//   - ledger.ErrMalformedInput if a payload does not decode
func (v *TransactionsWithProofsView) Decode() (*ledger.TransactionsWithProofs, error) {
	var liws ledger.LedgerInfoWithSignatures
	err := encoder.Decode(v.LedgerInfo, &liws)
	if err != nil {
		return nil, ledger.NewMalformedInputErrorf("could not decode ledger info: %v", err)
	}
	var siblings []hash.Hash
	err = encoder.Decode(v.Proofs.LedgerInfoToTransactionInfosProof, &siblings)
	if err != nil {
		return nil, ledger.NewMalformedInputErrorf("could not decode range proof: %v", err)
	}
	var infos []ledger.TransactionInfo
	err = encoder.Decode(v.Proofs.TransactionInfos, &infos)
	if err != nil {
		return nil, ledger.NewMalformedInputErrorf("could not decode transaction infos: %v", err)
	}

	txs := make([][]byte, 0, len(v.SerializedTransactions))
	for _, raw := range v.SerializedTransactions {
		txs = append(txs, raw)
	}
	return &ledger.TransactionsWithProofs{
		LedgerInfo: &liws,
		TransactionListWithProof: ledger.TransactionListWithProof{
			FirstVersion:     v.FirstTransactionVersion,
			Transactions:     txs,
			TransactionInfos: infos,
			Proof:            accumulator.RangeProof{Siblings: siblings},
		},
	}, nil
}

type StateProofView struct {
	LedgerInfo       BytesView `json:"ledger_info"`
	EpochChangeProof BytesView `json:"epoch_change_proof"`
}

func NewStateProofView(proof *ledger.StateProof) (*StateProofView, error) {
	li, err := encoder.Encode(proof.LedgerInfo)
	if err != nil {
		return nil, fmt.Errorf("could not encode ledger info: %w", err)
	}
	change, err := encoder.Encode(proof.EpochChangeProof)
	if err != nil {
		return nil, fmt.Errorf("could not encode epoch change proof: %w", err)
	}
	return &StateProofView{LedgerInfo: li, EpochChangeProof: change}, nil
}

// Decode parses the view.
//
// Expected errors:
//   - ledger.ErrMalformedInput if a payload does not decode
func (v *StateProofView) Decode() (*ledger.StateProof, error) {
	var liws ledger.LedgerInfoWithSignatures
	err := encoder.Decode(v.LedgerInfo, &liws)
	if err != nil {
		return nil, ledger.NewMalformedInputErrorf("could not decode ledger info: %v", err)
	}
	var change ledger.EpochChangeProof
	err = encoder.Decode(v.EpochChangeProof, &change)
	if err != nil {
		return nil, ledger.NewMalformedInputErrorf("could not decode epoch change proof: %v", err)
	}
	return &ledger.StateProof{LedgerInfo: &liws, EpochChangeProof: change}, nil
}
