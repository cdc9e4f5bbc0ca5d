package metrics

const (
	LabelResource = "resource"
	LabelMethod   = "method"
	LabelCode     = "code"
	LabelKind     = "kind"
	LabelReason   = "reason"
	LabelStatus   = "status"
)

const (
	ResourceUndefined        = "undefined"
	ResourceTransaction      = "transaction"
	ResourceTransactionInfo  = "transaction_info"
	ResourceAccumulatorNode  = "accumulator_node"
	ResourceLedgerInfo       = "ledger_info"
	ResourceEpochEndingIndex = "epoch_ending_index"
)
