package storage

// All includes all the storage modules
type All struct {
	Transactions     Transactions
	AccumulatorNodes AccumulatorNodes
	LedgerInfos      LedgerInfos
}
