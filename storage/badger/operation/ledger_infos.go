package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/onflow/txhistory/model/ledger"
)

// InsertLedgerInfo inserts a signed ledger info keyed by its version.
func InsertLedgerInfo(liws *ledger.LedgerInfoWithSignatures) func(*badger.Txn) error {
	return insert(makePrefix(codeLedgerInfo, liws.LedgerInfo.Version), liws)
}

// RetrieveLedgerInfo retrieves the signed ledger info at version.
func RetrieveLedgerInfo(version uint64, liws *ledger.LedgerInfoWithSignatures) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLedgerInfo, version), liws)
}

// UpdateLatestLedgerInfo points the latest ledger info marker at version.
func UpdateLatestLedgerInfo(version uint64) func(*badger.Txn) error {
	return upsert(makePrefix(codeLatestLedgerInfo), version)
}

// RetrieveLatestLedgerInfo retrieves the version of the latest ledger info.
func RetrieveLatestLedgerInfo(version *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLatestLedgerInfo), version)
}

// IndexEpochEnding indexes the version of the ledger info ending epoch.
func IndexEpochEnding(epoch uint64, version uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeEpochEnding, epoch), version)
}

// LookupEpochEnding retrieves the version of the ledger info ending epoch.
func LookupEpochEnding(epoch uint64, version *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeEpochEnding, epoch), version)
}

// LookupEpochEndings collects, in epoch order, the versions of epoch-ending
// ledger infos at or after fromVersion.
func LookupEpochEndings(fromVersion uint64, versions *[]uint64) func(*badger.Txn) error {
	return iterate(makePrefix(codeEpochEnding), func(decode func(interface{}) error) error {
		var version uint64
		err := decode(&version)
		if err != nil {
			return err
		}
		if version >= fromVersion {
			*versions = append(*versions, version)
		}
		return nil
	})
}
