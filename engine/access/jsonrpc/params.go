package jsonrpc

import (
	"encoding/json"

	"github.com/onflow/txhistory/engine/access/jsonrpc/models"
)

func expectParams(params []json.RawMessage, n int) error {
	if len(params) != n {
		return models.NewError(models.CodeInvalidParams, "expected %d params, got %d", n, len(params))
	}
	return nil
}

func uintParam(raw json.RawMessage, name string) (uint64, error) {
	var v uint64
	err := json.Unmarshal(raw, &v)
	if err != nil {
		return 0, models.NewError(models.CodeInvalidParams, "%s must be an unsigned integer", name)
	}
	return v, nil
}

// rangeParams parses the [start_version, limit] params of a history query.
func rangeParams(params []json.RawMessage) (uint64, uint64, error) {
	err := expectParams(params, 2)
	if err != nil {
		return 0, 0, err
	}
	start, err := uintParam(params[0], "start_version")
	if err != nil {
		return 0, 0, err
	}
	limit, err := uintParam(params[1], "limit")
	if err != nil {
		return 0, 0, err
	}
	return start, limit, nil
}

// transactionsParams parses the [start_version, limit, include_events] params
// of get_transactions. include_events is optional, events are not served.
func transactionsParams(params []json.RawMessage) (uint64, uint64, error) {
	if len(params) != 3 {
		return rangeParams(params)
	}
	var includeEvents bool
	err := json.Unmarshal(params[2], &includeEvents)
	if err != nil {
		return 0, 0, models.NewError(models.CodeInvalidParams, "include_events must be a boolean")
	}
	return rangeParams(params[:2])
}
