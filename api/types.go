package api

type TransferReq struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	// Amount is in whole units, e.g. "12.5"
	Amount string `json:"amount"`
}

type ClaimReq struct {
	Caller string `json:"caller"`
}

// Amounts in responses are base units

type tokenResponse struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Decimals          uint8  `json:"decimals"`
	Owner             string `json:"owner"`
	TotalSupply       string `json:"total_supply"`
	CurrentSnapshotID uint64 `json:"current_snapshot_id"`
	IndexPrice        string `json:"index_price,omitempty"`
	Revision          uint64 `json:"revision"`
	StateHash         string `json:"state_hash"`
}

type amountResponse struct {
	Amount     string `json:"amount"`
	SnapshotID uint64 `json:"snapshot_id,omitempty"`
}

type accountResponse struct {
	Address       string `json:"address"`
	Balance       string `json:"balance"`
	Frozen        string `json:"frozen"`
	Available     string `json:"available"`
	Blacklisted   bool   `json:"blacklisted"`
	PayoutBalance string `json:"payout_balance"`
	HasClaimed    bool   `json:"has_claimed"`
}

type periodResponse struct {
	SnapshotID            uint64 `json:"snapshot_id"`
	PoolAmount            string `json:"pool_amount"`
	TotalSupplyAtSnapshot string `json:"total_supply_at_snapshot"`
	FundedAt              string `json:"funded_at"`
}

type claimResponse struct {
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	SnapshotID uint64 `json:"snapshot_id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Kind  string `json:"kind,omitempty"`
}
