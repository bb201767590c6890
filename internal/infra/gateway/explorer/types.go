package explorer

import "encoding/json"

// Action selects the account endpoint of an etherscan-compatible explorer
type Action string

const (
	ActionNormal   Action = "txlist"         // External (normal) transactions
	ActionInternal Action = "txlistinternal" // Internal transactions (contract calls)
	ActionToken    Action = "tokentx"        // ERC-20 / token transfers
	ActionBalance  Action = "balance"        // Native coin balance
)

// noResultMessages are the explorer messages that denote an empty, successful result.
// They are matched exactly.
var noResultMessages = []string{
	"No transactions found",
	"No internal transactions found",
	"No token transfers found",
}

// isNoResultMessage reports whether message is one of the known "no results" phrases
func isNoResultMessage(message string) bool {
	for _, m := range noResultMessages {
		if message == m {
			return true
		}
	}
	return false
}

// Response is the envelope returned by every account endpoint.
// Status is "1" on success; some forks send it unquoted.
type Response struct {
	Status  json.Number     `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// NormalTx is a record of the txlist endpoint
type NormalTx struct {
	Hash      string `json:"hash"`
	TimeStamp string `json:"timeStamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	GasUsed   string `json:"gasUsed"`
	GasPrice  string `json:"gasPrice"`
	IsError   string `json:"isError"`
}

// InternalTx is a record of the txlistinternal endpoint.
// Etherscan keys the parent transaction under "hash", Blockscout under "transactionHash".
type InternalTx struct {
	Hash            *string `json:"hash"`
	TransactionHash *string `json:"transactionHash"`
	TimeStamp       string  `json:"timeStamp"`
	From            string  `json:"from"`
	To              string  `json:"to"`
	Value           string  `json:"value"`
	IsError         string  `json:"isError"`
}

// TxHash returns the parent transaction hash, trying "hash" first and "transactionHash" second
func (t *InternalTx) TxHash() (string, bool) {
	if t.Hash != nil {
		return *t.Hash, true
	}
	if t.TransactionHash != nil {
		return *t.TransactionHash, true
	}
	return "", false
}

// TokenTransfer is a record of the tokentx endpoint
type TokenTransfer struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// IsNonFungible reports whether the record describes an NFT.
// Blockscout returns NFT transfers from tokentx with an empty decimals field.
func (t *TokenTransfer) IsNonFungible() bool {
	return t.TokenDecimal == ""
}
