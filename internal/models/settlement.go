package models

// Settlement represents a recorded trade-completion event.
type Settlement struct {
	// ID is the store-assigned identifier, increasing with insertion order.
	ID int64 `json:"id"`

	// MarketPair identifies the trading pair, e.g. "BTC/USD".
	MarketPair string `json:"market_pair"`

	// Amount is the settled quantity. Always positive.
	Amount float64 `json:"amount"`

	// Price is the settlement price. Always positive.
	Price float64 `json:"price"`

	// SensitiveMemo holds the memo ciphertext token (hex nonce + ":" +
	// hex ciphertext). Never empty: an absent memo is encrypted as a
	// placeholder so every row carries a ciphertext.
	SensitiveMemo string `json:"sensitive_memo"`

	// CreatedAt is the Unix timestamp assigned by the store at insertion.
	CreatedAt int64 `json:"created_at"`
}

// SettlementInput is the caller-supplied portion of a settlement.
type SettlementInput struct {
	MarketPair string  `json:"market_pair"`
	Amount     float64 `json:"amount"`
	Price      float64 `json:"price"`
	Memo       string  `json:"memo,omitempty"`
}

// SettlementResult is a persisted settlement plus the recovered memo
// plaintext (or the decryption failure marker) for that row.
type SettlementResult struct {
	Settlement
	DecryptedMemo string `json:"decrypted_memo"`
}
