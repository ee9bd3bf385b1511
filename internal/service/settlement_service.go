// Package service orchestrates validation, memo encryption and persistence
// for settlement records.
package service

import (
	"context"
	"log/slog"

	"github.com/exsettle/settlementd/internal/crypto"
	"github.com/exsettle/settlementd/internal/errs"
	"github.com/exsettle/settlementd/internal/models"
	"github.com/exsettle/settlementd/internal/storage"
)

// RecentLimit is how many settlements a listing returns.
const RecentLimit = 10

// SettlementService implements the settlement lifecycle: validate,
// encrypt the memo, persist, and decrypt on read.
type SettlementService struct {
	store  storage.Store
	cipher *crypto.MemoCipher
	logger *slog.Logger

	// echoMemo controls whether ProcessSettlement returns the plaintext
	// memo alongside the ciphertext for round-trip verification.
	echoMemo bool
}

// NewSettlementService creates a settlement service over the given store
// and cipher.
func NewSettlementService(store storage.Store, cipher *crypto.MemoCipher, logger *slog.Logger, echoMemo bool) *SettlementService {
	return &SettlementService{
		store:    store,
		cipher:   cipher,
		logger:   logger,
		echoMemo: echoMemo,
	}
}

// ProcessSettlement validates the input, encrypts the memo and persists the
// settlement. Zero and negative amounts or prices are rejected identically.
// Nothing is persisted if encryption fails.
func (s *SettlementService) ProcessSettlement(ctx context.Context, input models.SettlementInput) (*models.SettlementResult, error) {
	if input.MarketPair == "" {
		return nil, errs.New(errs.Validation, "market_pair is required")
	}
	if input.Amount <= 0 || input.Price <= 0 {
		return nil, errs.New(errs.Validation, "amount and price must be positive")
	}

	encryptedMemo, err := s.cipher.Encrypt(input.Memo)
	if err != nil {
		s.logger.Error("Memo encryption failed", "market_pair", input.MarketPair, "error", err)
		return nil, err
	}

	settlement := &models.Settlement{
		MarketPair:    input.MarketPair,
		Amount:        input.Amount,
		Price:         input.Price,
		SensitiveMemo: encryptedMemo,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("Failed to persist settlement", "market_pair", input.MarketPair, "error", err)
		return nil, err
	}

	s.logger.Info("Settlement processed",
		"id", settlement.ID,
		"market_pair", settlement.MarketPair,
		"amount", settlement.Amount,
	)

	result := &models.SettlementResult{Settlement: *settlement}
	if s.echoMemo {
		result.DecryptedMemo = input.Memo
	}
	return result, nil
}

// GetRecentSettlements returns the most recent settlements with each memo
// decrypted independently. A row that fails to decrypt carries the failure
// marker; it never aborts the listing.
func (s *SettlementService) GetRecentSettlements(ctx context.Context) ([]*models.SettlementResult, error) {
	settlements, err := s.store.ListRecent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SettlementResult, 0, len(settlements))
	for _, settlement := range settlements {
		results = append(results, &models.SettlementResult{
			Settlement:    *settlement,
			DecryptedMemo: s.cipher.Decrypt(settlement.SensitiveMemo),
		})
	}
	return results, nil
}

// HealthCheck probes the backing store.
func (s *SettlementService) HealthCheck(ctx context.Context) error {
	return s.store.Ping(ctx)
}
