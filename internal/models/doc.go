// Package models defines the core domain models for the settlement service.
//
// Settlements are created once and never updated or deleted by this service;
// retention is an operational concern outside this codebase. The memo field
// only ever exists in plaintext inside a single request: at rest it is the
// SensitiveMemo ciphertext token, and listings carry a per-row DecryptedMemo
// that degrades to a failure marker when a row cannot be decrypted.
package models
