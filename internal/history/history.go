// Package history keeps past cabida calculations so identical requests can be
// answered without recomputing and earlier results can be listed.
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/cabida/internal/cabida"
	"github.com/iwvelando/cabida/internal/zoning"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("calculation not found")

// Record is one stored calculation.
type Record struct {
	ID          uuid.UUID                `json:"id"`
	Key         string                   `json:"key"`
	CreatedAt   time.Time                `json:"createdAt"`
	Certificate cabida.CertificateData   `json:"certificate"`
	Parameters  cabida.RequestParameters `json:"parameters"`
	Result      cabida.CalculationResult `json:"result"`
}

// Store persists records. Implementations are safe for concurrent use.
type Store interface {
	// Put stores rec, replacing any record with the same key.
	Put(ctx context.Context, rec Record) error
	// Lookup returns the latest record for a request key.
	Lookup(ctx context.Context, key string) (Record, error)
	// Get returns the record with the given id.
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Key identifies a request by the SHA-256 of its canonical JSON encoding
// together with the rules fingerprint of the calculator that answers it, so
// results computed under other zone rules or regulation never match. Zone
// aliases are normalized so equivalent requests share a key.
func Key(rules string, cert cabida.CertificateData, params cabida.RequestParameters) (string, error) {
	if zt, err := zoning.ParseZoneType(string(params.ZoneType)); err == nil {
		params.ZoneType = zt
	}
	data, err := json.Marshal(struct {
		Rules       string                   `json:"rules"`
		Certificate cabida.CertificateData   `json:"certificate"`
		Parameters  cabida.RequestParameters `json:"parameters"`
	}{rules, cert, params})
	if err != nil {
		return "", fmt.Errorf("encode request key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewRecord stamps a fresh id and creation time on a calculation.
func NewRecord(key string, cert cabida.CertificateData, params cabida.RequestParameters, result cabida.CalculationResult) Record {
	return Record{
		ID:          uuid.New(),
		Key:         key,
		CreatedAt:   time.Now().UTC(),
		Certificate: cert,
		Parameters:  params,
		Result:      result,
	}
}
