package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// NFTMetadataStore appends metadata documents to nft_metadata. Attributes
// are stored as a JSONB array.
type NFTMetadataStore struct {
	pool *Pool
}

func NewNFTMetadataStore(pool *Pool) *NFTMetadataStore {
	return &NFTMetadataStore{pool: pool}
}

var _ storage.NFTMetadataStore = (*NFTMetadataStore)(nil)

func (s *NFTMetadataStore) Insert(ctx context.Context, m *domain.NFTMetadataRecord) (err error) {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	attrs := m.Attributes
	if attrs == nil {
		attrs = []json.RawMessage{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("%w: attributes: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_nft_metadata", start, err) }()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO nft_metadata (contract_address, token_id, name, description, image_url, attributes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		m.ContractAddress, m.TokenID, m.Name, m.Description, m.ImageURL, string(encoded), m.CreatedAt,
	)
	return translate("insert nft metadata", err)
}

func (s *NFTMetadataStore) GetByToken(ctx context.Context, contractAddress, tokenID string) ([]*domain.NFTMetadataRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT contract_address, token_id, name, description, image_url, attributes::text, created_at
		 FROM nft_metadata
		 WHERE contract_address = $1 AND token_id = $2
		 ORDER BY id`,
		contractAddress, tokenID,
	)
	if err != nil {
		return nil, translate("get nft metadata", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.NFTMetadataRecord, error) {
		var (
			m     domain.NFTMetadataRecord
			attrs string
		)
		if err := row.Scan(&m.ContractAddress, &m.TokenID, &m.Name, &m.Description, &m.ImageURL, &attrs, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(attrs), &m.Attributes); err != nil {
			return nil, fmt.Errorf("stored attributes: %w", err)
		}
		if m.Attributes == nil {
			m.Attributes = []json.RawMessage{}
		}
		return &m, nil
	})
	if err != nil {
		return nil, translate("get nft metadata", err)
	}
	return records, nil
}
