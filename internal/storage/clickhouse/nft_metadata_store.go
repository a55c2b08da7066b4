package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"evm-token-gateway/internal/domain"
	"evm-token-gateway/internal/storage"
)

// NFTMetadataStore implements storage.NFTMetadataStore using ClickHouse.
// Attributes are stored as a JSON array string.
type NFTMetadataStore struct {
	conn *Conn
}

// NewNFTMetadataStore creates a new NFTMetadataStore.
func NewNFTMetadataStore(conn *Conn) *NFTMetadataStore {
	return &NFTMetadataStore{conn: conn}
}

// Compile-time interface check.
var _ storage.NFTMetadataStore = (*NFTMetadataStore)(nil)

// Insert appends a metadata record.
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
		return fmt.Errorf("%w: encode attributes: %v", storage.ErrInvalidInput, err)
	}

	start := time.Now()
	defer func() { observe("insert_nft_metadata", start, err) }()

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO nft_metadata (
			id, contract_address, token_id, name, description, image_url, attributes, created_at
		) VALUES (toUUID(?), ?, ?, ?, ?, ?, ?, ?)
	`,
		id.String(),
		m.ContractAddress,
		m.TokenID,
		m.Name,
		m.Description,
		m.ImageURL,
		string(encoded),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert nft metadata: %w", err)
	}
	return nil
}

// GetByToken retrieves every record fetched for (contract, tokenID), in insertion order.
func (s *NFTMetadataStore) GetByToken(ctx context.Context, contractAddress, tokenID string) ([]*domain.NFTMetadataRecord, error) {
	query := `
		SELECT contract_address, token_id, name, description, image_url, attributes, created_at
		FROM nft_metadata
		WHERE contract_address = ? AND token_id = ?
		ORDER BY created_at, id
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, contractAddress, tokenID)
	observe("get_nft_metadata", start, err)
	if err != nil {
		return nil, fmt.Errorf("get nft metadata: %w", err)
	}
	defer rows.Close()

	var result []*domain.NFTMetadataRecord
	for rows.Next() {
		var m domain.NFTMetadataRecord
		var attrs string
		if err := rows.Scan(&m.ContractAddress, &m.TokenID, &m.Name, &m.Description, &m.ImageURL, &attrs, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan nft metadata: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &m.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
		if m.Attributes == nil {
			m.Attributes = []json.RawMessage{}
		}
		result = append(result, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}
