package domain

import (
	"encoding/json"
	"fmt"
)

// NFTMetadataRecord is a fetched NFT metadata document.
// Appended on every successful fetch; the store assigns identity.
type NFTMetadataRecord struct {
	ContractAddress string            `json:"contractAddress"` // NFT contract the token URI was read from
	TokenID         string            `json:"tokenId"`         // decimal token id
	Name            string            `json:"name"`            // required
	Description     string            `json:"description"`     // required
	ImageURL        string            `json:"imageUrl"`        // required
	Attributes      []json.RawMessage `json:"attributes"`      // opaque, order preserved, never nil after parse
	CreatedAt       int64             `json:"createdAt"`       // record creation timestamp (ms)
}

// Validate checks the required metadata fields.
func (m *NFTMetadataRecord) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: record", ErrMissingField)
	}
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: name", ErrMissingField)
	case m.Description == "":
		return fmt.Errorf("%w: description", ErrMissingField)
	case m.ImageURL == "":
		return fmt.Errorf("%w: imageUrl", ErrMissingField)
	}
	return nil
}

// nftDocument is the subset of a metadata document the store keeps.
type nftDocument struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ImageURL    string            `json:"imageUrl"`
	Image       string            `json:"image"`
	Attributes  []json.RawMessage `json:"attributes"`
}

// ParseNFTMetadata extracts a record from a raw metadata document.
// imageUrl falls back to the ERC-721 "image" key. The returned record
// is not validated.
func ParseNFTMetadata(doc []byte) (*NFTMetadataRecord, error) {
	var d nftDocument
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("decode metadata document: %w", err)
	}

	rec := &NFTMetadataRecord{
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Attributes:  d.Attributes,
	}
	if rec.ImageURL == "" {
		rec.ImageURL = d.Image
	}
	if rec.Attributes == nil {
		rec.Attributes = []json.RawMessage{}
	}
	return rec, nil
}

// IPFSDataRecord is content retrieved by hash from IPFS.
type IPFSDataRecord struct {
	Hash      string `json:"hash"`      // content identifier, required
	Text      string `json:"text"`      // retrieved payload, required
	CreatedAt int64  `json:"createdAt"` // record creation timestamp (ms)
}

// Validate checks the required fields.
func (d *IPFSDataRecord) Validate() error {
	if d == nil || d.Hash == "" {
		return fmt.Errorf("%w: hash", ErrMissingField)
	}
	if d.Text == "" {
		return fmt.Errorf("%w: text", ErrMissingField)
	}
	return nil
}
