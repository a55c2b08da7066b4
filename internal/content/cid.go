package content

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	multihashSHA256 = 0x12
	sha256Length    = 0x20
	base32Alphabet  = "abcdefghijklmnopqrstuvwxyz234567"
)

// ValidateCID checks that hash is a syntactically valid IPFS content identifier:
// a base58 CIDv0 ("Qm...") or a base32 ("b...") or base58btc ("z...") CIDv1.
func ValidateCID(hash string) error {
	switch {
	case len(hash) == 46 && strings.HasPrefix(hash, "Qm"):
		raw, err := base58.Decode(hash)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		if len(raw) != 34 || raw[0] != multihashSHA256 || raw[1] != sha256Length {
			return fmt.Errorf("%w: not a sha2-256 multihash", ErrInvalidHash)
		}
		return nil

	case len(hash) > 8 && hash[0] == 'b':
		for _, c := range hash[1:] {
			if !strings.ContainsRune(base32Alphabet, c) {
				return fmt.Errorf("%w: invalid base32 character %q", ErrInvalidHash, c)
			}
		}
		return nil

	case len(hash) > 8 && hash[0] == 'z':
		raw, err := base58.Decode(hash[1:])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
		if len(raw) < 4 || raw[0] != 0x01 {
			return fmt.Errorf("%w: not a CIDv1", ErrInvalidHash)
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidHash, hash)
}
