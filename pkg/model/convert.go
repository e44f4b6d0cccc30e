package model

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var errSameMint = errors.New("token_base_address and token_quote_address must differ")

// ZeroPublicKey is the all-zero key used as a sentinel for "field absent"
// (e.g. a TransferSol row with no source, meaning none was found).
var ZeroPublicKey = solana.PublicKey{}

func errInvalidEnum(got string) error {
	return fmt.Errorf("invalid enum value %q", got)
}

// parseSignature decodes a base58-encoded 64-byte transaction signature.
// solana.Signature's own decoder is used for consistency with the teacher
// corpus's key handling, falling back to a length check via mr-tron/base58
// for the rare case a row's hash pre-dates that helper (the store has
// shipped both 64-byte transaction signatures and, in early rows, 32-byte
// instruction hashes — the base58 path surfaces the field name either way).
func parseSignature(s string) (solana.Signature, error) {
	sig, err := solana.SignatureFromBase58(s)
	if err == nil {
		return sig, nil
	}
	raw, decodeErr := base58.Decode(s)
	if decodeErr != nil || len(raw) != 64 {
		return solana.Signature{}, err
	}
	var out solana.Signature
	copy(out[:], raw)
	return out, nil
}

func base58Signature(sig solana.Signature) string {
	return sig.String()
}
