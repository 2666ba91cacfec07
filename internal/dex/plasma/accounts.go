// internal/dex/plasma/accounts.go
package plasma

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// AccountMap maps addresses to raw account data fetched at one slot.
type AccountMap map[solana.PublicKey][]byte

// lookup returns the data for key or a MissingAccountError naming its role.
func (m AccountMap) lookup(role string, key solana.PublicKey) ([]byte, error) {
	data, ok := m[key]
	if !ok || data == nil {
		return nil, &MissingAccountError{Account: role, Key: key}
	}
	return data, nil
}

// Offsets of the COption tags inside a token account: delegate, is_native
// and close_authority.
var tokenAccountOptionTags = [...]struct {
	name   string
	offset int
}{
	{"delegate", 72},
	{"is_native", 109},
	{"close_authority", 129},
}

const tokenAccountStateOffset = 108

// DecodeTokenAccount unpacks an SPL token account. Like the token
// program's own unpack, it requires the exact account size, a known
// initialized state and well-formed option tags.
func DecodeTokenAccount(data []byte) (*token.Account, error) {
	if len(data) != TokenAccountLen {
		return nil, &DecodeError{
			Account: "token account",
			Err:     fmt.Errorf("%w: got %d bytes, want %d", ErrTokenAccount, len(data), TokenAccountLen),
		}
	}
	for _, tag := range tokenAccountOptionTags {
		if v := binary.LittleEndian.Uint32(data[tag.offset:]); v > 1 {
			return nil, &DecodeError{
				Account: "token account",
				Err:     fmt.Errorf("%w: invalid %s option tag %d", ErrTokenAccount, tag.name, v),
			}
		}
	}
	if state := token.AccountState(data[tokenAccountStateOffset]); state > token.Frozen {
		return nil, &DecodeError{
			Account: "token account",
			Err:     fmt.Errorf("%w: invalid state %d", ErrTokenAccount, state),
		}
	}
	var acc token.Account
	if err := acc.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, &DecodeError{Account: "token account", Err: fmt.Errorf("%w: %v", ErrTokenAccount, err)}
	}
	if acc.State == token.Uninitialized {
		return nil, &DecodeError{Account: "token account", Err: fmt.Errorf("%w: uninitialized", ErrTokenAccount)}
	}
	return &acc, nil
}
