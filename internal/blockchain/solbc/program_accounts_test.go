package solbc

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFindProgramAccounts(t *testing.T) {
	m := new(MockRPC)
	program := key(9)
	disc := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	m.On("GetProgramAccountsWithOpts", mock.Anything, program, mock.MatchedBy(func(o *rpc.GetProgramAccountsOpts) bool {
		return len(o.Filters) == 2 &&
			o.Filters[0].DataSize == 624 &&
			o.Filters[1].Memcmp != nil &&
			o.Filters[1].Memcmp.Offset == 0 &&
			assert.ObjectsAreEqual(solana.Base58(disc), o.Filters[1].Memcmp.Bytes)
	})).Return(rpc.GetProgramAccountsResult{
		{Pubkey: key(1), Account: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes([]byte{0xAA})}},
		{Pubkey: key(2), Account: nil},
	}, nil).Once()

	c := newTestClient(testOptions(), m)
	accounts, err := c.FindProgramAccounts(context.Background(), program, disc, 624)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
	assert.Equal(t, []byte{0xAA}, accounts[key(1)])
	m.AssertExpectations(t)
}

func TestFindProgramAccountsError(t *testing.T) {
	m := new(MockRPC)
	m.On("GetProgramAccountsWithOpts", mock.Anything, key(9), mock.Anything).
		Return(nil, errors.New("method disabled"))

	c := newTestClient(testOptions(), m)
	_, err := c.FindProgramAccounts(context.Background(), key(9), []byte{1}, 624)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "getProgramAccounts", rpcErr.Method)
}
