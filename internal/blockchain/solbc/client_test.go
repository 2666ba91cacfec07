package solbc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRPC struct {
	mock.Mock
}

func (m *MockRPC) GetMultipleAccountsWithOpts(
	ctx context.Context,
	accounts []solana.PublicKey,
	opts *rpc.GetMultipleAccountsOpts,
) (*rpc.GetMultipleAccountsResult, error) {
	args := m.Called(ctx, accounts, opts)
	res, _ := args.Get(0).(*rpc.GetMultipleAccountsResult)
	return res, args.Error(1)
}

func (m *MockRPC) GetProgramAccountsWithOpts(
	ctx context.Context,
	program solana.PublicKey,
	opts *rpc.GetProgramAccountsOpts,
) (rpc.GetProgramAccountsResult, error) {
	args := m.Called(ctx, program, opts)
	res, _ := args.Get(0).(rpc.GetProgramAccountsResult)
	return res, args.Error(1)
}

func key(b byte) solana.PublicKey {
	var pk solana.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func result(slot uint64, data ...[]byte) *rpc.GetMultipleAccountsResult {
	res := &rpc.GetMultipleAccountsResult{}
	res.Context.Slot = slot
	for _, d := range data {
		if d == nil {
			res.Value = append(res.Value, nil)
			continue
		}
		res.Value = append(res.Value, &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(d)})
	}
	return res
}

func testOptions() Options {
	return Options{
		Timeout:    time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func newTestClient(opts Options, clients ...RPC) *Client {
	nodes := make([]*Node, 0, len(clients))
	for i, c := range clients {
		nodes = append(nodes, NewNode(string(rune('a'+i)), c))
	}
	return NewClientWithNodes(nodes, zap.NewNop(), opts)
}

func TestDefaultOptions(t *testing.T) {
	opts := Options{BatchSize: 500}.normalized()
	assert.Equal(t, MaxAccountsPerRequest, opts.BatchSize)
	assert.Equal(t, rpc.CommitmentConfirmed, opts.Commitment)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Zero(t, opts.MaxRetries, "zero retries must be kept")
	assert.Equal(t, uint(DefaultMaxRetries), DefaultOptions().MaxRetries)
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(nil, zap.NewNop(), DefaultOptions())
	require.Error(t, err)

	c, err := NewClient([]string{"http://localhost:8899"}, zap.NewNop(), DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, c.Nodes(), 1)
}

func TestFetchAccounts(t *testing.T) {
	m := new(MockRPC)
	keys := []solana.PublicKey{key(1), key(2), key(3)}
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.MatchedBy(func(o *rpc.GetMultipleAccountsOpts) bool {
		return o.MinContextSlot == nil && o.Encoding == solana.EncodingBase64
	})).Return(result(42, []byte{1}, nil, []byte{3, 3}), nil).Once()

	c := newTestClient(testOptions(), m)
	accounts, slot, err := c.FetchAccounts(context.Background(), keys)
	require.NoError(t, err)

	assert.Equal(t, uint64(42), slot)
	assert.Len(t, accounts, 2)
	assert.Equal(t, []byte{1}, accounts[key(1)])
	assert.Equal(t, []byte{3, 3}, accounts[key(3)])
	_, ok := accounts[key(2)]
	assert.False(t, ok, "missing account must be omitted")
	m.AssertExpectations(t)
}

func TestFetchAccountsEmpty(t *testing.T) {
	m := new(MockRPC)
	c := newTestClient(testOptions(), m)

	accounts, slot, err := c.FetchAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Zero(t, slot)
	m.AssertNotCalled(t, "GetMultipleAccountsWithOpts", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchAccountsBatchesPinSlot(t *testing.T) {
	m := new(MockRPC)
	opts := testOptions()
	opts.BatchSize = 2
	keys := []solana.PublicKey{key(1), key(2), key(3)}

	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys[:2], mock.MatchedBy(func(o *rpc.GetMultipleAccountsOpts) bool {
		return o.MinContextSlot == nil
	})).Return(result(100, []byte{1}, []byte{2}), nil).Once()
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys[2:], mock.MatchedBy(func(o *rpc.GetMultipleAccountsOpts) bool {
		return o.MinContextSlot != nil && *o.MinContextSlot == 100
	})).Return(result(100, []byte{3}), nil).Once()

	c := newTestClient(opts, m)
	accounts, slot, err := c.FetchAccounts(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), slot)
	assert.Len(t, accounts, 3)
	m.AssertExpectations(t)
}

func TestFetchAccountsSlotMismatch(t *testing.T) {
	m := new(MockRPC)
	opts := testOptions()
	opts.BatchSize = 1
	keys := []solana.PublicKey{key(1), key(2)}

	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys[:1], mock.Anything).
		Return(result(100, []byte{1}), nil).Once()
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys[1:], mock.Anything).
		Return(result(101, []byte{2}), nil).Once()

	c := newTestClient(opts, m)
	_, _, err := c.FetchAccounts(context.Background(), keys)
	assert.ErrorIs(t, err, ErrSlotMismatch)
}

func TestFetchAccountsLengthMismatch(t *testing.T) {
	m := new(MockRPC)
	keys := []solana.PublicKey{key(1), key(2)}
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(result(5, []byte{1}), nil).Once()

	c := newTestClient(testOptions(), m)
	_, _, err := c.FetchAccounts(context.Background(), keys)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestFetchAccountsRetriesOnNextNode(t *testing.T) {
	bad := new(MockRPC)
	good := new(MockRPC)
	keys := []solana.PublicKey{key(1)}

	bad.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(nil, errors.New("connection reset"))
	good.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(result(7, []byte{9}), nil)

	c := newTestClient(testOptions(), bad, good)
	accounts, slot, err := c.FetchAccounts(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), slot)
	assert.Equal(t, []byte{9}, accounts[key(1)])

	var okCount uint64
	for _, n := range c.Nodes() {
		s, _, _ := n.Metrics()
		okCount += s
	}
	assert.Equal(t, uint64(1), okCount)
}

func TestFetchAccountsGivesUp(t *testing.T) {
	m := new(MockRPC)
	keys := []solana.PublicKey{key(1)}
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(nil, errors.New("timeout"))

	c := newTestClient(testOptions(), m)
	_, _, err := c.FetchAccounts(context.Background(), keys)
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "getMultipleAccounts", rpcErr.Method)
	m.AssertNumberOfCalls(t, "GetMultipleAccountsWithOpts", 4)

	_, failures, _ := c.Nodes()[0].Metrics()
	assert.Equal(t, uint64(4), failures)
}

func TestFetchAccountsNotFoundIsPermanent(t *testing.T) {
	m := new(MockRPC)
	keys := []solana.PublicKey{key(1)}
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(nil, rpc.ErrNotFound)

	c := newTestClient(testOptions(), m)
	_, _, err := c.FetchAccounts(context.Background(), keys)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	m.AssertNumberOfCalls(t, "GetMultipleAccountsWithOpts", 1)
}

func TestPoolPickReactivates(t *testing.T) {
	a := NewNode("a", new(MockRPC))
	b := NewNode("b", new(MockRPC))
	p := pool{nodes: []*Node{a, b}}

	a.SetActive(false)
	for i := 0; i < 4; i++ {
		n, err := p.pick()
		require.NoError(t, err)
		assert.Same(t, b, n)
	}

	b.SetActive(false)
	n, err := p.pick()
	require.NoError(t, err)
	assert.True(t, n.IsActive())

	_, err = (&pool{}).pick()
	assert.ErrorIs(t, err, ErrNoActiveNodes)
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := &Error{Err: base, NodeURL: "http://x", Method: "getMultipleAccounts"}
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "http://x")
}

type recordedCall struct {
	endpoint string
	success  bool
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) RecordRPCLatency(_, endpoint string, _ time.Duration, success bool) {
	f.calls = append(f.calls, recordedCall{endpoint: endpoint, success: success})
}

func TestFetchAccountsRecordsLatency(t *testing.T) {
	bad := new(MockRPC)
	good := new(MockRPC)
	keys := []solana.PublicKey{key(1)}
	bad.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(nil, errors.New("503"))
	good.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(result(1, []byte{1}), nil)

	rec := &fakeRecorder{}
	c := newTestClient(testOptions(), bad, good)
	c.SetMetrics(rec)

	_, _, err := c.FetchAccounts(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, []recordedCall{{"a", false}, {"b", true}}, rec.calls)
}

func TestFetchAccountsWithoutRetries(t *testing.T) {
	m := new(MockRPC)
	keys := []solana.PublicKey{key(1)}
	m.On("GetMultipleAccountsWithOpts", mock.Anything, keys, mock.Anything).
		Return(nil, errors.New("timeout"))

	opts := testOptions()
	opts.MaxRetries = 0
	c := newTestClient(opts, m)

	_, _, err := c.FetchAccounts(context.Background(), keys)
	require.Error(t, err)
	m.AssertNumberOfCalls(t, "GetMultipleAccountsWithOpts", 1)
}
