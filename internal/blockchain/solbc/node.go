// internal/blockchain/solbc/node.go
package solbc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPC - часть клиента solana-go, нужная для загрузки аккаунтов
type RPC interface {
	GetMultipleAccountsWithOpts(
		ctx context.Context,
		accounts []solana.PublicKey,
		opts *rpc.GetMultipleAccountsOpts,
	) (*rpc.GetMultipleAccountsResult, error)
	GetProgramAccountsWithOpts(
		ctx context.Context,
		program solana.PublicKey,
		opts *rpc.GetProgramAccountsOpts,
	) (rpc.GetProgramAccountsResult, error)
}

// Node - RPC узел со статистикой успехов, ошибок и задержки
type Node struct {
	URL    string
	client RPC

	active       atomic.Bool
	successCount atomic.Uint64
	errorCount   atomic.Uint64

	mu      sync.RWMutex
	latency time.Duration
}

// NewNode оборачивает RPC реализацию. Узел создается активным.
func NewNode(url string, client RPC) *Node {
	n := &Node{URL: url, client: client}
	n.active.Store(true)
	return n
}

func (n *Node) IsActive() bool { return n.active.Load() }

func (n *Node) SetActive(state bool) { n.active.Store(state) }

func (n *Node) updateMetrics(success bool, latency time.Duration) {
	if success {
		n.successCount.Add(1)
	} else {
		n.errorCount.Add(1)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.latency == 0 {
		n.latency = latency
		return
	}
	n.latency = (n.latency + latency) / 2 // скользящее среднее
}

// Metrics возвращает счетчики запросов и среднюю задержку
func (n *Node) Metrics() (successCount, errorCount uint64, avgLatency time.Duration) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.successCount.Load(), n.errorCount.Load(), n.latency
}

// pool перебирает узлы по кругу, пропуская неактивные
type pool struct {
	nodes []*Node
	next  atomic.Uint64
}

// pick возвращает следующий активный узел. Если неактивны все узлы,
// они один раз активируются заново.
func (p *pool) pick() (*Node, error) {
	if len(p.nodes) == 0 {
		return nil, ErrNoActiveNodes
	}
	for round := 0; round < 2; round++ {
		for range p.nodes {
			n := p.nodes[(p.next.Add(1)-1)%uint64(len(p.nodes))]
			if n.IsActive() {
				return n, nil
			}
		}
		for _, n := range p.nodes {
			n.SetActive(true)
		}
	}
	return nil, ErrNoActiveNodes
}
