// Package wallet models the browser-wallet capability. A wallet is opaque to
// Learnify: connecting either yields an address or fails.
package wallet

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

// Kind identifies a supported wallet extension.
type Kind string

const (
	KindPlug      Kind = "plug"
	KindStoic     Kind = "stoic"
	KindInfinity  Kind = "infinity"
	KindBitfinity Kind = "bitfinity"
)

// Kinds returns every supported wallet kind.
func Kinds() []Kind {
	return []Kind{KindPlug, KindStoic, KindInfinity, KindBitfinity}
}

// ParseKind parses a wallet kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", shared.WrapError("wallet", "ParseKind", shared.ErrUnknownWallet, "unknown wallet kind "+s, nil)
}

// Connection is the result of a successful connect.
type Connection struct {
	Kind        Kind      `json:"kind"`
	Address     string    `json:"address"`
	PublicKey   string    `json:"public_key,omitempty"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Connector is the capability offered by one wallet extension.
// Implementations must not retry; a failed connect is reported as is.
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Connection, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context) (Connection, error) {
	return f(ctx)
}

// Registry holds the wallets a learner has connected during a session.
// Several wallets may be connected at once, one per kind.
type Registry struct {
	mu         sync.RWMutex
	connectors map[Kind]Connector
	connected  map[Kind]Connection
	now        func() time.Time
}

// NewRegistry creates a registry over the available connectors.
// Kinds without a connector are treated as not installed.
func NewRegistry(connectors map[Kind]Connector) *Registry {
	c := make(map[Kind]Connector, len(connectors))
	for k, v := range connectors {
		c[k] = v
	}
	return &Registry{
		connectors: c,
		connected:  make(map[Kind]Connection),
		now:        time.Now,
	}
}

// Connect asks the wallet of the given kind for an address.
// Any failure is reported as shared.ErrWalletUnavailable and leaves the
// registry unchanged.
func (r *Registry) Connect(ctx context.Context, kind Kind) (Connection, error) {
	r.mu.RLock()
	connector, ok := r.connectors[kind]
	r.mu.RUnlock()
	if !ok {
		return Connection{}, shared.WrapError("wallet", "Connect", shared.ErrWalletUnavailable, string(kind)+" wallet is not installed", nil)
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return Connection{}, shared.WrapError("wallet", "Connect", shared.ErrWalletUnavailable, string(kind)+" wallet rejected the connection", err)
	}
	if strings.TrimSpace(conn.Address) == "" {
		return Connection{}, shared.WrapError("wallet", "Connect", shared.ErrWalletUnavailable, string(kind)+" wallet returned no address", nil)
	}

	conn.Kind = kind
	if conn.ConnectedAt.IsZero() {
		conn.ConnectedAt = r.now()
	}

	r.mu.Lock()
	r.connected[kind] = conn
	r.mu.Unlock()

	return conn, nil
}

// Disconnect forgets a connected wallet.
func (r *Registry) Disconnect(kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connected[kind]; !ok {
		return shared.ErrWalletNotFound
	}
	delete(r.connected, kind)
	return nil
}

// List returns the connected wallets ordered by kind.
func (r *Registry) List() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Connection, 0, len(r.connected))
	for _, c := range r.connected {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Primary returns the first connected wallet, if any.
func (r *Registry) Primary() (Connection, bool) {
	list := r.List()
	if len(list) == 0 {
		return Connection{}, false
	}
	return list[0], true
}
