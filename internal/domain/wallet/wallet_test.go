package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

func staticConnector(address string) Connector {
	return ConnectorFunc(func(context.Context) (Connection, error) {
		return Connection{Address: address, PublicKey: "pk-" + address}, nil
	})
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Plug ")
	require.NoError(t, err)
	assert.Equal(t, KindPlug, k)

	_, err = ParseKind("metamask")
	assert.ErrorIs(t, err, shared.ErrUnknownWallet)
}

func TestRegistry_ConnectAndDisconnect(t *testing.T) {
	r := NewRegistry(map[Kind]Connector{
		KindPlug:  staticConnector("aaaaa-aa"),
		KindStoic: staticConnector("bbbbb-bb"),
	})
	ctx := context.Background()

	conn, err := r.Connect(ctx, KindStoic)
	require.NoError(t, err)
	assert.Equal(t, KindStoic, conn.Kind)
	assert.Equal(t, "bbbbb-bb", conn.Address)
	assert.False(t, conn.ConnectedAt.IsZero())

	_, err = r.Connect(ctx, KindPlug)
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, KindPlug, list[0].Kind)

	primary, ok := r.Primary()
	require.True(t, ok)
	assert.Equal(t, KindPlug, primary.Kind)

	require.NoError(t, r.Disconnect(KindPlug))
	assert.Len(t, r.List(), 1)
	assert.ErrorIs(t, r.Disconnect(KindPlug), shared.ErrWalletNotFound)
}

func TestRegistry_FailuresLeaveStateUnchanged(t *testing.T) {
	r := NewRegistry(map[Kind]Connector{
		KindPlug: staticConnector("aaaaa-aa"),
		KindInfinity: ConnectorFunc(func(context.Context) (Connection, error) {
			return Connection{}, errors.New("user rejected")
		}),
		KindBitfinity: ConnectorFunc(func(context.Context) (Connection, error) {
			return Connection{Address: "  "}, nil
		}),
	})
	ctx := context.Background()

	_, err := r.Connect(ctx, KindPlug)
	require.NoError(t, err)

	for _, kind := range []Kind{KindInfinity, KindBitfinity, KindStoic} {
		_, err := r.Connect(ctx, kind)
		assert.ErrorIs(t, err, shared.ErrWalletUnavailable, "kind=%s", kind)
		assert.True(t, shared.IsExternalService(err))
	}

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, KindPlug, list[0].Kind)
}
