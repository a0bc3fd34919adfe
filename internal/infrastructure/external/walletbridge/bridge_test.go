package walletbridge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
	"github.com/learnify/learnify-hub/internal/domain/wallet"
)

func TestClient_Connect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/wallets/plug/connect":
			_, _ = w.Write([]byte(`{"principal_id":"aaaaa-aa","public_key":"04ab"}`))
		case "/wallets/stoic/connect":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"user rejected"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(DefaultClientConfig(srv.URL))
	at := time.Date(2024, 9, 3, 10, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return at }

	conn, err := client.Connect(context.Background(), wallet.KindPlug)
	require.NoError(t, err)
	assert.Equal(t, wallet.Connection{Kind: wallet.KindPlug, Address: "aaaaa-aa", PublicKey: "04ab", ConnectedAt: at}, conn)

	_, err = client.Connect(context.Background(), wallet.KindStoic)
	assert.ErrorContains(t, err, "user rejected")

	_, err = client.Connect(context.Background(), wallet.KindInfinity)
	assert.ErrorContains(t, err, "status 404")
}

func TestClient_ConnectorsFeedRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"principal_id":"","public_key":""}`))
	}))
	defer srv.Close()

	client := NewClient(DefaultClientConfig(srv.URL))
	connectors := client.Connectors()
	assert.Len(t, connectors, len(wallet.Kinds()))

	// An empty principal is a failed connect.
	reg := wallet.NewRegistry(connectors)
	_, err := reg.Connect(context.Background(), wallet.KindBitfinity)
	assert.ErrorIs(t, err, shared.ErrWalletUnavailable)
	assert.Empty(t, reg.List())
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(DefaultClientConfig(""))
	assert.Nil(t, client.Connectors())

	_, err := client.Connect(context.Background(), wallet.KindPlug)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
