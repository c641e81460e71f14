/*
http_test.go - BridgeClient tests against a stub bridge

A httptest server plays the chain bridge; the tests pin down the request
shapes and the Result envelope handling, including non-2xx responses and
transport failures.
*/
package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeClient_IsAvailable(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()

	c := NewBridgeClient(up.URL, time.Second)
	assert.True(t, c.IsAvailable(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c = NewBridgeClient(down.URL, time.Second)
	assert.False(t, c.IsAvailable(context.Background()))

	// Transport failure reads as unavailable, never as an error.
	down.Close()
	assert.False(t, c.IsAvailable(context.Background()))
}

func TestBridgeClient_Exists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/participants/emp-1":
			json.NewEncoder(w).Encode(map[string]bool{"exists": true})
		case "/participants/emp-2":
			json.NewEncoder(w).Encode(map[string]bool{"exists": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL, time.Second)

	exists, err := c.Exists(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = c.Exists(context.Background(), "emp-2")
	require.NoError(t, err)
	assert.False(t, exists)

	// 404 means "not registered", not an error.
	exists, err = c.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBridgeClient_RegisterParticipant(t *testing.T) {
	// GIVEN: A bridge that accepts the registration
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/participants", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Result{Success: true, TxRef: "0xAA"})
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL, time.Second)
	wallet := "0xwallet1"

	// WHEN: A participant with a wallet is registered
	res, err := c.RegisterParticipant(context.Background(), RegisterParams{
		ID:         "emp-1",
		Name:       "Dana Field",
		Wallet:     &wallet,
		Role:       "engineer",
		Department: "platform",
		HireDate:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
	})

	// THEN: The payload carries the date-only hire date and the wallet
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "0xAA", res.TxRef)
	assert.Equal(t, "emp-1", got["id"])
	assert.Equal(t, "2025-01-06", got["hireDate"])
	assert.Equal(t, "0xwallet1", got["wallet"])
}

func TestBridgeClient_FailureReasonPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(Result{Success: false, Reason: "out of gas"})
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL, time.Second)
	res, err := c.RecordStatusChange(context.Background(), "emp-1", "ON_LEAVE", "")
	require.NoError(t, err, "an on-chain refusal is a Result, not a transport error")
	assert.False(t, res.Success)
	assert.Equal(t, "out of gas", res.Reason)
}

func TestBridgeClient_NonJSONFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream node timeout"))
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL, time.Second)
	_, err := c.RecordPayment(context.Background(), "emp-1", decimal.RequireFromString("1500.00"))
	assert.Error(t, err)
}

func TestBridgeClient_AmountSerializedAsString(t *testing.T) {
	// Amounts cross the wire as decimal strings, never floats.
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/participants/emp-1/payments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(Result{Success: true, TxRef: "0xBB"})
	}))
	defer srv.Close()

	c := NewBridgeClient(srv.URL, time.Second)
	_, err := c.RecordPayment(context.Background(), "emp-1", decimal.RequireFromString("1500.33"))
	require.NoError(t, err)
	assert.Equal(t, "1500.33", got["amount"])
}
