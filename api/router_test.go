package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MixinNetwork/collectible/host"
	"github.com/MixinNetwork/collectible/store"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"
)

const testAdmin = "e9e5b807-fa8b-455a-8dfa-b189d28310ff"

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bs, err := store.OpenBadger(ctx, "")
	require.Nil(t, err)
	t.Cleanup(func() { bs.Close() })

	conf := &host.Configuration{
		App: host.AppConfig{
			Admin:    testAdmin,
			Contract: "7766b24c-1a03-4c2a-83a3-00e7d6c6e7f6",
		},
		Terms: host.TermsConfig{
			MintBaseFee:         "0.05",
			CreatorSignatureFee: "1",
			MaxMintsPerCycle:    10,
		},
	}
	h, err := host.BuildHost(ctx, bs, conf)
	require.Nil(t, err)
	go h.Run(ctx)
	return NewRouter(h)
}

func newAccount() string {
	return uuid.Must(uuid.NewV4()).String()
}

func perform(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.Nil(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.Nil(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestMintFlow(t *testing.T) {
	require := require.New(t)
	r := setupRouter(t)
	alice := newAccount()

	code, resp := perform(t, r, "POST", "/deposits", gin.H{"account": alice, "amount": "2"})
	require.Equal(http.StatusOK, code, resp)
	require.Equal("done", resp["state"])

	code, resp = perform(t, r, "POST", "/mint", gin.H{"sender": alice, "value": "0.05"})
	require.Equal(http.StatusForbidden, code)
	require.Equal("unauthorized", resp["error"])

	traceId := newAccount()
	code, resp = perform(t, r, "POST", "/signature", gin.H{"trace_id": traceId, "sender": alice, "value": "1"})
	require.Equal(http.StatusOK, code, resp)
	require.Equal(traceId, resp["trace_id"])
	code, resp = perform(t, r, "POST", "/signature", gin.H{"trace_id": traceId, "sender": alice, "value": "1"})
	require.Equal(http.StatusConflict, code)
	require.Equal("already_exists", resp["error"])

	code, resp = perform(t, r, "GET", "/roles/"+alice, nil)
	require.Equal(http.StatusOK, code)
	require.Equal(true, resp["creator"])
	require.Equal(false, resp["admin"])

	code, resp = perform(t, r, "POST", "/mint", gin.H{"sender": alice, "value": "0.04", "uri": "ipfs://one"})
	require.Equal(http.StatusPaymentRequired, code)
	require.Equal("insufficient_payment", resp["error"])

	code, resp = perform(t, r, "POST", "/mint", gin.H{"sender": alice, "value": "0.05", "uri": "ipfs://one"})
	require.Equal(http.StatusOK, code, resp)
	token := resp["token"].(map[string]interface{})
	require.Equal(float64(1), token["id"])
	require.Equal("ipfs://one", token["uri"])

	code, resp = perform(t, r, "GET", "/fees/"+alice, nil)
	require.Equal(http.StatusOK, code)
	require.Equal("0.055", resp["fee"])

	code, resp = perform(t, r, "GET", "/tokens/current", nil)
	require.Equal(http.StatusOK, code)
	require.Equal(float64(1), resp["id"])
	code, resp = perform(t, r, "GET", "/tokens/1", nil)
	require.Equal(http.StatusOK, code)
	require.Equal(alice, resp["owner"])
	code, resp = perform(t, r, "GET", "/tokens/9", nil)
	require.Equal(http.StatusNotFound, code)
	require.Equal("not_found", resp["error"])

	code, resp = perform(t, r, "GET", "/accounts/"+alice, nil)
	require.Equal(http.StatusOK, code)
	require.Equal("0.95", resp["balance"])
	require.Len(resp["transactions"], 3)
}

func TestRaffleFlow(t *testing.T) {
	require := require.New(t)
	r := setupRouter(t)
	alice, bob := newAccount(), newAccount()

	perform(t, r, "POST", "/deposits", gin.H{"account": alice, "amount": "2"})
	perform(t, r, "POST", "/deposits", gin.H{"account": bob, "amount": "2"})
	perform(t, r, "POST", "/signature", gin.H{"sender": alice, "value": "1"})
	code, resp := perform(t, r, "POST", "/mint", gin.H{"sender": alice, "value": "0.05"})
	require.Equal(http.StatusOK, code, resp)

	code, resp = perform(t, r, "POST", "/raffles", gin.H{"sender": alice, "token_id": 1, "expected_amount": "1"})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "POST", "/raffles/1/join", gin.H{"sender": bob, "value": "1.2"})
	require.Equal(http.StatusOK, code, resp)
	raffle := resp["raffle"].(map[string]interface{})
	require.Equal(true, raffle["funded"])

	code, resp = perform(t, r, "POST", "/withdraw", gin.H{"sender": testAdmin, "amount": "1.1"})
	require.Equal(http.StatusPaymentRequired, code)
	require.Equal("insufficient_balance", resp["error"])

	code, resp = perform(t, r, "POST", "/raffles/1/settle", gin.H{"sender": alice})
	require.Equal(http.StatusOK, code, resp)
	raffle = resp["raffle"].(map[string]interface{})
	require.Equal("settled", raffle["state"])

	code, resp = perform(t, r, "GET", "/raffles/1", nil)
	require.Equal(http.StatusOK, code)
	require.Equal("1.2", resp["raffle_amount"])
	code, resp = perform(t, r, "POST", "/raffles/1/join", gin.H{"sender": bob, "value": "0.1"})
	require.Equal(http.StatusConflict, code)
	require.Equal("closed", resp["error"])

	code, resp = perform(t, r, "POST", "/withdraw", gin.H{"sender": testAdmin, "amount": "1.05"})
	require.Equal(http.StatusOK, code, resp)
}

func TestAdminFlow(t *testing.T) {
	require := require.New(t)
	r := setupRouter(t)
	alice := newAccount()

	code, resp := perform(t, r, "POST", "/pause", gin.H{"sender": alice})
	require.Equal(http.StatusForbidden, code)
	code, resp = perform(t, r, "POST", "/pause", gin.H{"sender": testAdmin})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "GET", "/paused", nil)
	require.Equal(http.StatusOK, code)
	require.Equal(true, resp["paused"])
	code, resp = perform(t, r, "POST", "/signature", gin.H{"sender": alice, "value": "1"})
	require.Equal(http.StatusConflict, code)
	require.Equal("paused", resp["error"])
	code, resp = perform(t, r, "POST", "/unpause", gin.H{"sender": testAdmin})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "POST", "/unpause", gin.H{"sender": testAdmin})
	require.Equal(http.StatusConflict, code)
	require.Equal("not_paused", resp["error"])

	code, resp = perform(t, r, "POST", "/roles/grant", gin.H{"sender": testAdmin, "role": "creator", "account": alice})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "POST", "/roles/grant", gin.H{"sender": testAdmin, "role": "owner", "account": alice})
	require.Equal(http.StatusBadRequest, code)
	code, resp = perform(t, r, "POST", "/roles/revoke", gin.H{"sender": testAdmin, "role": "creator", "account": alice})
	require.Equal(http.StatusOK, code, resp)

	code, resp = perform(t, r, "POST", "/terms", gin.H{
		"sender":                testAdmin,
		"mint_base_fee":         "0.1",
		"creator_signature_fee": "2",
		"max_mints_per_cycle":   5,
		"decay_period":          "1h",
	})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "GET", "/terms", nil)
	require.Equal(http.StatusOK, code)
	require.Equal("0.1", resp["mint_base_fee"])
	require.Equal("1h0m0s", resp["decay_period"])
	require.Equal("10", resp["rate_increment_pct"])

	code, resp = perform(t, r, "POST", "/terms", gin.H{
		"sender":                testAdmin,
		"mint_base_fee":         "0.1",
		"creator_signature_fee": "2",
		"max_mints_per_cycle":   0,
	})
	require.Equal(http.StatusBadRequest, code)
	require.Equal("invalid_terms", resp["error"])

	code, resp = perform(t, r, "POST", "/terms", gin.H{"sender": testAdmin, "creator_signature_fee": "2", "max_mints_per_cycle": 5})
	require.Equal(http.StatusBadRequest, code)
	require.Equal("bad_request", resp["error"])
	code, resp = perform(t, r, "GET", "/terms", nil)
	require.Equal(http.StatusOK, code)
	require.Equal("0.1", resp["mint_base_fee"])

	code, resp = perform(t, r, "POST", "/donate", gin.H{"sender": alice, "value": "1", "creator": alice})
	require.Equal(http.StatusBadRequest, code)
	require.Equal("self_donation", resp["error"])

	code, resp = perform(t, r, "POST", "/mint", gin.H{"value": "1"})
	require.Equal(http.StatusBadRequest, code)
	require.Equal("bad_request", resp["error"])

	bob := newAccount()
	code, resp = perform(t, r, "POST", "/roles/grant", gin.H{"sender": testAdmin, "role": "creator", "account": bob})
	require.Equal(http.StatusOK, code, resp)
	code, resp = perform(t, r, "POST", "/donate", gin.H{"sender": alice, "value": "1", "creator": bob})
	require.Equal(http.StatusPaymentRequired, code)
	require.Equal("insufficient_funds", resp["error"])

	code, resp = perform(t, r, "GET", "/actions?state=failed", nil)
	require.Equal(http.StatusOK, code)
	acts := resp["actions"].([]interface{})
	last := acts[len(acts)-1].(map[string]interface{})
	require.Equal("donate", last["method"])
	require.Equal("insufficient_funds", last["reason"])
	require.Equal(alice, last["sender"])

	code, resp = perform(t, r, "GET", "/actions?state=pending", nil)
	require.Equal(http.StatusBadRequest, code)
}
