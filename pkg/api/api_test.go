package api_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/api"
	"github.com/scalarorg/lending-bridge/pkg/bridge"
	"github.com/scalarorg/lending-bridge/pkg/codec"
	"github.com/scalarorg/lending-bridge/pkg/custody"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/inbound"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	protocolAddress = "0x1111111111111111111111111111111111111111"
	beneficiary     = "0x2222222222222222222222222222222222222222"
)

type keyPair struct {
	id  types.Identity
	key ed25519.PrivateKey
}

func newKeyPair(t *testing.T) keyPair {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id, err := types.IdentityFromBytes(pub)
	require.NoError(t, err)
	return keyPair{id: id, key: key}
}

type testServer struct {
	handler   http.Handler
	gateway   *gateway.MemoryGateway
	ledger    *custody.Ledger
	authority keyPair
	user      keyPair
	relay     keyPair
}

func newTestServer(t *testing.T, devMode bool) *testServer {
	t.Helper()
	s := &testServer{
		gateway:   gateway.NewMemoryGateway(),
		ledger:    custody.NewLedger(),
		authority: newKeyPair(t),
		user:      newKeyPair(t),
		relay:     newKeyPair(t),
	}
	recorder := events.NewRecorder()
	b := bridge.New(codec.NewLegacyCodec(), gateway.NewAdapter(s.gateway, gateway.AdapterConfig{}), s.ledger, nil, recorder, bridge.Options{})
	auth := inbound.NewAuthenticator(inbound.Config{GatewayID: s.relay.id, ChainID: 7001}, nil, recorder)
	s.handler = api.NewServer(&config.ApiConfig{DevMode: devMode}, b, auth, s.ledger).Handler()
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, signer *keyPair) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if signer != nil {
		api.SignRequest(signer.key, method, path, raw).Apply(req)
	}
	return s.send(req)
}

func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func signedRequest(method, path string, raw []byte, headers api.SignedHeaders) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	headers.Apply(req)
	return req
}

// initialized bridge with the native coin registered and the user funded
func (s *testServer) ready(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/initialize", map[string]interface{}{
		"remote_protocol_address": protocolAddress,
		"remote_chain_id":         7001,
	}, &s.authority)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/v1/assets", map[string]interface{}{
		"asset_id":  types.NativeAsset.String(),
		"decimals":  9,
		"is_native": true,
	}, &s.authority)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, s.ledger.Credit(s.user.id, types.NativeAsset, 100_000_000))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestUnsignedRequestIsForbidden(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodPut, "/v1/pause", map[string]bool{"paused": true}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "authorization", decodeError(t, rec).Kind)
}

func TestForgedSignatureIsForbidden(t *testing.T) {
	s := newTestServer(t, false)
	raw := []byte(`{"paused":true}`)
	headers := api.SignRequest(s.user.key, http.MethodPut, "/v1/pause", raw)
	headers.Caller = s.authority.id.String()
	rec := s.send(signedRequest(http.MethodPut, "/v1/pause", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSignedRequestCannotBeReplayed(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)
	raw, err := json.Marshal(map[string]interface{}{
		"asset_id":    types.NativeAsset.String(),
		"amount":      "10000000",
		"beneficiary": beneficiary,
	})
	require.NoError(t, err)
	headers := api.SignRequest(s.user.key, http.MethodPost, "/v1/deposit", raw)

	rec := s.send(signedRequest(http.MethodPost, "/v1/deposit", raw, headers))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = s.send(signedRequest(http.MethodPost, "/v1/deposit", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.send(signedRequest(http.MethodPost, "/v1/repay", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Len(t, s.gateway.Submissions(), 1)
	assert.Equal(t, uint64(90_000_000), s.ledger.Balance(s.user.id, types.NativeAsset))
}

func TestSignatureIsBoundToRoute(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)
	raw := []byte(`{"paused":false}`)
	headers := api.SignRequest(s.authority.key, http.MethodPost, "/v1/deposit", raw)
	rec := s.send(signedRequest(http.MethodPut, "/v1/pause", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "authorization", decodeError(t, rec).Kind)
}

func TestStaleTimestampIsForbidden(t *testing.T) {
	s := newTestServer(t, false)
	raw := []byte(`{"paused":true}`)
	headers := api.SignRequestAt(s.authority.key, http.MethodPut, "/v1/pause", raw,
		time.Now().Add(-time.Hour), "stale-nonce")
	rec := s.send(signedRequest(http.MethodPut, "/v1/pause", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	headers.Nonce = ""
	rec = s.send(signedRequest(http.MethodPut, "/v1/pause", raw, headers))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInitializeOnce(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)

	rec := s.do(t, http.MethodGet, "/v1/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg api.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "active", cfg.State)
	assert.Equal(t, "legacy", cfg.CodecMode)
	assert.Equal(t, s.authority.id, cfg.Authority)
	assert.Equal(t, uint64(7001), cfg.RemoteChainID)

	rec = s.do(t, http.MethodPost, "/v1/initialize", map[string]interface{}{
		"remote_protocol_address": protocolAddress,
		"remote_chain_id":         7001,
	}, &s.user)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDepositSubmitsToGateway(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)

	rec := s.do(t, http.MethodPost, "/v1/deposit", map[string]string{
		"asset_id":    types.NativeAsset.String(),
		"amount":      "10000000",
		"beneficiary": beneficiary,
	}, &s.user)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp api.SubmittedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "10000000", resp.Amount)
	assert.Equal(t, "0.01", resp.Display)

	submission := s.gateway.Last()
	require.NotNil(t, submission)
	assert.Equal(t, gateway.KindDepositNative, submission.Kind())
	assert.Equal(t, uint64(90_000_000), s.ledger.Balance(s.user.id, types.NativeAsset))
}

func TestDepositErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)

	deposit := func(amount, to, path string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/v1/deposit", map[string]string{
			"asset_id":    types.NativeAsset.String(),
			"amount":      amount,
			"beneficiary": to,
			"path":        path,
		}, &s.user)
	}

	rec := deposit("1000000", beneficiary, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Kind)

	rec = deposit("10000000", beneficiary, "token")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, types.ErrWrongDepositPath.Error())

	rec = deposit("1.5", beneficiary, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = deposit("10000000", "not-an-address", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/v1/pause", map[string]bool{"paused": true}, &s.authority)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = deposit("10000000", beneficiary, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "state", decodeError(t, rec).Kind)
}

func TestGatewayFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)
	s.gateway.Fail(errors.New("rpc down"))

	rec := s.do(t, http.MethodPost, "/v1/deposit", map[string]string{
		"asset_id":    types.NativeAsset.String(),
		"amount":      "10000000",
		"beneficiary": beneficiary,
	}, &s.user)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, uint64(100_000_000), s.ledger.Balance(s.user.id, types.NativeAsset))
}

func TestAdminRoutesRequireAuthority(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)

	rec := s.do(t, http.MethodDelete, "/v1/assets/"+types.NativeAsset.String(), nil, &s.user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/v1/assets/"+types.NativeAsset.String(), nil, &s.authority)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/assets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var assets []types.AssetEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.False(t, assets[0].IsSupported)
}

func TestCrossChainBorrow(t *testing.T) {
	s := newTestServer(t, false)
	s.ready(t)

	rec := s.do(t, http.MethodPost, "/v1/borrow", map[string]interface{}{
		"asset":      "0x3333333333333333333333333333333333333333",
		"amount":     "5000",
		"dest_chain": 421614,
		"recipient":  beneficiary,
	}, &s.user)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	submission := s.gateway.Last()
	require.NotNil(t, submission)
	assert.Equal(t, gateway.KindCall, submission.Kind())
}

func TestInboundAndMailbox(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]interface{}{
		"sequence": 1,
		"amount":   "0",
		"sender":   beneficiary,
		"payload":  hexutil.Encode([]byte("hello zeta")),
	}

	rec := s.do(t, http.MethodPost, "/v1/inbound", body, &s.user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/inbound", body, &s.relay)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/v1/mailbox", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var record types.InboundRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "hello zeta", record.LastMessage)
	assert.Equal(t, uint64(1), record.Sequence)

	// a fresh signature does not make an old delivery acceptable again
	rec = s.do(t, http.MethodPost, "/v1/inbound", body, &s.relay)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, types.ErrStaleDelivery.Error())
}

func TestCreditRouteOnlyInDevMode(t *testing.T) {
	body := map[string]string{
		"asset_id": types.NativeAsset.String(),
		"amount":   "42",
	}

	s := newTestServer(t, false)
	body["owner"] = s.user.id.String()
	rec := s.do(t, http.MethodPost, "/v1/custody/credit", body, &s.user)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s = newTestServer(t, true)
	body["owner"] = s.user.id.String()
	rec = s.do(t, http.MethodPost, "/v1/custody/credit", body, &s.user)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, fmt.Sprintf("/v1/custody/balance?owner=%s", s.user.id), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance api.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "42", balance.Balance)

	body["amount"] = "18446744073709551615"
	rec = s.do(t, http.MethodPost, "/v1/custody/credit", body, &s.user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeError(t, rec).Kind)
	assert.Equal(t, uint64(42), s.ledger.Balance(s.user.id, types.NativeAsset))
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, false)
	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "10000000", want: 10_000_000},
		{in: "18446744073709551615", want: 18446744073709551615},
		{in: "18446744073709551616", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tc := range cases {
		got, err := api.ParseAmount(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, types.ErrInvalidAmount, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
	assert.Equal(t, "1.5", api.FormatAmount(1_500_000, 6))
	assert.Equal(t, "0.000000001", api.FormatAmount(1, 9))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, api.StatusOf(types.ErrUnauthorizedAuthority))
	assert.Equal(t, http.StatusBadRequest, api.StatusOf(fmt.Errorf("wrap: %w", types.ErrInvalidChainId)))
	assert.Equal(t, http.StatusConflict, api.StatusOf(types.ErrPaused))
	assert.Equal(t, http.StatusUnprocessableEntity, api.StatusOf(types.ErrInvalidDataFormat))
	assert.Equal(t, http.StatusBadGateway, api.StatusOf(types.ErrGatewayCall))
	assert.Equal(t, http.StatusInternalServerError, api.StatusOf(context.Canceled))
}
