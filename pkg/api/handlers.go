package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

func (s *Server) getConfig(c echo.Context) error {
	cfg := s.bridge.Config()
	return c.JSON(http.StatusOK, ConfigResponse{
		BridgeConfig: cfg,
		State:        cfg.State().String(),
		CodecMode:    string(s.bridge.CodecMode()),
	})
}

func (s *Server) listAssets(c echo.Context) error {
	return c.JSON(http.StatusOK, s.bridge.Assets())
}

func (s *Server) getMailbox(c echo.Context) error {
	return c.JSON(http.StatusOK, s.authenticator.Mailbox())
}

func (s *Server) getBalance(c echo.Context) error {
	owner, err := parseIdentity(c.QueryParam("owner"))
	if err != nil {
		return err
	}
	asset := types.NativeAsset
	if q := c.QueryParam("asset"); q != "" {
		if asset, err = parseIdentity(q); err != nil {
			return err
		}
	}
	var decimals uint8
	if entry, ok := s.bridge.Asset(asset); ok {
		decimals = entry.Decimals
	}
	balance := s.ledger.Balance(owner, asset)
	return c.JSON(http.StatusOK, BalanceResponse{
		Owner:    owner,
		AssetID:  asset,
		Balance:  FormatAmount(balance, 0),
		Display:  FormatAmount(balance, decimals),
		Contract: FormatAmount(s.ledger.ContractBalance(asset), 0),
	})
}

func (s *Server) initialize(c echo.Context) error {
	var req InitializeRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	authority := callerOf(c)
	if req.Authority != "" {
		var err error
		if authority, err = parseIdentity(req.Authority); err != nil {
			return err
		}
	}
	err := s.bridge.Initialize(c.Request().Context(), authority, address(req.RemoteProtocolAddress), req.RemoteChainID)
	if err != nil {
		return err
	}
	return s.getConfig(c)
}

func (s *Server) addAsset(c echo.Context) error {
	var req AddAssetRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	assetID, err := parseIdentity(req.AssetID)
	if err != nil {
		return err
	}
	if err := s.bridge.AddAsset(c.Request().Context(), callerOf(c), assetID, req.Decimals, req.IsNative); err != nil {
		return err
	}
	entry, _ := s.bridge.Asset(assetID)
	return c.JSON(http.StatusCreated, entry)
}

func (s *Server) removeAsset(c echo.Context) error {
	assetID, err := parseIdentity(c.Param("id"))
	if err != nil {
		return err
	}
	if err := s.bridge.RemoveAsset(c.Request().Context(), callerOf(c), assetID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deposit(c echo.Context) error {
	return s.valueFlow(c, false)
}

func (s *Server) repay(c echo.Context) error {
	return s.valueFlow(c, true)
}

func (s *Server) valueFlow(c echo.Context, repay bool) error {
	var req ValueRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	assetID, err := parseIdentity(req.AssetID)
	if err != nil {
		return err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	caller := callerOf(c)
	beneficiary := address(req.Beneficiary)
	switch {
	case repay && req.Path == "native":
		err = s.bridge.RepayNative(ctx, caller, assetID, amount, beneficiary)
	case repay && req.Path == "token":
		err = s.bridge.RepayToken(ctx, caller, assetID, amount, beneficiary)
	case repay:
		err = s.bridge.Repay(ctx, caller, assetID, amount, beneficiary)
	case req.Path == "native":
		err = s.bridge.DepositNative(ctx, caller, assetID, amount, beneficiary)
	case req.Path == "token":
		err = s.bridge.DepositToken(ctx, caller, assetID, amount, beneficiary)
	default:
		err = s.bridge.Deposit(ctx, caller, assetID, amount, beneficiary)
	}
	if err != nil {
		return err
	}
	resp := SubmittedResponse{Status: "submitted", Amount: FormatAmount(amount, 0)}
	if entry, ok := s.bridge.Asset(assetID); ok {
		resp.Display = FormatAmount(amount, entry.Decimals)
	}
	return c.JSON(http.StatusAccepted, resp)
}

func (s *Server) borrow(c echo.Context) error {
	return s.crossChain(c, false)
}

func (s *Server) withdraw(c echo.Context) error {
	return s.crossChain(c, true)
}

func (s *Server) crossChain(c echo.Context, withdraw bool) error {
	var req CrossChainRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if withdraw {
		err = s.bridge.WithdrawCrossChain(ctx, callerOf(c), address(req.Asset), amount, req.DestChain, address(req.Recipient))
	} else {
		err = s.bridge.BorrowCrossChain(ctx, callerOf(c), address(req.Asset), amount, req.DestChain, address(req.Recipient))
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, SubmittedResponse{Status: "submitted", Amount: FormatAmount(amount, 0)})
}

func (s *Server) updateProtocolAddress(c echo.Context) error {
	var req ProtocolAddressRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	err := s.bridge.UpdateRemoteProtocolAddress(c.Request().Context(), callerOf(c), address(req.Address), req.ChainID)
	if err != nil {
		return err
	}
	return s.getConfig(c)
}

func (s *Server) setPause(c echo.Context) error {
	var req PauseRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	if err := s.bridge.SetPause(c.Request().Context(), callerOf(c), *req.Paused); err != nil {
		return err
	}
	return s.getConfig(c)
}

func (s *Server) inbound(c echo.Context) error {
	var req InboundRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	payload, err := parseHex(req.Payload)
	if err != nil {
		return err
	}
	call := types.InboundCall{
		Caller:   callerOf(c),
		Sequence: req.Sequence,
		Amount:   amount,
		Sender:   address(req.Sender),
		Payload:  payload,
	}
	if req.Signer != "" {
		if call.Signer, err = parseIdentity(req.Signer); err != nil {
			return err
		}
	}
	if req.Signature != "" {
		if call.Signature, err = parseHex(req.Signature); err != nil {
			return err
		}
	}
	record, err := s.authenticator.Accept(c.Request().Context(), call)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) credit(c echo.Context) error {
	var req CreditRequest
	if err := bindRequest(c, &req); err != nil {
		return err
	}
	owner, err := parseIdentity(req.Owner)
	if err != nil {
		return err
	}
	assetID, err := parseIdentity(req.AssetID)
	if err != nil {
		return err
	}
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return err
	}
	if err := s.ledger.Credit(owner, assetID, amount); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		Owner:    owner,
		AssetID:  assetID,
		Balance:  FormatAmount(s.ledger.Balance(owner, assetID), 0),
		Contract: FormatAmount(s.ledger.ContractBalance(assetID), 0),
	})
}
