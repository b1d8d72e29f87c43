package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/collectible/host"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CallRequest struct {
	TraceId string          `json:"trace_id"`
	Sender  string          `json:"sender" binding:"required"`
	Value   decimal.Decimal `json:"value"`
}

type RoleRequest struct {
	CallRequest
	Role    string `json:"role" binding:"required"`
	Account string `json:"account" binding:"required"`
}

type MintRequest struct {
	CallRequest
	URI       string `json:"uri"`
	Recipient string `json:"recipient"`
}

type DonateRequest struct {
	CallRequest
	Creator string `json:"creator" binding:"required"`
}

type RaffleRequest struct {
	CallRequest
	TokenId        uint64          `json:"token_id" binding:"required"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
}

type TermsRequest struct {
	CallRequest
	MintBaseFee         *decimal.Decimal `json:"mint_base_fee" binding:"required"`
	CreatorSignatureFee *decimal.Decimal `json:"creator_signature_fee" binding:"required"`
	MaxMintsPerCycle    uint32           `json:"max_mints_per_cycle"`
	RateIncrementPct    *decimal.Decimal `json:"rate_increment_pct"`
	DecayPeriod         string           `json:"decay_period"`
}

type WithdrawRequest struct {
	CallRequest
	Amount decimal.Decimal `json:"amount"`
}

type DepositRequest struct {
	TraceId string          `json:"trace_id"`
	Account string          `json:"account" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

type TermsView struct {
	MintBaseFee         decimal.Decimal `json:"mint_base_fee"`
	CreatorSignatureFee decimal.Decimal `json:"creator_signature_fee"`
	MaxMintsPerCycle    uint32          `json:"max_mints_per_cycle"`
	RateIncrementPct    decimal.Decimal `json:"rate_increment_pct"`
	DecayPeriod         string          `json:"decay_period"`
}

type TokenView struct {
	Id        uint64    `json:"id"`
	Creator   string    `json:"creator"`
	Owner     string    `json:"owner"`
	URI       string    `json:"uri"`
	CreatedAt time.Time `json:"created_at"`
}

type RaffleView struct {
	TokenId        uint64                     `json:"token_id"`
	Creator        string                     `json:"creator"`
	ExpectedAmount decimal.Decimal            `json:"expected_amount"`
	RaffleAmount   decimal.Decimal            `json:"raffle_amount"`
	Funded         bool                       `json:"funded"`
	State          string                     `json:"state"`
	Contributions  map[string]decimal.Decimal `json:"contributions"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

func viewTerms(t *collectible.Terms) *TermsView {
	return &TermsView{
		MintBaseFee:         t.MintBaseFee,
		CreatorSignatureFee: t.CreatorSignatureFee,
		MaxMintsPerCycle:    t.MaxMintsPerCycle,
		RateIncrementPct:    t.RateIncrementPct,
		DecayPeriod:         t.DecayPeriod.String(),
	}
}

func viewToken(t *collectible.Token) *TokenView {
	return &TokenView{
		Id:        t.Id,
		Creator:   t.Creator,
		Owner:     t.Owner,
		URI:       t.URI,
		CreatedAt: t.CreatedAt,
	}
}

func viewRaffle(r *collectible.Raffle) *RaffleView {
	return &RaffleView{
		TokenId:        r.TokenId,
		Creator:        r.Creator,
		ExpectedAmount: r.ExpectedAmount,
		RaffleAmount:   r.RaffleAmount,
		Funded:         r.Funded(),
		State:          r.StateName(),
		Contributions:  r.Contributions,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (s *Server) getTerms(c *gin.Context) {
	var terms *collectible.Terms
	err := s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		terms, err = eng.Terms()
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewTerms(terms))
}

func (s *Server) getPaused(c *gin.Context) {
	var paused bool
	err := s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		paused, err = eng.Paused()
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

func (s *Server) getMintFee(c *gin.Context) {
	creator := c.Param("creator")
	if err := collectible.ValidateAccount(creator); err != nil {
		renderError(c, err)
		return
	}
	var fee decimal.Decimal
	err := s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		fee, err = eng.MintFee(creator, now)
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"creator": creator, "fee": fee})
}

func (s *Server) getRoles(c *gin.Context) {
	account := c.Param("account")
	var admin, creator bool
	err := s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		admin, err = eng.HasRole(collectible.RoleAdmin, account)
		if err != nil {
			return err
		}
		creator, err = eng.HasRole(collectible.RoleCreator, account)
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "admin": admin, "creator": creator})
}

func (s *Server) getCurrentTokenId(c *gin.Context) {
	var id uint64
	err := s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		id, err = eng.CurrentTokenId()
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (s *Server) getToken(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}
	var token *collectible.Token
	err = s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		token, err = eng.Token(id)
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewToken(token))
}

func (s *Server) getRaffle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}
	var r *collectible.Raffle
	err = s.host.Query(c.Request.Context(), func(eng *collectible.Engine, now time.Time) (err error) {
		r, err = eng.Raffle(id)
		return err
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewRaffle(r))
}

func (s *Server) getAccount(c *gin.Context) {
	account := c.Param("account")
	if err := collectible.ValidateAccount(account); err != nil {
		renderError(c, err)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		badRequest(c, fmt.Errorf("invalid limit %q", c.Query("limit")))
		return
	}
	ctx := c.Request.Context()
	balance, err := s.host.Ledger().Balance(ctx, account)
	if err != nil {
		renderError(c, err)
		return
	}
	txs, err := s.host.Ledger().Transactions(ctx, account, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	views := make([]gin.H, len(txs))
	for i, tx := range txs {
		views[i] = gin.H{
			"trace_id":   tx.TraceId,
			"call_id":    tx.CallId,
			"sender":     tx.Sender,
			"receiver":   tx.Receiver,
			"amount":     tx.Amount,
			"memo":       tx.Memo,
			"created_at": tx.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"account": account, "balance": balance, "transactions": views})
}

// execute runs a call on the host and renders its action, with extra
// fields merged in on success.
func (s *Server) execute(c *gin.Context, method string, req *CallRequest, handler host.Handler, result func() gin.H) {
	act, err := s.host.Execute(c.Request.Context(), method, req.Sender, req.Value, req.TraceId, handler)
	if err != nil {
		renderError(c, err)
		return
	}
	resp := gin.H{"trace_id": act.TraceId, "state": act.StateName()}
	if result != nil {
		for k, v := range result() {
			resp[k] = v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) grantRole(c *gin.Context) {
	s.updateRole(c, "grant")
}

func (s *Server) revokeRole(c *gin.Context) {
	s.updateRole(c, "revoke")
}

func (s *Server) updateRole(c *gin.Context, method string) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	role, err := collectible.ParseRole(req.Role)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, method, &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		if method == "grant" {
			return eng.GrantRole(ctx, call, role, req.Account)
		}
		return eng.RevokeRole(ctx, call, role, req.Account)
	}, nil)
}

func (s *Server) acquireCreatorSignature(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, "signature", &req, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		return eng.AcquireCreatorSignature(ctx, call)
	}, nil)
}

func (s *Server) safeMint(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var token *collectible.Token
	s.execute(c, "mint", &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) (err error) {
		token, err = eng.SafeMint(ctx, call, req.URI, req.Recipient)
		return err
	}, func() gin.H {
		return gin.H{"token": viewToken(token)}
	})
}

func (s *Server) donate(c *gin.Context) {
	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, "donate", &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		return eng.Donate(ctx, call, req.Creator)
	}, nil)
}

func (s *Server) createRaffle(c *gin.Context) {
	var req RaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var r *collectible.Raffle
	s.execute(c, "raffle", &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) (err error) {
		r, err = eng.CreateRaffle(ctx, call, req.TokenId, req.ExpectedAmount)
		return err
	}, func() gin.H {
		return gin.H{"raffle": viewRaffle(r)}
	})
}

func (s *Server) joinRaffle(c *gin.Context) {
	s.raffleCall(c, "join", func(ctx context.Context, eng *collectible.Engine, call *collectible.Call, id uint64) (*collectible.Raffle, error) {
		return eng.JoinRaffle(ctx, call, id)
	})
}

func (s *Server) settleRaffle(c *gin.Context) {
	s.raffleCall(c, "settle", func(ctx context.Context, eng *collectible.Engine, call *collectible.Call, id uint64) (*collectible.Raffle, error) {
		return eng.SettleRaffle(ctx, call, id)
	})
}

func (s *Server) raffleCall(c *gin.Context, method string, fn func(context.Context, *collectible.Engine, *collectible.Call, uint64) (*collectible.Raffle, error)) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, err)
		return
	}
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var r *collectible.Raffle
	s.execute(c, method, &req, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) (err error) {
		r, err = fn(ctx, eng, call, id)
		return err
	}, func() gin.H {
		return gin.H{"raffle": viewRaffle(r)}
	})
}

func (s *Server) pause(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, "pause", &req, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		return eng.Pause(ctx, call)
	}, nil)
}

func (s *Server) unpause(c *gin.Context) {
	var req CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, "unpause", &req, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		return eng.Unpause(ctx, call)
	}, nil)
}

func (s *Server) updateTerms(c *gin.Context) {
	var req TermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	up := &collectible.TermsUpdate{
		MintBaseFee:         *req.MintBaseFee,
		CreatorSignatureFee: *req.CreatorSignatureFee,
		MaxMintsPerCycle:    req.MaxMintsPerCycle,
		RateIncrementPct:    req.RateIncrementPct,
	}
	if req.DecayPeriod != "" {
		d, err := time.ParseDuration(req.DecayPeriod)
		if err != nil {
			badRequest(c, err)
			return
		}
		up.DecayPeriod = &d
	}
	var terms *collectible.Terms
	s.execute(c, "terms", &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) (err error) {
		terms, err = eng.UpdateTerms(ctx, call, up)
		return err
	}, func() gin.H {
		return gin.H{"terms": viewTerms(terms)}
	})
}

func (s *Server) withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, "withdraw", &req.CallRequest, func(ctx context.Context, eng *collectible.Engine, call *collectible.Call) error {
		return eng.Withdraw(ctx, call, req.Amount)
	}, nil)
}

func (s *Server) deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	act, err := s.host.Deposit(c.Request.Context(), req.TraceId, req.Account, req.Amount)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace_id": act.TraceId, "state": act.StateName()})
}

var actionStates = map[string]int{
	"initial": host.ActionStateInitial,
	"done":    host.ActionStateDone,
	"failed":  host.ActionStateFailed,
}

func (s *Server) getActions(c *gin.Context) {
	state, ok := actionStates[c.DefaultQuery("state", "failed")]
	if !ok {
		badRequest(c, fmt.Errorf("invalid state %q", c.Query("state")))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		badRequest(c, fmt.Errorf("invalid limit %q", c.Query("limit")))
		return
	}
	acts, err := s.host.Actions(state, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	views := make([]gin.H, len(acts))
	for i, act := range acts {
		views[i] = gin.H{
			"trace_id":   act.TraceId,
			"method":     act.Method,
			"sender":     act.Sender,
			"value":      act.Value,
			"state":      act.StateName(),
			"reason":     act.Reason,
			"created_at": act.CreatedAt,
			"updated_at": act.UpdatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"actions": views})
}
