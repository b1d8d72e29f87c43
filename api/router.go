package api

import (
	"errors"
	"net/http"

	"github.com/MixinNetwork/collectible/collectible"
	"github.com/MixinNetwork/collectible/host"
	"github.com/gin-gonic/gin"
)

type Server struct {
	host *host.Host
}

func NewRouter(h *host.Host) *gin.Engine {
	s := &Server{host: h}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/terms", s.getTerms)
	r.GET("/paused", s.getPaused)
	r.GET("/fees/:creator", s.getMintFee)
	r.GET("/roles/:account", s.getRoles)
	r.GET("/tokens/current", s.getCurrentTokenId)
	r.GET("/tokens/:id", s.getToken)
	r.GET("/raffles/:id", s.getRaffle)
	r.GET("/accounts/:account", s.getAccount)
	r.GET("/actions", s.getActions)

	r.POST("/roles/grant", s.grantRole)
	r.POST("/roles/revoke", s.revokeRole)
	r.POST("/signature", s.acquireCreatorSignature)
	r.POST("/mint", s.safeMint)
	r.POST("/donate", s.donate)
	r.POST("/raffles", s.createRaffle)
	r.POST("/raffles/:id/join", s.joinRaffle)
	r.POST("/raffles/:id/settle", s.settleRaffle)
	r.POST("/pause", s.pause)
	r.POST("/unpause", s.unpause)
	r.POST("/terms", s.updateTerms)
	r.POST("/withdraw", s.withdraw)
	r.POST("/deposits", s.deposit)
	return r
}

var statuses = map[string]int{
	"unauthorized":         http.StatusForbidden,
	"paused":               http.StatusConflict,
	"not_paused":           http.StatusConflict,
	"insufficient_payment": http.StatusPaymentRequired,
	"self_donation":        http.StatusBadRequest,
	"already_exists":       http.StatusConflict,
	"not_found":            http.StatusNotFound,
	"closed":               http.StatusConflict,
	"insufficient_balance": http.StatusPaymentRequired,
	"insufficient_funds":   http.StatusPaymentRequired,
	"arithmetic_overflow":  http.StatusUnprocessableEntity,
	"invalid_amount":       http.StatusBadRequest,
	"invalid_terms":        http.StatusBadRequest,
	"invalid_account":      http.StatusBadRequest,
}

func renderError(c *gin.Context, err error) {
	reason := collectible.Reason(err)
	status, ok := statuses[reason]
	if !ok {
		status = http.StatusInternalServerError
	}
	if ctxErr := c.Request.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		status = http.StatusRequestTimeout
	}
	c.JSON(status, gin.H{"error": reason, "message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
}
