package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DamienReichhart/TradeForge-sub000/internal/condition"
	"github.com/DamienReichhart/TradeForge-sub000/internal/events"
	"github.com/DamienReichhart/TradeForge-sub000/internal/indicators"
	"github.com/DamienReichhart/TradeForge-sub000/internal/palette"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/expr"
)

type expressionRequest struct {
	Field string `json:"field" binding:"required"`
	Text  string `json:"text"`
	Seq   uint64 `json:"seq"`
}

type simplifiedNameRequest struct {
	IndicatorName string                `json:"indicator_name" binding:"required"`
	OutputValues  []string              `json:"output_values"`
	Selected      []indicators.Selected `json:"selected"`
}

type exampleRequest struct {
	Field    string                `json:"field" binding:"required"`
	Selected []indicators.Selected `json:"selected"`
}

// validityResponse is the wire form of a field verdict. Valid stays null
// until a verdict exists.
type validityResponse struct {
	Type    string `json:"type,omitempty"`
	Field   string `json:"field"`
	Seq     uint64 `json:"seq"`
	State   string `json:"state"`
	Valid   *bool  `json:"valid"`
	Message string `json:"message"`
}

func newValidityResponse(field expr.Field, seq uint64, v expr.Validity) validityResponse {
	return validityResponse{
		Field:   string(field),
		Seq:     seq,
		State:   v.State.String(),
		Valid:   v.IsValid(),
		Message: v.Message(),
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

func bindExpression(c *gin.Context) (expressionRequest, expr.Field, bool) {
	var req expressionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return req, "", false
	}
	field, err := expr.ParseField(req.Field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_FIELD", err.Error())
		return req, "", false
	}
	return req, field, true
}

// precheckExpression answers from the local syntax check alone. Text that
// passes it reports validating: only the backend can call it valid.
func (s *Server) precheckExpression(c *gin.Context) {
	req, field, ok := bindExpression(c)
	if !ok {
		return
	}
	local, _ := expr.Local(req.Text)
	c.JSON(http.StatusOK, newValidityResponse(field, req.Seq, local))
}

// validateExpression runs the full check synchronously. The caller's seq is
// echoed so it can discard answers to text it has since edited.
func (s *Server) validateExpression(c *gin.Context) {
	req, field, ok := bindExpression(c)
	if !ok {
		return
	}
	local, needsRemote := expr.Local(req.Text)
	if !needsRemote {
		c.JSON(http.StatusOK, newValidityResponse(field, req.Seq, local))
		return
	}

	connID := c.GetString(requestIDKey)
	s.publish(events.EventValidationRequest, events.Validation{ConnID: connID, Field: string(field), Seq: req.Seq})

	start := time.Now()
	result := condition.Check(c.Request.Context(), s.remoteFor(CurrentToken(c)), field.Kind(), req.Text, s.Opts.Timeout)
	s.publish(events.EventValidationResult, events.Validation{
		ConnID: connID,
		Field:  string(field),
		Seq:    req.Seq,
		State:  result.State.String(),
		Failed: result.Reason == condition.FailedToValidate,
		Took:   time.Since(start),
	})

	c.JSON(http.StatusOK, newValidityResponse(field, req.Seq, result))
}

func (s *Server) getPalette(c *gin.Context) {
	c.JSON(http.StatusOK, s.Palette)
}

// simplifiedName returns the identifier the next instance of an indicator
// would receive, with the tokens it would contribute.
func (s *Server) simplifiedName(c *gin.Context) {
	var req simplifiedNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	name := indicators.SimplifiedName(req.IndicatorName, req.Selected)
	next := indicators.Selected{IndicatorName: req.IndicatorName, SimplifiedName: name, OutputValues: req.OutputValues}
	c.JSON(http.StatusOK, gin.H{
		"simplified_name": name,
		"tokens":          next.Tokens(len(req.Selected)),
	})
}

func (s *Server) exampleCondition(c *gin.Context) {
	var req exampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	field, err := expr.ParseField(req.Field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_FIELD", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"field":   string(field),
		"example": palette.Example(field, req.Selected),
	})
}

// getMetrics exposes the gateway metrics as JSON.
func (s *Server) getMetrics(c *gin.Context) {
	body := gin.H{"gateway": s.Metrics.GetSnapshot()}
	if s.Cache != nil {
		body["verdict_cache"] = s.Cache.Stats()
	}
	if s.Bus != nil {
		body["events_dropped"] = s.Bus.Dropped()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) publish(e events.Event, payload any) {
	if s.Bus != nil {
		s.Bus.Publish(e, payload)
	}
}
