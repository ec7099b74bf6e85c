package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/baditaflorin/go_prompt_score/internal/core/domain"
	"github.com/baditaflorin/go_prompt_score/internal/game"
	"github.com/baditaflorin/go_prompt_score/pkg/scoring"
	"github.com/baditaflorin/l"
	"github.com/valyala/fasthttp"
)

const (
	scoreTimeout = 30 * time.Second
	playTimeout  = 60 * time.Second
	maxBatchSize = 1000
)

// server holds the handler dependencies. game is nil when no session store is configured.
type server struct {
	engine  *scoring.Engine
	catalog *game.Catalog
	game    *game.Service
	logger  l.Logger
	// batchTimeout bounds /score/batch; zero means scoreTimeout.
	batchTimeout time.Duration
}

// ScoreRequest is the body of /score and /score/art.
type ScoreRequest struct {
	Target    string `json:"target"`
	Generated string `json:"generated"`
	Prompt    string `json:"prompt"`
}

// BatchRequest is the body of /score/batch.
type BatchRequest struct {
	Requests []scoring.Request `json:"requests"`
}

// BatchResponse is returned by /score/batch.
type BatchResponse struct {
	Results []scoring.Result `json:"results"`
}

// SessionRequest is the body of /sessions.
type SessionRequest struct {
	PlayerName string `json:"playerName"`
	AvatarURL  string `json:"avatarUrl"`
}

// PlayRequest is the body of /play.
type PlayRequest struct {
	SessionID  string `json:"sessionId"`
	SubRoundID string `json:"subRoundId"`
	Prompt     string `json:"prompt"`
}

// CompleteRequest is the body of /rounds/complete.
type CompleteRequest struct {
	SessionID string `json:"sessionId"`
	RoundID   int    `json:"roundId"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handle is the main fasthttp request handler
func (s *server) handle(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	ctx.Response.Header.Set("Content-Type", "application/json")

	switch string(ctx.Path()) {
	case "/health":
		s.handleHealthCheck(ctx)
	case "/score":
		s.handleScore(ctx, scoring.KindPhrase)
	case "/score/art":
		s.handleScore(ctx, scoring.KindArt)
	case "/score/batch":
		s.handleBatch(ctx)
	case "/rounds":
		s.handleRounds(ctx)
	case "/rounds/complete":
		s.handleCompleteRound(ctx)
	case "/sessions":
		s.handleStartSession(ctx)
	case "/play":
		s.handlePlay(ctx)
	case "/leaderboard":
		s.handleLeaderboard(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		s.writeJSONError(ctx, "Not found")
	}

	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (s *server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{
		"status": "ok",
		"game":   s.game != nil,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleScore(ctx *fasthttp.RequestCtx, kind scoring.Kind) {
	var req ScoreRequest
	if !s.decodePost(ctx, &req) {
		return
	}

	var result scoring.Result
	if kind == scoring.KindArt {
		result = s.engine.ScoreArt(req.Target, req.Generated, req.Prompt)
	} else {
		result = s.engine.Score(req.Target, req.Generated, req.Prompt)
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, result)
}

func (s *server) handleBatch(ctx *fasthttp.RequestCtx) {
	var req BatchRequest
	if !s.decodePost(ctx, &req) {
		return
	}
	if len(req.Requests) > maxBatchSize {
		ctx.SetStatusCode(fasthttp.StatusRequestEntityTooLarge)
		s.writeJSONError(ctx, "Too many requests in batch")
		return
	}

	timeout := s.batchTimeout
	if timeout == 0 {
		timeout = scoreTimeout
	}
	c, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results, err := s.engine.ScoreBatch(c, req.Requests)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.Warn("Batch scoring timed out", "size", len(req.Requests), "timeout", timeout)
		ctx.SetStatusCode(fasthttp.StatusGatewayTimeout)
		s.writeJSONError(ctx, err.Error())
		return
	}
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, err.Error())
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, BatchResponse{Results: results})
}

func (s *server) handleRounds(ctx *fasthttp.RequestCtx) {
	if !s.requireMethod(ctx, fasthttp.MethodGet) {
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, s.catalog.Rounds())
}

func (s *server) handleStartSession(ctx *fasthttp.RequestCtx) {
	if !s.requireGame(ctx) {
		return
	}
	var req SessionRequest
	if !s.decodePost(ctx, &req) {
		return
	}

	c, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	sess, err := s.game.StartSession(c, req.PlayerName, req.AvatarURL)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusCreated)
	s.writeJSONResponse(ctx, sess)
}

func (s *server) handlePlay(ctx *fasthttp.RequestCtx) {
	if !s.requireGame(ctx) {
		return
	}
	var req PlayRequest
	if !s.decodePost(ctx, &req) {
		return
	}

	c, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	res, err := s.game.Play(c, req.SessionID, req.SubRoundID, req.Prompt)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, res)
}

func (s *server) handleCompleteRound(ctx *fasthttp.RequestCtx) {
	if !s.requireGame(ctx) {
		return
	}
	var req CompleteRequest
	if !s.decodePost(ctx, &req) {
		return
	}

	c, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	sess, err := s.game.CompleteRound(c, req.SessionID, req.RoundID)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, sess)
}

func (s *server) handleLeaderboard(ctx *fasthttp.RequestCtx) {
	if !s.requireMethod(ctx, fasthttp.MethodGet) || !s.requireGame(ctx) {
		return
	}
	limit := ctx.QueryArgs().GetUintOrZero("limit")

	c, cancel := context.WithTimeout(context.Background(), scoreTimeout)
	defer cancel()

	entries, err := s.game.Leaderboard(c, limit)
	if err != nil {
		s.writeServiceError(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, entries)
}

// Helper functions

func (s *server) requireMethod(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) != method {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return false
	}
	return true
}

func (s *server) requireGame(ctx *fasthttp.RequestCtx) bool {
	if s.game == nil {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		s.writeJSONError(ctx, "Session store not configured")
		return false
	}
	return true
}

// decodePost checks the method and decodes the JSON body into v.
func (s *server) decodePost(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if !s.requireMethod(ctx, fasthttp.MethodPost) {
		return false
	}
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// writeServiceError maps game errors to HTTP statuses.
func (s *server) writeServiceError(ctx *fasthttp.RequestCtx, err error) {
	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUnknownRound):
		status = fasthttp.StatusNotFound
	case errors.Is(err, domain.ErrRoundNotActive), errors.Is(err, domain.ErrAttemptsExhausted):
		status = fasthttp.StatusConflict
	case errors.Is(err, domain.ErrEmptyPrompt), errors.Is(err, domain.ErrEmptyPlayerName):
		status = fasthttp.StatusBadRequest
	case errors.Is(err, domain.ErrNoGenerator):
		status = fasthttp.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = fasthttp.StatusGatewayTimeout
	}
	if status == fasthttp.StatusInternalServerError {
		s.logger.Error("Request failed", "path", string(ctx.Path()), "error", err)
	}
	ctx.SetStatusCode(status)
	s.writeJSONError(ctx, err.Error())
}

// writeJSONResponse writes a JSON response to the context
func (s *server) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON response", "error", err)
		s.writeJSONError(ctx, "Internal server error")
		return
	}

	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func (s *server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetBody(response)
}
