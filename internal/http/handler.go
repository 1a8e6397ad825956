package http

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chess-analytica/internal/board"
	"chess-analytica/internal/chesscom"
	"chess-analytica/internal/core"
	"chess-analytica/internal/game"
	"chess-analytica/internal/player"
	"chess-analytica/internal/service"
	"chess-analytica/internal/timecontrol"
)

const rateLimitRate = 10 // req/sec

// chess.com usernames are letters, digits, underscore and dash
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,40}$`)

type Config struct {
	DevMode bool
	// FetchTimeout bounds an upstream load triggered by a request
	FetchTimeout time.Duration
	// ValidateToken protects the refresh endpoint; nil leaves it open
	ValidateToken TokenValidator
	Logger        zerolog.Logger
}

type HTTPHandler struct {
	svc    *service.Service
	cfg    Config
	logger zerolog.Logger
}

func NewHTTPHandler(svc *service.Service, cfg Config) *HTTPHandler {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 2 * time.Minute
	}
	return &HTTPHandler{
		svc:    svc,
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "http").Logger(),
	}
}

func NewFiberApp(svc *service.Service, cfg Config) *fiber.App {
	h := NewHTTPHandler(svc, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  10 * time.Second,
		// First load of a player walks every monthly archive
		WriteTimeout: cfg.FetchTimeout + 10*time.Second,
		IdleTimeout:  30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health)

	maxReq := rateLimitRate
	if cfg.DevMode {
		maxReq = rateLimitRate * 2
	}
	api.Use(limiter.New(limiter.Config{
		Max:        maxReq,
		Expiration: 1 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			if xff := c.Get("X-Forwarded-For"); xff != "" {
				if idx := strings.Index(xff, ","); idx != -1 {
					return strings.TrimSpace(xff[:idx])
				}
				return xff
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrCodeRateLimited,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))

	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	players := api.Group("/players/:username", usernameParam)
	players.Get("/", h.GetPlayer)
	if cfg.ValidateToken != nil {
		players.Post("/refresh", AuthRequired(cfg.ValidateToken), h.RefreshPlayer)
	} else {
		players.Post("/refresh", h.RefreshPlayer)
	}
	players.Get("/games", h.ListGames)
	players.Get("/games/:gameId", h.GetGame)
	players.Post("/moves", h.MovesAfter)
	players.Post("/common", h.MostCommonMove)

	return app
}

// usernameParam rejects malformed usernames before any upstream call
func usernameParam(c *fiber.Ctx) error {
	if !usernameRegex.MatchString(c.Params("username")) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid username",
			Code:    core.ErrCodeInvalidRequest,
			Details: "username must be 1-40 letters, digits, '_' or '-'",
		})
	}
	return c.Next()
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrCodeInternalError,
	}

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrCodeGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrCodeInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrCodeRateLimited
		}
	}

	return c.Status(code).JSON(response)
}

// writeError maps domain errors onto status codes
func (h *HTTPHandler) writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	resp := core.ErrorResponse{Error: err.Error(), Code: core.ErrCodeInternalError}

	var apiErr *chesscom.APIError
	switch {
	case errors.Is(err, core.ErrPlayerNotFound):
		status, resp.Code = fiber.StatusNotFound, core.ErrCodePlayerNotFound
	case errors.Is(err, core.ErrNoMatchingGames):
		status, resp.Code = fiber.StatusNotFound, core.ErrCodeNoMatchingGames
	case errors.Is(err, core.ErrMalformedNotation):
		status, resp.Code = fiber.StatusBadRequest, core.ErrCodeInvalidFEN
	case errors.Is(err, core.ErrRateLimited):
		status, resp.Code = fiber.StatusServiceUnavailable, core.ErrCodeRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		status, resp.Code = fiber.StatusGatewayTimeout, core.ErrCodeUpstream
	case errors.As(err, &apiErr):
		status, resp.Code = fiber.StatusBadGateway, core.ErrCodeUpstream
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		resp.Error = "internal server error"
	}
	return c.Status(status).JSON(resp)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(core.HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Unix(),
		Storage: h.svc.GetStorageHealth(),
		Players: len(h.svc.Players()),
	})
}

func (h *HTTPHandler) load(c *fiber.Ctx) (*player.Record, error) {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.cfg.FetchTimeout)
	defer cancel()
	return h.svc.Load(ctx, c.Params("username"))
}

func (h *HTTPHandler) GetPlayer(c *fiber.Ctx) error {
	r, err := h.load(c)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(playerResponse(r))
}

func (h *HTTPHandler) RefreshPlayer(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.cfg.FetchTimeout)
	defer cancel()

	r, err := h.svc.Refresh(ctx, c.Params("username"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(playerResponse(r))
}

func playerResponse(r *player.Record) PlayerResponse {
	return PlayerResponse{
		Username:     r.Username,
		Profile:      r.Profile,
		Stats:        r.Stats,
		Games:        len(r.Games),
		CurrentGames: len(r.Current),
		Rejected:     r.Rejected,
		FetchedAt:    r.FetchedAt,
		TimeControls: r.Classes(),
	}
}

func summarize(r *player.Record, g *game.Game) GameSummary {
	return GameSummary{
		Info:  g.Info,
		Plies: g.PlyCount(),
		Color: r.ColorIn(g).String(),
	}
}

// ListGames returns archived games matching ?timeControl=, all by default
func (h *HTTPHandler) ListGames(c *fiber.Ctx) error {
	r, err := h.load(c)
	if err != nil {
		return h.writeError(c, err)
	}

	tc := c.Query("timeControl", timecontrol.All)
	resp := GameListResponse{
		Username:    r.Username,
		TimeControl: tc,
		Games:       []GameSummary{},
	}
	for _, g := range r.Filter(tc) {
		resp.Games = append(resp.Games, summarize(r, g))
	}
	if c.QueryBool("current") {
		for _, g := range r.Current {
			resp.Current = append(resp.Current, summarize(r, g))
		}
	}
	return c.JSON(resp)
}

// GetGame returns one game with its replayed positions
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	if _, err := uuid.Parse(gameID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid game ID format",
			Code:    core.ErrCodeInvalidRequest,
			Details: "game ID must be a valid UUID",
		})
	}

	r, err := h.load(c)
	if err != nil {
		return h.writeError(c, err)
	}

	g, ok := r.Game(gameID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "game not found",
			Code:  core.ErrCodeGameNotFound,
		})
	}

	resp := GameDetailResponse{
		GameSummary: summarize(r, g),
		InitialFEN:  g.InitialFEN(),
	}
	for _, m := range g.Moves() {
		resp.Moves = append(resp.Moves, m.String())
	}
	positions, err := g.Positions()
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Positions = positions
	}
	return c.JSON(resp)
}

// parseQuery turns the validated body into a record query
func parseQuery(c *fiber.Ctx) (*core.PositionQueryRequest, player.Query, error) {
	req, ok := c.Locals("validatedBody").(*core.PositionQueryRequest)
	if !ok || req == nil {
		return nil, player.Query{}, fiber.NewError(fiber.StatusInternalServerError, "validation data missing")
	}

	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		return nil, player.Query{}, err
	}
	q := player.Query{Position: pos, TimeControl: req.TimeControl}
	if req.Color != "" {
		q.Color, _ = core.ParseColor(req.Color)
	}
	return req, q, nil
}

func (h *HTTPHandler) MovesAfter(c *fiber.Ctx) error {
	req, q, err := parseQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	r, err := h.load(c)
	if err != nil {
		return h.writeError(c, err)
	}

	t := r.MovesAfter(q)
	return c.JSON(toMovesResponse(r, req.FEN, q.Color.String(), req.TimeControl, t))
}

func (h *HTTPHandler) MostCommonMove(c *fiber.Ctx) error {
	req, q, err := parseQuery(c)
	if err != nil {
		return h.writeError(c, err)
	}
	r, err := h.load(c)
	if err != nil {
		return h.writeError(c, err)
	}

	t := r.MovesAfter(q)
	if t.NoMatches() {
		return h.writeError(c, fmt.Errorf("%s: %w", req.FEN, core.ErrNoMatchingGames))
	}

	resp := CommonMoveResponse{
		Username: r.Username,
		FEN:      req.FEN,
		Color:    q.Color.String(),
		Matched:  t.Matched,
	}
	if m, ok := t.MostCommon(); ok {
		s := m.String()
		resp.Move = &s
		resp.Count = t.Entries[0].Count
	}
	return c.JSON(resp)
}
