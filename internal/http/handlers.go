package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/auth"
	"github.com/example/paper-trader/internal/domain"
	"github.com/example/paper-trader/internal/market"
	"github.com/example/paper-trader/internal/realtime"
	"github.com/example/paper-trader/internal/trading"
)

type Server struct {
	R        *gin.Engine
	Auth     *auth.Service
	Trading  *trading.Service
	Market   *market.Service
	Hub      *realtime.Hub
	Logger   *zap.Logger
	upgrader websocket.Upgrader
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, services, and middleware.
func NewServer(authSvc *auth.Service, tradingSvc *trading.Service, marketSvc *market.Service, hub *realtime.Hub, logger *zap.Logger, corsOrigin string) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:       g,
		Auth:    authSvc,
		Trading: tradingSvc,
		Market:  marketSvc,
		Hub:     hub,
		Logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	g.GET("/api/health", func(cn *gin.Context) {
		cn.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})
	g.POST("/api/auth/signup", s.signup)
	g.POST("/api/auth/login", s.login)
	g.GET("/api/assets", s.listAssets)
	g.POST("/api/market/tick", s.marketTick)
	g.GET("/ws", s.serveWS)

	authed := g.Group("/api", s.requireAuth)
	authed.GET("/portfolio", s.getPortfolio)
	authed.POST("/orders", s.placeOrder)
	authed.GET("/transactions", s.listTransactions)

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{Code: "unauthorized", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}

// serviceError maps domain failures onto HTTP statuses.
func (s *Server) serviceError(c *gin.Context, where string, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, apiError{Code: "invalid_order", Message: "invalid order"})
	case errors.Is(err, trading.ErrInsufficientCash):
		c.JSON(http.StatusBadRequest, apiError{Code: "insufficient_cash", Message: "insufficient cash"})
	case errors.Is(err, trading.ErrInsufficientHoldings):
		c.JSON(http.StatusBadRequest, apiError{Code: "insufficient_holdings", Message: "insufficient holdings"})
	case errors.Is(err, trading.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, apiError{Code: "asset_not_found", Message: "asset not found"})
	case errors.Is(err, trading.ErrPortfolioNotFound):
		c.JSON(http.StatusNotFound, apiError{Code: "portfolio_not_found", Message: "portfolio not found"})
	case errors.Is(err, auth.ErrMissingFields):
		c.JSON(http.StatusBadRequest, apiError{Code: "missing_fields", Message: "missing fields"})
	case errors.Is(err, auth.ErrEmailTaken):
		c.JSON(http.StatusConflict, apiError{Code: "email_taken", Message: "email already registered"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, apiError{Code: "invalid_credentials", Message: "invalid credentials"})
	default:
		s.internalError(c, where, err)
	}
}

// requireAuth verifies the bearer token and stores the user ID in the context.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		s.unauthorized(c, "missing bearer token")
		return
	}
	userID, err := s.Auth.VerifyToken(strings.TrimSpace(token))
	if err != nil {
		s.unauthorized(c, "invalid token")
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func (s *Server) userID(c *gin.Context) string {
	return c.GetString("userID")
}

// --- Handlers ---

func (s *Server) signup(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "missing fields")
		return
	}

	token, user, err := s.Auth.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		s.serviceError(c, "Signup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "missing fields")
		return
	}

	token, user, err := s.Auth.Login(req.Email, req.Password)
	if err != nil {
		s.serviceError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) listAssets(c *gin.Context) {
	assets, err := s.Market.Assets()
	if err != nil {
		s.internalError(c, "Assets", err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

func (s *Server) getPortfolio(c *gin.Context) {
	view, err := s.Trading.PortfolioView(s.userID(c))
	if err != nil {
		s.serviceError(c, "PortfolioView", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) placeOrder(c *gin.Context) {
	var req struct {
		AssetID  string          `json:"assetId" binding:"required"`
		Side     string          `json:"side" binding:"required"`
		Quantity decimal.Decimal `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid order")
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		s.badRequest(c, "invalid order")
		return
	}

	if _, err := s.Trading.ExecuteOrder(s.userID(c), req.AssetID, side, req.Quantity); err != nil {
		s.serviceError(c, "ExecuteOrder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listTransactions(c *gin.Context) {
	txs, err := s.Trading.Transactions(s.userID(c))
	if err != nil {
		s.internalError(c, "Transactions", err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (s *Server) marketTick(c *gin.Context) {
	count, err := s.Market.Tick()
	if err != nil {
		s.internalError(c, "Tick", err)
		return
	}
	s.broadcastAssets()
	c.JSON(http.StatusOK, gin.H{"ok": true, "updatedCount": count})
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	s.Hub.AddClient(conn)

	if assets, err := s.Market.Assets(); err == nil {
		_ = s.Hub.WriteJSON(conn, gin.H{"type": "assets", "assets": assets})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.Hub.RemoveClient(conn)
			return
		}
	}
}

// broadcastAssets pushes the post-tick asset list to websocket clients.
func (s *Server) broadcastAssets() {
	assets, err := s.Market.Assets()
	if err != nil {
		s.Logger.Warn("broadcast skipped", zap.Error(err))
		return
	}
	s.Hub.BroadcastJSON(gin.H{"type": "assets", "assets": assets})
}
