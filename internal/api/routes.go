package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"decision-eval/backend/internal/auth"
	"decision-eval/backend/internal/engine"
	"decision-eval/backend/internal/limits"
	"decision-eval/backend/internal/provider"
	"decision-eval/backend/internal/quality"
	"decision-eval/backend/internal/scoring"
	"decision-eval/backend/internal/store"
)

// ServiceVersion is reported by the root endpoint.
const ServiceVersion = "2.0.0"

// Config defines server dependencies.
type Config struct {
	DBPath         string
	SilentDB       bool
	AllowedOrigins []string
	JWTSecret      string
	Providers      provider.OrchestratorConfig
	// Completers overrides the configured provider set. Used by tests and
	// embedders that construct their own adapters.
	Completers []provider.Completer
}

// Server wires HTTP handlers with the analysis engine and persistence.
type Server struct {
	db             *store.Database
	engine         *engine.Engine
	keys           *auth.Keys
	notifier       *AnalysisNotifier
	allowedOrigins []string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	keys, err := auth.NewKeys(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("api keys: %w", err)
	}

	var orch *provider.Orchestrator
	if len(cfg.Completers) > 0 {
		orch, err = provider.NewOrchestratorWith(cfg.Providers.Timeout, cfg.Completers...)
	} else {
		orch, err = provider.NewOrchestrator(cfg.Providers)
	}
	if err != nil {
		return nil, err
	}

	return &Server{
		db:             db,
		engine:         engine.New(orch, limits.NewTracker()),
		keys:           keys,
		notifier:       NewAnalysisNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/", s.handleRoot)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v2 := r.Group("/v2", s.authMiddleware())
	{
		v2.POST("/analyze", s.handleAnalyze)
		v2.GET("/usage", s.handleUsage)
		v2.GET("/stats", s.handleStats)
		v2.GET("/history", s.handleHistory)
		v2.GET("/history/:id", s.handleGetAnalysis)
		v2.GET("/export.csv", s.handleExportCSV)
		v2.GET("/export.json", s.handleExportJSON)
		v2.GET("/stream", s.handleStream)

		admin := v2.Group("/admin", requireTier(limits.TierEnterprise))
		{
			admin.POST("/switch-provider", s.handleSwitchProvider)
			admin.POST("/usage/reset", s.handleResetUsage)
		}
	}

	return r, nil
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":    "decision-eval",
		"version":    ServiceVersion,
		"providers":  s.engine.Providers(),
		"industries": scoring.Industries(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	id := identityFrom(c)
	if id == nil {
		s.renderError(c, http.StatusUnauthorized, errors.New("missing identity"))
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := s.engine.Analyze(c.Request.Context(), engine.Request{
		CustomerID:       id.CustomerID,
		Tier:             id.Tier,
		Question:         req.Question,
		Context:          req.Context,
		Industry:         req.Industry,
		Stakeholders:     req.Stakeholders,
		Constraints:      req.Constraints,
		TimeHorizon:      req.TimeHorizon,
		ProviderOverride: req.Provider,
	})
	if err != nil {
		s.renderAnalyzeError(c, err)
		return
	}

	record := &store.Analysis{
		ID:               resp.ID,
		CustomerID:       id.CustomerID,
		Question:         strings.TrimSpace(req.Question),
		Industry:         resp.Metadata.Industry,
		Provider:         resp.Metadata.ProviderUsed,
		IndexScore:       resp.DecisionIndex,
		Confidence:       resp.DecisionConfidence,
		Coherence:        string(resp.DecisionCoherence),
		EthicalRisk:      string(resp.Dimensions.EthicalRisk),
		EthicalAlignment: resp.EthicalAlignment,
		SystemicRisk:     resp.SystemicRisk,
		QualityScore:     resp.Metadata.QualityScore,
		ProcessingMS:     resp.Metadata.ProcessingMS,
		Recommendation:   resp.Recommendation,
		Explanation:      resp.ExplanationSummary,
	}
	record.SetTensions(resp.KeyTensions)
	record.SetConsequences(resp.UnintendedConsequences)
	if err := s.db.SaveAnalysis(record); err != nil {
		logrus.WithError(err).Warn("persist analysis")
	} else {
		dto := FromModel(*record)
		s.notifier.Broadcast(AnalysisEvent{Type: "analysis", Analysis: &dto})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) renderAnalyzeError(c *gin.Context, err error) {
	var exceeded *limits.ExceededError
	if errors.As(err, &exceeded) {
		c.Header("X-RateLimit-Limit", strconv.Itoa(exceeded.Limit))
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("X-RateLimit-Reset", strconv.FormatInt(exceeded.ResetAt.Unix(), 10))
		retry := int(time.Until(exceeded.ResetAt).Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":    "rate limit exceeded",
			"period":   string(exceeded.Period),
			"limit":    exceeded.Limit,
			"tier":     string(exceeded.Tier),
			"reset_at": exceeded.ResetAt.UTC().Format(time.RFC3339),
		})
		return
	}

	var qerr *quality.Error
	if errors.As(err, &qerr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      "analysis failed quality validation",
			"violations": qerr.Violations,
		})
		return
	}

	var malformed *engine.MalformedOutputError
	if errors.As(err, &malformed) {
		c.JSON(http.StatusBadGateway, gin.H{"error": malformed.Error()})
		return
	}

	var exhausted *provider.ExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "all completion providers failed",
			"attempted": exhausted.Attempted,
		})
		return
	}

	s.renderError(c, http.StatusInternalServerError, err)
}

func (s *Server) handleUsage(c *gin.Context) {
	id := identityFrom(c)
	snap := s.engine.UsageStats(id.CustomerID, id.Tier)
	body := gin.H{
		"customer_id": id.CustomerID,
		"tier":        string(id.Tier),
		"usage":       snap,
		"remaining": gin.H{
			"minute": snap.Remaining(limits.PeriodMinute, 0),
			"day":    snap.Remaining(limits.PeriodDay, 0),
			"month":  snap.Remaining(limits.PeriodMonth, 0),
		},
		"active_periods": s.engine.ActivePeriods(id.CustomerID),
	}
	if last, ok := s.engine.LastRequest(id.CustomerID); ok {
		body["last_request"] = last.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleStats(c *gin.Context) {
	id := identityFrom(c)

	total, err := s.db.CountAnalyses(id.CustomerID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	avg, err := s.db.AverageIndex(id.CustomerID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	byProvider, err := s.db.CountByProvider(id.CustomerID)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalAnalyses: total,
		AverageIndex:  avg,
		ByProvider:    byProvider,
		Providers:     s.engine.ProviderStats(),
		Primary:       s.engine.Primary(),
		StreamClients: s.notifier.ClientCount(),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	id := identityFrom(c)
	query, err := s.historyQuery(c, id)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	rows, total, err := s.db.ListAnalyses(query)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.JSON(http.StatusOK, HistoryResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	id := identityFrom(c)
	analysisID := strings.TrimSpace(c.Param("id"))
	if analysisID == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("analysis id required"))
		return
	}

	row, err := s.db.GetAnalysis(analysisID, id.CustomerID)
	if err != nil {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("analysis %s not found", analysisID))
		return
	}
	c.JSON(http.StatusOK, FromModel(*row))
}

func (s *Server) historyQuery(c *gin.Context, id *auth.Identity) (store.AnalysisQuery, error) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 50
	}

	minIndex := 0.0
	if raw := strings.TrimSpace(c.Query("minIndex")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			return store.AnalysisQuery{}, fmt.Errorf("invalid minIndex: %s", raw)
		}
		minIndex = parsed
	}

	return store.AnalysisQuery{
		CustomerID: id.CustomerID,
		Industry:   c.Query("industry"),
		Coherence:  c.Query("coherence"),
		MinIndex:   minIndex,
		Offset:     page * pageSize,
		Limit:      pageSize,
	}, nil
}

func (s *Server) handleExportCSV(c *gin.Context) {
	id := identityFrom(c)
	rows, _, err := s.db.ListAnalyses(store.AnalysisQuery{CustomerID: id.CustomerID, Limit: -1})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=decision-eval-export.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"id", "created_at", "decision_question", "industry", "provider", "decision_index", "decision_confidence", "decision_coherence", "ethical_risk_level", "quality_score", "recommendation"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range rows {
		line := []string{
			row.ID,
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.Question,
			row.Industry,
			row.Provider,
			fmt.Sprintf("%.2f", row.IndexScore),
			fmt.Sprintf("%.2f", row.Confidence),
			row.Coherence,
			row.EthicalRisk,
			fmt.Sprintf("%.0f", row.QualityScore),
			row.Recommendation,
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleExportJSON(c *gin.Context) {
	id := identityFrom(c)
	rows, _, err := s.db.ListAnalyses(store.AnalysisQuery{CustomerID: id.CustomerID, Limit: -1})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, FromModel(row))
	}
	c.Header("Content-Disposition", "attachment; filename=decision-eval-export.json")
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("analysis websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("analysis websocket closed")
			} else {
				logrus.WithError(err).Warn("analysis websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleSwitchProvider(c *gin.Context) {
	var req SwitchProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.SwitchPrimary(req.Provider); err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			s.renderError(c, http.StatusNotFound, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"primary": s.engine.Primary()})
}

func (s *Server) handleResetUsage(c *gin.Context) {
	var req ResetUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.ResetUsage(req.CustomerID, limits.Period(req.Period)); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset", "customer_id": req.CustomerID})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
