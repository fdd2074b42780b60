package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/core"
	"github.com/agenthands/clustercheck/internal/core/constraint"
	"github.com/agenthands/clustercheck/internal/core/model"
)

type Options struct {
	SnapshotDir string
	// Publisher is optional; without it POST /publish answers 503.
	Publisher core.PartitionPublisher
	Logger    *zap.Logger
	Now       func() time.Time
}

// Server is the decision channel of one labeling session. A single mutex
// serializes every handler, so decisions are applied one at a time.
type Server struct {
	mu          sync.Mutex
	session     *core.Session
	snapshotDir string
	publisher   core.PartitionPublisher
	logger      *zap.Logger
	now         func() time.Time

	registry *prometheus.Registry
	metrics  *sessionMetrics
}

func NewServer(session *core.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SnapshotDir == "" {
		opts.SnapshotDir = "data"
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		session:     session,
		snapshotDir: opts.SnapshotDir,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		now:         opts.Now,
		registry:    registry,
		metrics:     newSessionMetrics(registry),
	}
	s.metrics.observe(session.Status())
	return s
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/proposal", s.Proposal)
	r.POST("/decisions", s.Decide)
	r.GET("/status", s.Status)
	r.GET("/scores", s.Scores)
	r.GET("/partition", s.Partition)
	r.POST("/resolve", s.Resolve)
	r.POST("/save", s.Save)
	r.POST("/publish", s.Publish)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) Proposal(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.session.Next()
	if err != nil {
		s.logger.Error("failed to build proposal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build proposal"})
		return
	}
	mode := string(p.Mode)
	if p.Exhausted && p.Mode == model.ModePairing {
		mode = "exhausted"
	}
	s.metrics.proposalsTotal.WithLabelValues(mode).Inc()
	c.JSON(http.StatusOK, p)
}

type DecisionRequest struct {
	Kind   string `json:"kind" binding:"required,oneof=same different self_check_passed self_check_failed"`
	Left   *int   `json:"left" binding:"required,min=0"`
	Right  *int   `json:"right" binding:"omitempty,min=0"`
	ImageA string `json:"image_a"`
	ImageB string `json:"image_b"`
}

func (r DecisionRequest) decision() (model.Decision, error) {
	kind, err := model.ParseDecisionKind(r.Kind)
	if err != nil {
		return model.Decision{}, err
	}
	d := model.Decision{
		Kind:   kind,
		Left:   model.ClusterID(*r.Left),
		Right:  model.ClusterID(*r.Left),
		ImageA: r.ImageA,
		ImageB: r.ImageB,
	}
	// A self-check is about one cluster; any right sent with it is ignored.
	switch {
	case kind.IsSelfCheck():
	case r.Right != nil:
		d.Right = model.ClusterID(*r.Right)
	default:
		return model.Decision{}, errors.New("right is required for a pairing decision")
	}
	return d, nil
}

func (s *Server) Decide(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.rejectedTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	d, err := req.decision()
	if err != nil {
		s.metrics.rejectedTotal.WithLabelValues("invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.session.Status().Clusters
	potency, err := s.session.Apply(c.Request.Context(), d)
	if err != nil {
		status, reason := decisionErrorStatus(err)
		s.metrics.rejectedTotal.WithLabelValues(reason).Inc()
		if status == http.StatusInternalServerError {
			s.logger.Error("failed to apply decision", zap.Error(err))
			c.JSON(status, gin.H{"error": "Failed to apply decision"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	st := s.session.Status()
	s.metrics.decisionsTotal.WithLabelValues(string(d.Kind)).Inc()
	if d.Kind == model.DecisionSelfCheckFailed && st.Clusters > before {
		s.metrics.splitsTotal.Inc()
	}
	s.metrics.observe(st)

	c.JSON(http.StatusOK, gin.H{"potency": potency, "status": st})
}

func decisionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidDecision), errors.Is(err, constraint.ErrNotMember):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, constraint.ErrUnknownCluster):
		return http.StatusNotFound, "unknown_cluster"
	case errors.Is(err, constraint.ErrContradiction):
		return http.StatusConflict, "contradiction"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) Status(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, s.session.Status())
}

// Scores returns the aggregate score; ?nodes=true adds every node's counts.
func (s *Server) Scores(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.session.Scores()
	if err != nil {
		s.logger.Error("failed to score session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to score session"})
		return
	}
	if c.Query("nodes") != "true" {
		report.Nodes = nil
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) Partition(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	side := model.Side(c.DefaultQuery("side", string(model.SideActual)))
	partition, err := s.session.Partition(side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"side": side, "clusters": partition})
}

func (s *Server) Resolve(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Resolve(); err != nil {
		s.logger.Error("failed to resolve", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve"})
		return
	}
	partition, _ := s.session.Partition(model.SideActual)
	c.JSON(http.StatusOK, gin.H{"side": model.SideActual, "clusters": partition})
}

// Save resolves confirmed identities into the actual graph and writes a
// snapshot.
func (s *Server) Save(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Resolve(); err != nil {
		s.logger.Error("failed to resolve", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve"})
		return
	}
	path, err := s.session.Save(s.snapshotDir, s.now())
	if err != nil {
		s.logger.Error("failed to save snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (s *Server) Publish(c *gin.Context) {
	if s.publisher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph export is not configured"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Publish(c.Request.Context(), s.publisher); err != nil {
		s.logger.Error("failed to publish", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "session_id": s.session.ID})
}
