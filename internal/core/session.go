package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/codec"
	"github.com/agenthands/clustercheck/internal/core/cluster"
	"github.com/agenthands/clustercheck/internal/core/constraint"
	"github.com/agenthands/clustercheck/internal/core/metrics"
	"github.com/agenthands/clustercheck/internal/core/model"
	"github.com/agenthands/clustercheck/internal/core/suggest"
	"github.com/agenthands/clustercheck/internal/journal"
)

var ErrInvalidDecision = errors.New("invalid decision")

// Recorder persists applied decisions.
type Recorder interface {
	Append(ctx context.Context, e journal.Entry) error
}

// PartitionPublisher exports one side of a session.
type PartitionPublisher interface {
	PublishPartition(ctx context.Context, sessionID string, side model.Side, partition [][]string) ([]model.ClusterNode, error)
}

type Options struct {
	// ID names the session; empty means a fresh uuid.
	ID       string
	Trust    int
	Rand     *rand.Rand
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Session is one labeling run over a paired clustering. The actual graph is
// corrected in place as decisions arrive; the predicted graph is never
// modified. A Session is not safe for concurrent use.
type Session struct {
	ID string

	actual    *cluster.Graph
	predicted *cluster.Graph
	tracker   *constraint.Tracker
	policy    *suggest.Policy
	trust     int

	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time

	history []model.Decision
}

// Status summarizes a session's progress.
type Status struct {
	SessionID  string `json:"session_id"`
	Potency    int    `json:"potency"`
	Clusters   int    `json:"clusters"`
	Unresolved int    `json:"unresolved"`
	Decisions  int    `json:"decisions"`
	Exhausted  bool   `json:"exhausted"`
}

func NewSession(pair codec.Paired, opts Options) (*Session, error) {
	if pair.Actual == nil || pair.Predicted == nil {
		return nil, errors.New("session needs both an actual and a predicted graph")
	}
	if opts.Trust < 0 || opts.Trust > suggest.MaxTrust {
		return nil, fmt.Errorf("trust must be within [0, %d], got %d", suggest.MaxTrust, opts.Trust)
	}
	if opts.ID == "" {
		opts.ID = uuid.New().String()
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tracker := constraint.New(pair.Actual)
	s := &Session{
		ID:        opts.ID,
		actual:    pair.Actual,
		predicted: pair.Predicted,
		tracker:   tracker,
		policy:    suggest.New(tracker, opts.Rand),
		trust:     opts.Trust,
		recorder:  opts.Recorder,
		logger:    opts.Logger.With(zap.String("session_id", opts.ID)),
		now:       opts.Now,
	}
	s.logger.Info("session started",
		zap.Int("clusters", tracker.Len()),
		zap.Int("potency", tracker.Potency()),
		zap.Int("trust", opts.Trust),
	)
	return s, nil
}

// Next proposes the next comparison. Exhausted is set once no pairing is
// left; self-checks are still drawn after that so resolved clusters can be
// audited, and callers that only want pairings stop at the first exhausted
// proposal.
func (s *Session) Next() (model.Proposal, error) {
	potency := s.tracker.Potency()
	exhausted := len(s.tracker.Unresolved()) == 0

	if s.policy.ChooseMode(s.trust) == model.ModeSelfCheck {
		if id, ok := s.policy.SuggestSelfCheck(); ok {
			a, b, err := s.sample(id, id)
			if err != nil {
				return model.Proposal{}, err
			}
			return model.Proposal{
				Mode: model.ModeSelfCheck, Left: id, Right: id, ImageA: a, ImageB: b,
				Potency: potency, Exhausted: exhausted,
			}, nil
		}
	}

	pair, ok := s.policy.SuggestPairing()
	if !ok {
		return model.Proposal{Mode: model.ModePairing, Potency: potency, Exhausted: true}, nil
	}
	a, b, err := s.sample(pair.Left, pair.Right)
	if err != nil {
		return model.Proposal{}, err
	}
	return model.Proposal{Mode: model.ModePairing, Left: pair.Left, Right: pair.Right, ImageA: a, ImageB: b, Potency: potency}, nil
}

func (s *Session) sample(left, right model.ClusterID) (string, string, error) {
	a, err := s.policy.SampleMember(left)
	if err != nil {
		return "", "", fmt.Errorf("sample cluster %d: %w", left, err)
	}
	b, err := s.policy.SampleMember(right)
	if err != nil {
		return "", "", fmt.Errorf("sample cluster %d: %w", right, err)
	}
	return a, b, nil
}

// Apply records one answer and returns the potency after it. The decision
// is checked, then journaled, then applied, so a decision that fails either
// check or journaling leaves the session unchanged.
func (s *Session) Apply(ctx context.Context, d model.Decision) (int, error) {
	if d.Kind.IsSelfCheck() {
		d.Right = d.Left
	}
	potency := s.tracker.Potency()
	if err := s.check(d); err != nil {
		return potency, err
	}

	if s.recorder != nil {
		entry := journal.Entry{
			SessionID: s.ID,
			Seq:       len(s.history) + 1,
			Decision:  d,
			Potency:   potency,
			CreatedAt: s.now(),
		}
		if err := s.recorder.Append(ctx, entry); err != nil {
			return potency, fmt.Errorf("journal decision %d: %w", entry.Seq, err)
		}
	}

	if err := s.mutate(d); err != nil {
		return s.tracker.Potency(), err
	}
	s.history = append(s.history, d)
	potency = s.tracker.Potency()

	s.logger.Info("decision applied",
		zap.String("kind", string(d.Kind)),
		zap.Int("left", int(d.Left)),
		zap.Int("right", int(d.Right)),
		zap.Int("potency", potency),
	)
	return potency, nil
}

// check returns the error apply would return for d, without side effects.
func (s *Session) check(d model.Decision) error {
	switch d.Kind {
	case model.DecisionSame:
		return s.tracker.CheckSame(d.Left, d.Right)
	case model.DecisionDifferent:
		return s.tracker.CheckDifferent(d.Left, d.Right)
	case model.DecisionSelfCheckPassed:
		_, err := s.tracker.Members(d.Left)
		return err
	case model.DecisionSelfCheckFailed:
		if d.ImageA == "" || d.ImageB == "" {
			return fmt.Errorf("%w: a failed self-check names both images", ErrInvalidDecision)
		}
		return s.tracker.CheckSplit(d.Left, d.ImageA, d.ImageB)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDecision, d.Kind)
	}
}

func (s *Session) apply(d model.Decision) error {
	if err := s.check(d); err != nil {
		return err
	}
	return s.mutate(d)
}

// mutate applies a checked decision.
func (s *Session) mutate(d model.Decision) error {
	switch d.Kind {
	case model.DecisionSame:
		return s.tracker.DeclareSame(d.Left, d.Right)
	case model.DecisionDifferent:
		return s.tracker.DeclareDifferent(d.Left, d.Right)
	case model.DecisionSelfCheckFailed:
		created, err := s.tracker.SplitCluster(d.Left, d.ImageA, d.ImageB)
		if err != nil {
			return err
		}
		removed := s.tracker.Cleanup()
		s.logger.Debug("cluster split",
			zap.Int("cluster", int(d.Left)),
			zap.Any("created", created),
			zap.Any("removed", removed),
		)
	}
	return nil
}

// Replay re-applies a journaled sequence without journaling it again.
// Decisions carry their cluster ids and images, so no randomness is involved.
func (s *Session) Replay(ctx context.Context, decisions []model.Decision) error {
	for i, d := range decisions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.apply(d); err != nil {
			return fmt.Errorf("replay decision %d: %w", i+1, err)
		}
		s.history = append(s.history, d)
	}
	s.logger.Info("session replayed", zap.Int("decisions", len(decisions)), zap.Int("potency", s.tracker.Potency()))
	return nil
}

func (s *Session) Potency() int {
	return s.tracker.Potency()
}

func (s *Session) Exhausted() bool {
	return len(s.tracker.Unresolved()) == 0
}

func (s *Session) Status() Status {
	return Status{
		SessionID:  s.ID,
		Potency:    s.tracker.Potency(),
		Clusters:   s.tracker.Len(),
		Unresolved: len(s.tracker.Unresolved()),
		Decisions:  len(s.history),
		Exhausted:  s.Exhausted(),
	}
}

// Decisions returns the applied decisions in order.
func (s *Session) Decisions() []model.Decision {
	out := make([]model.Decision, len(s.history))
	copy(out, s.history)
	return out
}

// Relations exposes the constraint record of one cluster id.
func (s *Session) Relations(id model.ClusterID) (constraint.Relations, error) {
	return s.tracker.Relations(id)
}

// Scores compares the predicted graph against the current actual graph.
func (s *Session) Scores() (metrics.Report, error) {
	return metrics.Evaluate(s.actual, s.predicted)
}

func (s *Session) Partition(side model.Side) ([][]string, error) {
	switch side {
	case model.SideActual:
		return s.actual.Partition(), nil
	case model.SidePredicted:
		return s.predicted.Partition(), nil
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}
}

// Resolve folds every confirmed is-same group into one class of the actual
// graph. Calling it again changes nothing.
func (s *Session) Resolve() error {
	merged := 0
	for _, group := range s.tracker.Groups() {
		if len(group) < 2 {
			continue
		}
		anchor, err := s.firstMember(group[0])
		if err != nil {
			return err
		}
		for _, id := range group[1:] {
			other, err := s.firstMember(id)
			if err != nil {
				return err
			}
			if err := s.actual.Merge(anchor, other); err != nil {
				return err
			}
			merged++
		}
	}
	s.logger.Info("actual graph resolved", zap.Int("merged", merged), zap.Int("classes", s.actual.NumClasses()))
	return nil
}

func (s *Session) firstMember(id model.ClusterID) (string, error) {
	members, err := s.tracker.Members(id)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", fmt.Errorf("cluster %d has no members", id)
	}
	return members[0], nil
}

// Timestamp formats t the way snapshot files are named, e.g. 2024-3-7_9:5:2.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d_%d:%d:%d", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// Save writes both graphs as paired JSON to <dir>/<timestamp>.json and
// returns the path.
func (s *Session) Save(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, Timestamp(now)+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()

	pair := codec.Paired{Actual: s.actual, Predicted: s.predicted}
	if err := codec.NewJSONCodec().Export(pair, f); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	s.logger.Info("snapshot saved", zap.String("path", path))
	return path, nil
}

// Publish exports both partitions.
func (s *Session) Publish(ctx context.Context, p PartitionPublisher) error {
	sides := []struct {
		side  model.Side
		graph *cluster.Graph
	}{
		{model.SideActual, s.actual},
		{model.SidePredicted, s.predicted},
	}
	for _, sd := range sides {
		if _, err := p.PublishPartition(ctx, s.ID, sd.side, sd.graph.Partition()); err != nil {
			return fmt.Errorf("publish %s: %w", sd.side, err)
		}
	}
	return nil
}
