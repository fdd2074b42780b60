package driver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/core/model"
)

// Publisher mirrors session partitions into the graph database as
// (:Image)-[:MEMBER_OF]->(:Cluster).
type Publisher struct {
	Driver        GraphDriver
	UUIDGenerator func() string
	Now           func() time.Time
	logger        *zap.Logger
}

func NewPublisher(driver GraphDriver, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		Driver:        driver,
		UUIDGenerator: func() string { return uuid.New().String() },
		Now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// PublishPartition replaces whatever was stored for (sessionID, side) with
// partition. Class i becomes the cluster with index i.
func (p *Publisher) PublishPartition(ctx context.Context, sessionID string, side model.Side, partition [][]string) ([]model.ClusterNode, error) {
	// 1. Drop the previous export of this side
	_, err := p.Driver.ExecuteQuery(ctx, DeleteSessionSideQuery, map[string]interface{}{
		"session_id": sessionID,
		"side":       string(side),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear %s partition: %w", side, err)
	}

	now := p.Now()
	nodes := make([]model.ClusterNode, 0, len(partition))
	for i, members := range partition {
		node := model.ClusterNode{
			UUID:      p.UUIDGenerator(),
			SessionID: sessionID,
			Side:      side,
			Index:     i,
			Size:      len(members),
			CreatedAt: now,
		}

		// 2. Save the cluster node
		_, err := p.Driver.ExecuteQuery(ctx, SaveClusterNodeQuery, map[string]interface{}{
			"uuid":       node.UUID,
			"session_id": node.SessionID,
			"side":       string(node.Side),
			"index":      node.Index,
			"size":       node.Size,
			"created_at": node.CreatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save cluster %d: %w", i, err)
		}

		// 3. Link its images
		_, err = p.Driver.ExecuteQuery(ctx, SaveMembershipQuery, map[string]interface{}{
			"cluster_uuid": node.UUID,
			"session_id":   sessionID,
			"names":        members,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to link members of cluster %d: %w", i, err)
		}
		nodes = append(nodes, node)
	}

	p.logger.Info("published partition",
		zap.String("session_id", sessionID),
		zap.String("side", string(side)),
		zap.Int("clusters", len(nodes)),
	)
	return nodes, nil
}

// LoadPartition reads back a published partition, classes ordered by index
// and members sorted.
func (p *Publisher) LoadPartition(ctx context.Context, sessionID string, side model.Side) ([][]string, error) {
	res, err := p.Driver.ExecuteQuery(ctx, GetSessionPartitionQuery, map[string]interface{}{
		"session_id": sessionID,
		"side":       string(side),
	})
	if err != nil {
		return nil, err
	}

	var partition [][]string
	for _, rec := range res.Records {
		raw, ok := rec.Get("names")
		if !ok {
			return nil, errors.New("record without names")
		}
		items, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected names type %T", raw)
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected name type %T", item)
			}
			names = append(names, name)
		}
		sort.Strings(names)
		partition = append(partition, names)
	}
	return partition, nil
}
