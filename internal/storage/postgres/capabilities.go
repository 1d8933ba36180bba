package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/synapsehq/synapse/internal/domain"
)

// Recall is the plain-text recall path (no vector): a trigram-friendly
// ILIKE match ordered by recency, used when the caller has no embedding or
// the hybrid-search capability is bypassed.
func (s *Store) Recall(ctx context.Context, userID, agentID, query string, opts domain.RecallFilter) ([]domain.Memory, error) {
	sql := `SELECT id, user_id, agent_id, type, content, importance, resonance, access_count,
	        created_at, updated_at, last_accessed_at, session_id, token_count, keywords, embedding_id, metadata
	 FROM memories WHERE user_id = $1 AND agent_id = $2`
	args := []any{userID, agentID}

	if opts.Type != nil {
		args = append(args, string(*opts.Type))
		sql += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if query != "" {
		args = append(args, "%"+query+"%")
		sql += fmt.Sprintf(" AND content ILIKE $%d", len(args))
	}
	if opts.TimeRangeStart > 0 {
		args = append(args, opts.TimeRangeStart)
		sql += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if opts.TimeRangeEnd > 0 {
		args = append(args, opts.TimeRangeEnd)
		sql += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	sql += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ApplyDecay implements domain.DecayCapability with a single SQL UPDATE:
// resonance *= (1 - decayRate) ^ days-since-access, memories below floor
// are removed in the same statement's companion DELETE.
func (s *Store) ApplyDecay(ctx context.Context, userID, agentID string, decayRate float64) (domain.DecayResult, error) {
	var result domain.DecayResult

	tag, err := s.db.Exec(ctx,
		`UPDATE memories
		 SET resonance = resonance * POWER(1 - $3, GREATEST(EXTRACT(EPOCH FROM (NOW() - to_timestamp(last_accessed_at / 1000.0))) / 86400.0, 0))
		 WHERE user_id = $1 AND agent_id = $2`,
		userID, agentID, decayRate,
	)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	result.Processed = int(tag.RowsAffected())
	result.Decayed = result.Processed

	tag, err = s.db.Exec(ctx,
		`DELETE FROM memories WHERE user_id = $1 AND agent_id = $2 AND resonance < 0.01`,
		userID, agentID,
	)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	result.Removed = int(tag.RowsAffected())
	return result, nil
}

// GetConnectionsForMemories implements domain.ConnectionLookupCapability.
func (s *Store) GetConnectionsForMemories(ctx context.Context, userID string, ids []string) ([]domain.MemoryConnection, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, source_memory_id, target_memory_id, connection_type, strength, reason, created_at, metadata
		 FROM memory_connections WHERE user_id = $1 AND (source_memory_id = ANY($2) OR target_memory_id = ANY($2))`,
		userID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer rows.Close()

	var out []domain.MemoryConnection
	for rows.Next() {
		var e domain.MemoryConnection
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.SourceMemoryID, &e.TargetMemoryID, &e.ConnectionType, &e.Strength, &e.Reason, &e.CreatedAt, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// HybridSearch implements domain.HybridSearchCapability with a pgvector
// cosine-distance score, "1 - (embedding <=> $n)", fused at read time with
// a text relevance boost for an ILIKE match. Rows without an embedding are
// not searched.
func (s *Store) HybridSearch(ctx context.Context, userID, agentID, query string, queryEmbedding []float64, weights domain.HybridWeights, limit int, minRelevance float64) ([]domain.Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	vec := pgvector.NewVector(toFloat32(queryEmbedding))

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, agent_id, type, content, importance, resonance, access_count,
		        created_at, updated_at, last_accessed_at, session_id, token_count, keywords, embedding_id, metadata,
		        ($3 * (1 - (embedding <=> $4))) + ($5 * (CASE WHEN content ILIKE $6 THEN 1 ELSE 0 END)) AS score
		 FROM memories
		 WHERE user_id = $1 AND agent_id = $2 AND embedding IS NOT NULL
		 ORDER BY score DESC
		 LIMIT $7`,
		userID, agentID, weights.Vector, vec, weights.Text, "%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer rows.Close()

	var out []domain.Memory
	for rows.Next() {
		var m domain.Memory
		var metadata []byte
		var score float64
		if err := rows.Scan(&m.ID, &m.UserID, &m.AgentID, &m.Type, &m.Content, &m.Importance, &m.Resonance, &m.AccessCount,
			&m.CreatedAt, &m.UpdatedAt, &m.LastAccessedAt, &m.SessionID, &m.TokenCount, &m.Keywords, &m.EmbeddingID, &metadata, &score); err != nil {
			return nil, err
		}
		if score < minRelevance {
			continue
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MaybeDecay() (domain.DecayCapability, bool) {
	return s, true
}

func (s *Store) MaybeConnectionLookup() (domain.ConnectionLookupCapability, bool) {
	return s, true
}

func (s *Store) MaybeHybridSearch() (domain.HybridSearchCapability, bool) {
	return s, true
}
