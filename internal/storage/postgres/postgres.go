// Package postgres is the pgx+pgvector-backed domain.StorageGateway
// adapter, generalized from a hand-rolled single-table memory store into
// one covering all four memory types and the connection graph.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/synapsehq/synapse/internal/domain"
)

// Store is the Postgres-backed StorageGateway. Two tables back it:
// memories(user_id, agent_id, id, ...) and
// memory_connections(user_id, source_memory_id, target_memory_id, ...).
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Schema is the DDL this adapter expects. Callers run it via their own
// migration tooling; this package does not run migrations itself.
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memories (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	agent_id         TEXT NOT NULL,
	type             TEXT NOT NULL,
	content          TEXT NOT NULL,
	importance       DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	resonance        DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	access_count     INTEGER NOT NULL DEFAULT 0,
	created_at       BIGINT NOT NULL,
	updated_at       BIGINT NOT NULL,
	last_accessed_at BIGINT NOT NULL,
	session_id       TEXT,
	token_count      INTEGER NOT NULL DEFAULT 0,
	keywords         TEXT[],
	embedding_id     TEXT,
	embedding        vector(1536),
	metadata         JSONB
);

CREATE INDEX IF NOT EXISTS idx_memories_user_agent_type ON memories (user_id, agent_id, type);
CREATE INDEX IF NOT EXISTS idx_memories_embedding ON memories USING ivfflat (embedding vector_cosine_ops);

CREATE TABLE IF NOT EXISTS memory_connections (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	source_memory_id TEXT NOT NULL,
	target_memory_id TEXT NOT NULL,
	connection_type  TEXT NOT NULL,
	strength         DOUBLE PRECISION NOT NULL,
	reason           TEXT,
	created_at       BIGINT NOT NULL,
	metadata         JSONB
);

CREATE INDEX IF NOT EXISTS idx_connections_source ON memory_connections (user_id, source_memory_id);
CREATE INDEX IF NOT EXISTS idx_connections_target ON memory_connections (user_id, target_memory_id);
`

func (s *Store) Store(ctx context.Context, userID, agentID string, m *domain.Memory) error {
	var vec *pgvector.Vector
	if len(m.Embedding) > 0 {
		v := pgvector.NewVector(toFloat32(m.Embedding))
		vec = &v
	}
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO memories (id, user_id, agent_id, type, content, importance, resonance, access_count,
		    created_at, updated_at, last_accessed_at, session_id, token_count, keywords, embedding_id, embedding, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 ON CONFLICT (id) DO UPDATE SET
		    content = EXCLUDED.content, importance = EXCLUDED.importance, resonance = EXCLUDED.resonance,
		    access_count = EXCLUDED.access_count, updated_at = EXCLUDED.updated_at,
		    last_accessed_at = EXCLUDED.last_accessed_at, token_count = EXCLUDED.token_count,
		    keywords = EXCLUDED.keywords, embedding = COALESCE(EXCLUDED.embedding, memories.embedding),
		    metadata = EXCLUDED.metadata`,
		m.ID, userID, agentID, string(m.Type), m.Content, m.Importance, m.Resonance, m.AccessCount,
		m.CreatedAt, m.UpdatedAt, m.LastAccessedAt, m.SessionID, m.TokenCount, m.Keywords, m.EmbeddingID, vec, metadata,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, userID, id string) (*domain.Memory, error) {
	m := &domain.Memory{}
	var metadata []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, agent_id, type, content, importance, resonance, access_count,
		        created_at, updated_at, last_accessed_at, session_id, token_count, keywords, embedding_id, metadata
		 FROM memories WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&m.ID, &m.UserID, &m.AgentID, &m.Type, &m.Content, &m.Importance, &m.Resonance, &m.AccessCount,
		&m.CreatedAt, &m.UpdatedAt, &m.LastAccessedAt, &m.SessionID, &m.TokenCount, &m.Keywords, &m.EmbeddingID, &metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemoryNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &m.Metadata)
	}
	return m, nil
}

func (s *Store) Delete(ctx context.Context, userID, agentID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM memories WHERE id = $1 AND user_id = $2 AND agent_id = $3`, id, userID, agentID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemoryNotFound
	}
	return nil
}

func (s *Store) GetByType(ctx context.Context, userID, agentID string, t domain.MemoryType, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	query := `SELECT id, user_id, agent_id, type, content, importance, resonance, access_count,
	        created_at, updated_at, last_accessed_at, session_id, token_count, keywords, embedding_id, metadata
	 FROM memories WHERE user_id = $1 AND agent_id = $2 AND type = $3`
	args := []any{userID, agentID, string(t)}
	if opts.CreatedBefore > 0 {
		query += " AND created_at < $4"
		args = append(args, opts.CreatedBefore)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

func (s *Store) GetStats(ctx context.Context, userID string, agentID *string) (domain.Stats, error) {
	stats := domain.Stats{ByType: make(map[domain.MemoryType]int)}
	query := `SELECT type, COUNT(*), AVG(importance) FROM memories WHERE user_id = $1`
	args := []any{userID}
	if agentID != nil {
		query += " AND agent_id = $2"
		args = append(args, *agentID)
	}
	query += " GROUP BY type"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
	}
	defer rows.Close()

	var totalWeighted, totalCount float64
	for rows.Next() {
		var t string
		var count int
		var avg float64
		if err := rows.Scan(&t, &count, &avg); err != nil {
			return stats, err
		}
		stats.ByType[domain.MemoryType(t)] = count
		totalWeighted += avg * float64(count)
		totalCount += float64(count)
	}
	if totalCount > 0 {
		stats.AvgImportance = totalWeighted / totalCount
	}
	return stats, nil
}

func (s *Store) CreateConnections(ctx context.Context, userID string, edges []domain.MemoryConnection) error {
	batch := &pgx.Batch{}
	for _, e := range edges {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal connection metadata: %w", err)
		}
		batch.Queue(
			`INSERT INTO memory_connections (id, user_id, source_memory_id, target_memory_id, connection_type, strength, reason, created_at, metadata)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (id) DO NOTHING`,
			e.ID, userID, e.SourceMemoryID, e.TargetMemoryID, string(e.ConnectionType), e.Strength, e.Reason, e.CreatedAt, metadata,
		)
	}
	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range edges {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageTransient, err)
		}
	}
	return nil
}

func scanMemories(rows pgx.Rows) ([]domain.Memory, error) {
	var out []domain.Memory
	for rows.Next() {
		var m domain.Memory
		var metadata []byte
		if err := rows.Scan(&m.ID, &m.UserID, &m.AgentID, &m.Type, &m.Content, &m.Importance, &m.Resonance, &m.AccessCount,
			&m.CreatedAt, &m.UpdatedAt, &m.LastAccessedAt, &m.SessionID, &m.TokenCount, &m.Keywords, &m.EmbeddingID, &metadata); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &m.Metadata)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

var _ domain.StorageGateway = (*Store)(nil)
