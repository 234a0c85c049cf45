package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/oralabs/ora-memory/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db        *sql.DB
	dimension int
	logger    *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, dimension int, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db, dimension: dimension, logger: logger}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT user_id, name, preferences, created_at, last_active_at
		FROM users
		WHERE user_id = $1`

	user := &models.User{}
	var prefs []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, &prefs, &user.CreatedAt, &user.LastActiveAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("error querying user", err)
	}

	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &user.Preferences); err != nil {
			s.logger.Warn("Failed to decode user preferences",
				zap.Error(err),
				zap.String("user_id", userID))
		}
	}
	return user, nil
}

func (s *PostgresStorage) TouchUser(ctx context.Context, userID string) (*models.User, error) {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE
		SET last_active_at = GREATEST(users.last_active_at, now())
		RETURNING user_id, name, preferences, created_at, last_active_at`

	user := &models.User{}
	var prefs []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, &prefs, &user.CreatedAt, &user.LastActiveAt)
	if err != nil {
		return nil, unavailable("error touching user", err)
	}

	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &user.Preferences); err != nil {
			s.logger.Warn("Failed to decode user preferences",
				zap.Error(err),
				zap.String("user_id", userID))
		}
	}
	return user, nil
}

func (s *PostgresStorage) UpdateUserProfile(ctx context.Context, userID, name string, preferences map[string]any) error {
	if _, err := s.TouchUser(ctx, userID); err != nil {
		return err
	}

	if name != "" {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET name = $1 WHERE user_id = $2`, name, userID); err != nil {
			return unavailable("error updating user name", err)
		}
	}
	if preferences != nil {
		prefs, err := json.Marshal(preferences)
		if err != nil {
			return fmt.Errorf("error encoding preferences: %w", err)
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET preferences = $1 WHERE user_id = $2`, prefs, userID); err != nil {
			return unavailable("error updating user preferences", err)
		}
	}
	return nil
}

func (s *PostgresStorage) AppendRecord(ctx context.Context, record *models.InteractionRecord) error {
	if len(record.Embedding) != s.dimension {
		return fmt.Errorf("record %s has dimension %d, store expects %d: %w",
			record.ID, len(record.Embedding), s.dimension, ErrDimensionMismatch)
	}

	query := `
		INSERT INTO interactions (id, user_id, input, output, emotion, risk_tier, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Input,
		record.Output,
		string(record.Emotion),
		int(record.Risk),
		pq.Array(float64s(record.Embedding)),
		record.CreatedAt,
	)
	if err != nil {
		return unavailable("error inserting interaction", err)
	}
	return nil
}

func (s *PostgresStorage) ListRecent(ctx context.Context, userID string, limit int) ([]*models.InteractionRecord, error) {
	query := `
		SELECT id, user_id, input, output, emotion, risk_tier, embedding, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, unavailable("error querying interactions", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *PostgresStorage) ListAll(ctx context.Context, userID string) ([]*models.InteractionRecord, error) {
	query := `
		SELECT id, user_id, input, output, emotion, risk_tier, embedding, created_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, unavailable("error querying interactions", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *PostgresStorage) CountRecords(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, unavailable("error counting interactions", err)
	}
	return count, nil
}

func (s *PostgresStorage) AddInsight(ctx context.Context, insight *models.InsightRecord) error {
	query := `
		INSERT INTO insights (id, user_id, kind, text, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		insight.ID,
		insight.UserID,
		insight.Kind,
		insight.Text,
		insight.Confidence,
		insight.CreatedAt,
	)
	if err != nil {
		return unavailable("error inserting insight", err)
	}
	return nil
}

func (s *PostgresStorage) ListInsights(ctx context.Context, userID string, limit int) ([]*models.InsightRecord, error) {
	query := `
		SELECT id, user_id, kind, text, confidence, created_at
		FROM insights
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, unavailable("error querying insights", err)
	}
	defer rows.Close()

	var insights []*models.InsightRecord
	for rows.Next() {
		insight := &models.InsightRecord{}
		err := rows.Scan(
			&insight.ID,
			&insight.UserID,
			&insight.Kind,
			&insight.Text,
			&insight.Confidence,
			&insight.CreatedAt,
		)
		if err != nil {
			return nil, unavailable("error scanning insight", err)
		}
		insights = append(insights, insight)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating insights", err)
	}
	return insights, nil
}

func (s *PostgresStorage) DeleteUserData(ctx context.Context, userID string) error {
	// interactions and insights cascade from the user row
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM users WHERE user_id = $1`, userID); err != nil {
		return unavailable("error deleting user data", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*models.InteractionRecord, error) {
	var records []*models.InteractionRecord
	for rows.Next() {
		record := &models.InteractionRecord{}
		var emotion string
		var risk int
		var embedding pq.Float64Array
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Input,
			&record.Output,
			&emotion,
			&risk,
			&embedding,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, unavailable("error scanning interaction", err)
		}
		record.Emotion = models.Emotion(emotion)
		record.Risk = models.RiskTier(risk)
		record.Embedding = float32s(embedding)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating interactions", err)
	}
	return records, nil
}

func unavailable(msg string, err error) error {
	return fmt.Errorf("%s: %v: %w", msg, err, ErrUnavailable)
}

func float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func float32s(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
