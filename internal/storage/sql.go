package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/xaenox/chatter-assist/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite database file, ":memory:" for a private in-memory database.
	Path string
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type SQLStorage struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

func NewSQLStorage(config DatabaseConfig, logger *zap.Logger) (*SQLStorage, error) {
	switch config.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := sql.Open(config.Driver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if config.Driver == DriverSQLite {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &SQLStorage{db: db, driver: config.Driver, logger: logger}

	if err := storage.initializeSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("Database ready", zap.String("driver", config.Driver))
	return storage, nil
}

func (s *SQLStorage) initializeSchema(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations/" + s.driver + ".sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	for _, stmt := range strings.Split(string(migrationSQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing migrations: %w", err)
		}
	}

	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *SQLStorage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStorage) GetModel(ctx context.Context, modelID string) (*models.Model, error) {
	m := &models.Model{}
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, name, niche FROM models WHERE id = ?`),
		modelID,
	).Scan(&m.ID, &m.Name, &m.Niche)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %s: %w", modelID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying model: %w", err)
	}
	return m, nil
}

func (s *SQLStorage) GetModelConfig(ctx context.Context, modelID string) (*models.ModelConfig, error) {
	cfg := &models.ModelConfig{}
	var temperature sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT model_id, api_key, llm_model, temperature, max_tokens FROM model_configs WHERE model_id = ?`),
		modelID,
	).Scan(&cfg.ModelID, &cfg.APIKey, &cfg.LLMModel, &temperature, &cfg.MaxTokens)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("config for model %s: %w", modelID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying model config: %w", err)
	}
	if temperature.Valid {
		cfg.Temperature = &temperature.Float64
	}
	return cfg, nil
}

func (s *SQLStorage) GetFan(ctx context.Context, modelID, fanID string) (*models.Fan, error) {
	fan := &models.Fan{}
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT fan_id, model_id, name, tier, spent_total FROM fans WHERE model_id = ? AND fan_id = ?`),
		modelID, fanID,
	).Scan(&fan.FanID, &fan.ModelID, &fan.Name, &fan.Tier, &fan.SpentTotal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fan %s of model %s: %w", fanID, modelID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying fan: %w", err)
	}
	return fan, nil
}

func (s *SQLStorage) GetRecentMessages(ctx context.Context, modelID, fanID string, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, model_id, fan_id, sender, message, ts
		FROM chat_messages
		WHERE model_id = ? AND fan_id = ?
		ORDER BY ts DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), modelID, fanID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var sender string
		if err := rows.Scan(&m.ID, &m.ModelID, &m.FanID, &sender, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		m.From = models.Sender(sender)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	// newest first from the query, callers want oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLStorage) GetTransactions(ctx context.Context, modelID, fanID string) ([]models.Transaction, error) {
	query := `
		SELECT id, model_id, fan_id, type, offer_id, amount, ts
		FROM transactions
		WHERE model_id = ? AND fan_id = ?
		ORDER BY ts ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), modelID, fanID)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var txType string
		if err := rows.Scan(&tx.ID, &tx.ModelID, &tx.FanID, &txType, &tx.OfferID, &tx.Amount, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		tx.Type = models.TransactionType(txType)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (s *SQLStorage) GetActiveCatalog(ctx context.Context, modelID string) ([]models.CatalogItem, error) {
	query := `
		SELECT offer_id, model_id, title, description, base_price, nivel, tags, keywords, is_active
		FROM catalog_items
		WHERE model_id = ? AND is_active = ?
		ORDER BY nivel ASC, offer_id ASC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), modelID, true)
	if err != nil {
		return nil, fmt.Errorf("error querying catalog: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var item models.CatalogItem
		var keywords []byte
		if err := rows.Scan(
			&item.OfferID,
			&item.ModelID,
			&item.Title,
			&item.Description,
			&item.BasePrice,
			&item.Nivel,
			&item.Tags,
			&keywords,
			&item.IsActive,
		); err != nil {
			return nil, fmt.Errorf("error scanning catalog item: %w", err)
		}
		if len(keywords) > 0 {
			if err := json.Unmarshal(keywords, &item.Keywords); err != nil {
				s.logger.Warn("Bad catalog keywords",
					zap.Error(err),
					zap.String("offer_id", item.OfferID))
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLStorage) SaveDraft(ctx context.Context, draft *models.Draft) error {
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}

	var offerID sql.NullString
	if draft.OfferID != "" {
		offerID = sql.NullString{String: draft.OfferID, Valid: true}
	}

	query := `
		INSERT INTO drafts (id, model_id, fan_id, mode, energy, offer_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.rebind(query),
		draft.ID,
		draft.ModelID,
		draft.FanID,
		draft.Mode,
		draft.Energy,
		offerID,
		draft.Text,
		draft.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving draft: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
