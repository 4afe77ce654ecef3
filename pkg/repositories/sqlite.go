package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveGame(ctx context.Context, game *escrowtypes.Game) error {
	row := models.FromGame(game)
	q := `
	INSERT OR REPLACE INTO games (id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, row.ID, row.Player1, row.Player2, row.Wager, row.Asset,
		row.Status, row.CreatedAt, row.ResolvedAt, row.Winner, row.Commitment)
	if err != nil {
		return fmt.Errorf("failed to insert game: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) GetGame(ctx context.Context, id int64) (*escrowtypes.Game, error) {
	q := `
	SELECT id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment
	FROM games WHERE id = ?;
	`
	row := &models.Game{}
	err := r.db.QueryRowContext(ctx, q, id).Scan(&row.ID, &row.Player1, &row.Player2, &row.Wager,
		&row.Asset, &row.Status, &row.CreatedAt, &row.ResolvedAt, &row.Winner, &row.Commitment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}

	return row.ToGame(), nil
}

func (r *SQLiteRepository) ListGames(ctx context.Context) ([]*escrowtypes.Game, error) {
	q := `
	SELECT id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment
	FROM games ORDER BY id;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %v", err)
	}
	defer rows.Close()

	var games []*escrowtypes.Game
	for rows.Next() {
		row := &models.Game{}
		if err := rows.Scan(&row.ID, &row.Player1, &row.Player2, &row.Wager, &row.Asset,
			&row.Status, &row.CreatedAt, &row.ResolvedAt, &row.Winner, &row.Commitment); err != nil {
			return nil, fmt.Errorf("failed to scan game: %v", err)
		}
		games = append(games, row.ToGame())
	}

	return games, nil
}

func (r *SQLiteRepository) SaveCounter(ctx context.Context, next int64) error {
	q := `
	INSERT INTO meta (key, value) VALUES ('next_game_id', ?)
	ON CONFLICT (key) DO UPDATE SET value = MAX(value, ?);
	`
	_, err := r.db.ExecContext(ctx, q, next, next)
	if err != nil {
		return fmt.Errorf("failed to save counter: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) LoadCounter(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'next_game_id'").Scan(&next)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load counter: %v", err)
	}

	return next, nil
}
