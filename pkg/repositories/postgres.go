package repositories

import (
	"context"
	"errors"
	"fmt"

	escrowtypes "github.com/cbodonnell/wagervault/pkg/escrow/types"
	"github.com/cbodonnell/wagervault/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) Repository {
	return &PostgresRepository{
		conn: connectDb(ctx, connStr),
	}
}

func connectDb(ctx context.Context, connStr string) *pgx.Conn {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		panic(fmt.Sprintf("Unable to query database: %v\n", err))
	}

	return conn
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveGame(ctx context.Context, game *escrowtypes.Game) error {
	row := models.FromGame(game)
	q := `
	INSERT INTO games (id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		player2 = $3, status = $6, resolved_at = $8, winner = $9, commitment = $10;
	`
	_, err := r.conn.Exec(ctx, q, row.ID, row.Player1, row.Player2, row.Wager, row.Asset,
		row.Status, row.CreatedAt, row.ResolvedAt, row.Winner, row.Commitment)
	if err != nil {
		return fmt.Errorf("failed to insert game: %v", err)
	}

	return nil
}

func (r *PostgresRepository) GetGame(ctx context.Context, id int64) (*escrowtypes.Game, error) {
	q := `
	SELECT id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment
	FROM games WHERE id = $1;
	`
	row := &models.Game{}
	err := r.conn.QueryRow(ctx, q, id).Scan(&row.ID, &row.Player1, &row.Player2, &row.Wager,
		&row.Asset, &row.Status, &row.CreatedAt, &row.ResolvedAt, &row.Winner, &row.Commitment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}

	return row.ToGame(), nil
}

func (r *PostgresRepository) ListGames(ctx context.Context) ([]*escrowtypes.Game, error) {
	q := `
	SELECT id, player1, player2, wager, asset, status, created_at, resolved_at, winner, commitment
	FROM games ORDER BY id;
	`
	rows, err := r.conn.Query(ctx, q)
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

func (r *PostgresRepository) SaveCounter(ctx context.Context, next int64) error {
	q := `
	INSERT INTO meta (key, value) VALUES ('next_game_id', $1)
	ON CONFLICT (key) DO UPDATE SET value = GREATEST(meta.value, $1);
	`
	_, err := r.conn.Exec(ctx, q, next)
	if err != nil {
		return fmt.Errorf("failed to save counter: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LoadCounter(ctx context.Context) (int64, error) {
	var next int64
	err := r.conn.QueryRow(ctx, "SELECT value FROM meta WHERE key = 'next_game_id'").Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load counter: %v", err)
	}

	return next, nil
}
