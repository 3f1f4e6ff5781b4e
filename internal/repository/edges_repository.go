package repository

import (
	"bytes"
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/pkg/cleanup"
	"github.com/marwo/buddyfit/pkg/entity"
)

type EdgesRepository struct {
	conn PgConnection
}

func NewEdgesRepo(cfg DBConfig) *EdgesRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for edgesRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for edgesRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &EdgesRepository{
		conn: pool,
	}
}

func NewEdgesRepoWithConn(conn PgConnection) *EdgesRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for edgesRepo: " + err.Error())
	}
	return &EdgesRepository{
		conn: conn,
	}
}

// Create keys the row by the sorted pair (user_low, user_high) so the unique
// constraint catches a duplicate no matter which side initiated it.
func (er *EdgesRepository) Create(ctx context.Context, requester, recipient uuid.UUID) (*entity.BuddyEdge, error) {
	low, high := orderPair(requester, recipient)
	edge := entity.BuddyEdge{
		RequesterID: requester,
		RecipientID: recipient,
		State:       entity.EdgePending,
	}
	row := er.conn.QueryRow(ctx,
		`INSERT INTO buddy_edges (user_low, user_high, requester_id, recipient_id, state)
		VALUES ($1, $2, $3, $4, 'pending') RETURNING id, created_at, updated_at;`,
		low, high, requester, recipient,
	)
	if err := row.Scan(&edge.ID, &edge.CreatedAt, &edge.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return nil, errorvalues.ErrEdgePairExists
			// FK violation
			case "23503":
				return nil, errorvalues.ErrUserNotFound
			}
		}
		return nil, errors.New("creating edge db error: " + err.Error())
	}
	return &edge, nil
}

func (er *EdgesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.BuddyEdge, error) {
	var edge entity.BuddyEdge
	edge.ID = id
	var state string
	row := er.conn.QueryRow(ctx,
		`SELECT requester_id, recipient_id, state, created_at, updated_at FROM buddy_edges WHERE id = $1;`, id)
	if err := row.Scan(&edge.RequesterID, &edge.RecipientID, &state, &edge.CreatedAt, &edge.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrEdgeNotFound
		}
		return nil, errors.New("getting edge by id error: " + err.Error())
	}
	edge.State = entity.EdgeState(state)
	return &edge, nil
}

// UpdateState is the conditional write both responders race on: exactly one
// of two concurrent calls sees RowsAffected == 1.
func (er *EdgesRepository) UpdateState(ctx context.Context, id uuid.UUID, expected, next entity.EdgeState) (bool, error) {
	ct, err := er.conn.Exec(ctx,
		`UPDATE buddy_edges SET state = $3, updated_at = NOW() WHERE id = $1 AND state = $2;`,
		id, string(expected), string(next),
	)
	if err != nil {
		return false, errors.New("updating edge state error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

func (er *EdgesRepository) ListForUser(ctx context.Context, uid uuid.UUID, state *entity.EdgeState) ([]*entity.BuddyEdge, error) {
	query := `SELECT id, requester_id, recipient_id, state, created_at, updated_at
		FROM buddy_edges WHERE (requester_id = $1 OR recipient_id = $1)`
	args := []any{uid}
	if state != nil {
		args = append(args, string(*state))
		query += ` AND state = $2`
	}
	query += ` ORDER BY created_at DESC;`
	rows, err := er.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.New("listing edges error: " + err.Error())
	}
	defer rows.Close()
	edges := make([]*entity.BuddyEdge, 0)
	for rows.Next() {
		var edge entity.BuddyEdge
		var st string
		err = rows.Scan(&edge.ID, &edge.RequesterID, &edge.RecipientID, &st, &edge.CreatedAt, &edge.UpdatedAt)
		if err != nil {
			return nil, errors.New("edge row parsing error: " + err.Error())
		}
		edge.State = entity.EdgeState(st)
		edges = append(edges, &edge)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected edge rows error: " + rows.Err().Error())
	}
	return edges, nil
}

func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}
