package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Row mirrors the transactions table.
type Row struct {
	ID        string
	UserID    string
	Title     string
	Amount    string
	Type      string
	Category  string
	Date      string
	Note      string
	CreatedAt string
	UpdatedAt string
}

const insertTransaction = `
INSERT INTO transactions (id, user_id, title, amount, type, category, date, note, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, r Row) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		r.ID, r.UserID, r.Title, r.Amount, r.Type, r.Category, r.Date, r.Note, r.CreatedAt, r.UpdatedAt)
	return err
}

const updateTransaction = `
UPDATE transactions
SET title = ?, amount = ?, type = ?, category = ?, date = ?, note = ?, updated_at = ?
WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, r Row) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		r.Title, r.Amount, r.Type, r.Category, r.Date, r.Note, r.UpdatedAt, r.UserID, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, userID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectColumns = `id, user_id, title, amount, type, category, date, note, created_at, updated_at`

const getTransaction = `SELECT ` + selectColumns + ` FROM transactions WHERE user_id = ? AND id = ?`

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (Row, error) {
	var r Row
	err := q.db.QueryRowContext(ctx, getTransaction, userID, id).Scan(
		&r.ID, &r.UserID, &r.Title, &r.Amount, &r.Type, &r.Category, &r.Date, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const listTransactions = `SELECT ` + selectColumns + `
FROM transactions
WHERE user_id = ?
ORDER BY date DESC, created_at DESC, id`

func (q *Queries) ListTransactions(ctx context.Context, userID string) ([]Row, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Title, &r.Amount, &r.Type, &r.Category, &r.Date, &r.Note, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listUsers = `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
