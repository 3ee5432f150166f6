package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) SaveExpense(ctx context.Context, expense Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO trip_expenses (id, trip_id, paid_by, description, currency, amount_minor, trip_base_amount_minor, split_method, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = tx.ExecContext(
		ctx,
		query,
		expense.ID,
		expense.TripID,
		expense.PaidBy,
		expense.Description,
		expense.Currency,
		expense.AmountMinor,
		expense.TripBaseAmountMinor,
		expense.SplitMethod,
		expense.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i, split := range expense.Splits {
		query = `INSERT INTO trip_expense_splits (expense_id, position, participant_id, amount_minor, percentage, shares)
                 VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = tx.ExecContext(
			ctx,
			query,
			expense.ID,
			i,
			split.ParticipantID,
			nullInt64(split.AmountMinor),
			nullInt64(split.Percentage),
			nullInt64(split.Shares),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) ListExpenses(ctx context.Context, tripID uuid.UUID) ([]Expense, error) {
	query := `SELECT id, trip_id, paid_by, description, currency, amount_minor, trip_base_amount_minor, split_method, created_at
              FROM trip_expenses
              WHERE trip_id = $1
              ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []Expense
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var expense Expense
		err := rows.Scan(
			&expense.ID,
			&expense.TripID,
			&expense.PaidBy,
			&expense.Description,
			&expense.Currency,
			&expense.AmountMinor,
			&expense.TripBaseAmountMinor,
			&expense.SplitMethod,
			&expense.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		index[expense.ID] = len(expenses)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	splitQuery := `SELECT es.expense_id, es.participant_id, es.amount_minor, es.percentage, es.shares
                   FROM trip_expense_splits es
                   INNER JOIN trip_expenses e ON es.expense_id = e.id
                   WHERE e.trip_id = $1
                   ORDER BY es.expense_id, es.position`

	splitRows, err := r.db.QueryContext(ctx, splitQuery, tripID)
	if err != nil {
		return nil, err
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var (
			expenseID                  uuid.UUID
			split                      ExpenseSplit
			amount, percentage, shares sql.NullInt64
		)
		if err := splitRows.Scan(&expenseID, &split.ParticipantID, &amount, &percentage, &shares); err != nil {
			return nil, err
		}
		split.AmountMinor = int64Ptr(amount)
		split.Percentage = int64Ptr(percentage)
		split.Shares = int64Ptr(shares)

		if i, ok := index[expenseID]; ok {
			expenses[i].Splits = append(expenses[i].Splits, split)
		}
	}

	return expenses, splitRows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
