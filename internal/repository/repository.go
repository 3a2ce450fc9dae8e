package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/avelin/cashflow-service/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO cashflow.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM cashflow.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users
func (r *Repository) ListUsers() ([]models.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM cashflow.users
		ORDER BY id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	query := `
		INSERT INTO cashflow.accounts (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query, account.ID, account.UserID, account.Name).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves an account by id
func (r *Repository) FindAccountByID(id string) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM cashflow.accounts
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&account.ID, &account.UserID, &account.Name, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// ListAccountsByUser retrieves all accounts belonging to a user
func (r *Repository) ListAccountsByUser(userID int64) ([]models.Account, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM cashflow.accounts
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes an account and its checkpoints and transactions
func (r *Repository) DeleteAccount(id string) error {
	res, err := r.db.Exec(`DELETE FROM cashflow.accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCheckpoint creates a new balance checkpoint in the database
func (r *Repository) CreateCheckpoint(cp *models.BalanceCheckpoint) error {
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	query := `
		INSERT INTO cashflow.balance_checkpoints (id, account_id, date, amount, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query, cp.ID, cp.AccountID, cp.Date, cp.Amount, cp.Notes).
		Scan(&cp.CreatedAt, &cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return nil
}

// ListCheckpointsByUser retrieves all checkpoints across a user's accounts
func (r *Repository) ListCheckpointsByUser(userID int64) ([]models.BalanceCheckpoint, error) {
	query := `
		SELECT c.id, c.account_id, c.date, c.amount, c.notes, c.created_at, c.updated_at
		FROM cashflow.balance_checkpoints c
		JOIN cashflow.accounts a ON a.id = c.account_id
		WHERE a.user_id = $1
		ORDER BY c.date`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []models.BalanceCheckpoint
	for rows.Next() {
		var c models.BalanceCheckpoint
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Date, &c.Amount, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, c)
	}
	return checkpoints, rows.Err()
}

// DeleteCheckpoint removes a checkpoint, scoped to the owning user
func (r *Repository) DeleteCheckpoint(id string, userID int64) error {
	query := `
		DELETE FROM cashflow.balance_checkpoints c
		USING cashflow.accounts a
		WHERE c.id = $1 AND a.id = c.account_id AND a.user_id = $2`
	res, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTransaction creates a new transaction in the database. Recurrence
// rules are serialized to a JSONB column.
func (r *Repository) CreateTransaction(tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	var rule interface{}
	if tx.Rule != nil {
		raw, err := json.Marshal(tx.Rule)
		if err != nil {
			return fmt.Errorf("failed to marshal recurrence rule: %w", err)
		}
		rule = raw
	}
	query := `
		INSERT INTO cashflow.transactions
			(id, account_id, description, amount, category, date, is_recurring, recurrence_rule, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(query, tx.ID, tx.AccountID, tx.Description, tx.Amount, tx.Category,
		tx.Date, tx.IsRecurring, rule, tx.EndDate).
		Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactionsByUser retrieves all transactions across a user's accounts
func (r *Repository) ListTransactionsByUser(userID int64) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.description, t.amount, t.category, t.date,
		       t.is_recurring, t.recurrence_rule, t.end_date, t.created_at, t.updated_at
		FROM cashflow.transactions t
		JOIN cashflow.accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		ORDER BY t.date`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var rule []byte
		var endDate sql.NullTime
		err := rows.Scan(&t.ID, &t.AccountID, &t.Description, &t.Amount, &t.Category,
			&t.Date, &t.IsRecurring, &rule, &endDate, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if len(rule) > 0 {
			t.Rule = &models.RecurrenceRule{}
			if err := json.Unmarshal(rule, t.Rule); err != nil {
				return nil, fmt.Errorf("failed to unmarshal recurrence rule for %s: %w", t.ID, err)
			}
		}
		if endDate.Valid {
			t.EndDate = &endDate.Time
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// DeleteTransaction removes a transaction, scoped to the owning user
func (r *Repository) DeleteTransaction(id string, userID int64) error {
	query := `
		DELETE FROM cashflow.transactions t
		USING cashflow.accounts a
		WHERE t.id = $1 AND a.id = t.account_id AND a.user_id = $2`
	res, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSettings retrieves a user's projection settings
func (r *Repository) GetSettings(userID int64) (*models.Settings, error) {
	s := &models.Settings{}
	query := `
		SELECT user_id, warning_threshold, horizon_days, notify_email, updated_at
		FROM cashflow.settings
		WHERE user_id = $1`
	err := r.db.QueryRow(query, userID).
		Scan(&s.UserID, &s.WarningThreshold, &s.HorizonDays, &s.NotifyEmail, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

// SaveSettings inserts or updates a user's projection settings
func (r *Repository) SaveSettings(s *models.Settings) error {
	query := `
		INSERT INTO cashflow.settings (user_id, warning_threshold, horizon_days, notify_email, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
		SET warning_threshold = EXCLUDED.warning_threshold,
		    horizon_days = EXCLUDED.horizon_days,
		    notify_email = EXCLUDED.notify_email,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at`
	err := r.db.QueryRow(query, s.UserID, s.WarningThreshold, s.HorizonDays, s.NotifyEmail).
		Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
