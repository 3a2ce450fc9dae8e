package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/avelin/cashflow-service/internal/calendar"
	"github.com/avelin/cashflow-service/internal/config"
	"github.com/avelin/cashflow-service/internal/integrations/camt"
	"github.com/avelin/cashflow-service/internal/models"
	"github.com/avelin/cashflow-service/internal/money"
	"github.com/avelin/cashflow-service/internal/projection"
	"github.com/avelin/cashflow-service/internal/repository"
	"github.com/avelin/cashflow-service/internal/utils/csvio"
)

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	camt   *camt.Parser
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, log: log, config: cfg, camt: camt.NewParser(log)}
}

// Register creates a new user with hashed password
func (s *Service) Register(username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// userIDFromContext extracts the authenticated user id set by the middleware
func userIDFromContext(ctx context.Context) (int64, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return 0, fmt.Errorf("user ID not found in context")
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return userID, nil
}

// ownedAccount loads an account and verifies it belongs to the caller
func (s *Service) ownedAccount(ctx context.Context, accountID string) (*models.Account, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, fmt.Errorf("account does not belong to user")
	}
	return account, nil
}

// CreateAccount creates a new account for the authenticated user
func (s *Service) CreateAccount(ctx context.Context, name string) (*models.Account, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}

	account := &models.Account{UserID: userID, Name: name}
	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created for user %d: %s", userID, account.Name)
	return account, nil
}

// ListAccounts returns the authenticated user's accounts
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAccountsByUser(userID)
}

// DeleteAccount removes one of the authenticated user's accounts
func (s *Service) DeleteAccount(ctx context.Context, accountID string) error {
	if _, err := s.ownedAccount(ctx, accountID); err != nil {
		return err
	}
	return s.repo.DeleteAccount(accountID)
}

// CreateCheckpoint records a known-true balance for an account
func (s *Service) CreateCheckpoint(ctx context.Context, cp *models.BalanceCheckpoint) (*models.BalanceCheckpoint, error) {
	if _, err := s.ownedAccount(ctx, cp.AccountID); err != nil {
		return nil, err
	}
	cp.Date = calendar.Normalize(cp.Date)
	cp.Amount = money.Round(cp.Amount)
	if err := s.repo.CreateCheckpoint(cp); err != nil {
		return nil, err
	}
	s.log.Infof("Checkpoint created for account %s on %s", cp.AccountID, cp.Date.Format("2006-01-02"))
	return cp, nil
}

// DeleteCheckpoint removes a checkpoint owned by the authenticated user
func (s *Service) DeleteCheckpoint(ctx context.Context, id string) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteCheckpoint(id, userID)
}

// CreateTransaction stores a one-time transaction or a recurring template
func (s *Service) CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if _, err := s.ownedAccount(ctx, tx.AccountID); err != nil {
		return nil, err
	}
	if tx.IsRecurring && tx.Rule == nil {
		return nil, fmt.Errorf("recurring transaction requires a recurrence rule")
	}
	tx.Date = calendar.Normalize(tx.Date)
	tx.Amount = money.Round(tx.Amount)
	if tx.EndDate != nil {
		endDate := calendar.Normalize(*tx.EndDate)
		tx.EndDate = &endDate
	}
	if err := s.repo.CreateTransaction(tx); err != nil {
		return nil, err
	}
	s.log.Infof("Transaction created for account %s: %s", tx.AccountID, tx.Description)
	return tx, nil
}

// ListTransactions returns all of the authenticated user's transactions
func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactionsByUser(userID)
}

// DeleteTransaction removes a transaction owned by the authenticated user
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.repo.DeleteTransaction(id, userID)
}

// GetSettings returns the user's projection settings, falling back to
// configured defaults when none are stored yet
func (s *Service) GetSettings(ctx context.Context) (*models.Settings, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.SettingsForUser(userID)
}

// SettingsForUser loads settings by user id, applying configured defaults
func (s *Service) SettingsForUser(userID int64) (*models.Settings, error) {
	settings, err := s.repo.GetSettings(userID)
	if errors.Is(err, repository.ErrNotFound) {
		threshold, perr := money.Parse(s.config.WarningThreshold)
		if perr != nil {
			return nil, fmt.Errorf("invalid default warning threshold %q", s.config.WarningThreshold)
		}
		return &models.Settings{
			UserID:           userID,
			WarningThreshold: threshold,
			HorizonDays:      s.config.HorizonDays,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings stores the user's projection settings
func (s *Service) UpdateSettings(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if settings.HorizonDays < 0 {
		return nil, fmt.Errorf("horizon days must be non-negative")
	}
	settings.UserID = userID
	settings.WarningThreshold = money.Round(settings.WarningThreshold)
	if err := s.repo.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Project runs the forecast for the authenticated user. A positive
// horizonDays overrides the stored setting.
func (s *Service) Project(ctx context.Context, horizonDays int) (*models.Result, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.ProjectForUser(userID, horizonDays, time.Now())
}

// ProjectForUser runs the forecast for a user as of the given time. The
// scheduler uses this directly, bypassing request authentication.
func (s *Service) ProjectForUser(userID int64, horizonDays int, now time.Time) (*models.Result, error) {
	settings, err := s.SettingsForUser(userID)
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		horizonDays = settings.HorizonDays
	}

	accounts, err := s.repo.ListAccountsByUser(userID)
	if err != nil {
		return nil, err
	}
	checkpoints, err := s.repo.ListCheckpointsByUser(userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactionsByUser(userID)
	if err != nil {
		return nil, err
	}

	result := projection.Project(projection.Input{
		Accounts:         accounts,
		Checkpoints:      checkpoints,
		Transactions:     transactions,
		HorizonDays:      horizonDays,
		WarningThreshold: settings.WarningThreshold,
		Today:            now,
	})

	s.log.Debugf("Projection for user %d: %d data points, %d warnings", userID, len(result.DataPoints), len(result.Warnings))
	return &result, nil
}

// ImportTransactionsCSV bulk-creates one-time transactions from CSV rows
func (s *Service) ImportTransactionsCSV(ctx context.Context, accountID string, r io.Reader) (int, error) {
	if _, err := s.ownedAccount(ctx, accountID); err != nil {
		return 0, err
	}
	transactions, err := csvio.Import(r, accountID)
	if err != nil {
		return 0, fmt.Errorf("CSV import failed: %w", err)
	}
	for i := range transactions {
		if err := s.repo.CreateTransaction(&transactions[i]); err != nil {
			return i, err
		}
	}
	s.log.Infof("Imported %d transactions into account %s", len(transactions), accountID)
	return len(transactions), nil
}

// ExportTransactionsCSV writes the user's one-time transactions as CSV
func (s *Service) ExportTransactionsCSV(ctx context.Context, w io.Writer) error {
	transactions, err := s.ListTransactions(ctx)
	if err != nil {
		return err
	}
	return csvio.Export(w, transactions)
}

// ImportStatement parses a CAMT XML statement into a balance checkpoint
// (from the closing balance) and one-time transactions (from booked entries)
func (s *Service) ImportStatement(ctx context.Context, accountID string, r io.Reader) (*models.BalanceCheckpoint, int, error) {
	if _, err := s.ownedAccount(ctx, accountID); err != nil {
		return nil, 0, err
	}
	stmt, err := s.camt.Parse(r)
	if err != nil {
		return nil, 0, fmt.Errorf("statement import failed: %w", err)
	}

	var checkpoint *models.BalanceCheckpoint
	if stmt.HasClosing {
		checkpoint = &models.BalanceCheckpoint{
			AccountID: accountID,
			Date:      calendar.Normalize(stmt.ClosingDate),
			Amount:    money.Round(stmt.ClosingBalance),
			Notes:     "imported from statement",
		}
		if err := s.repo.CreateCheckpoint(checkpoint); err != nil {
			return nil, 0, err
		}
	}

	for _, entry := range stmt.Entries {
		tx := &models.Transaction{
			AccountID:   accountID,
			Date:        calendar.Normalize(entry.Date),
			Amount:      money.Round(entry.Amount),
			Description: entry.Description,
		}
		if err := s.repo.CreateTransaction(tx); err != nil {
			return checkpoint, 0, err
		}
	}

	s.log.Infof("Imported statement into account %s: %d entries", accountID, len(stmt.Entries))
	return checkpoint, len(stmt.Entries), nil
}
