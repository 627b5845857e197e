package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/pgxscan"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/dispatch-dashboard/internal/repository"
)

type OperatorRepo struct {
	db db.DB
}

func NewOperatorRepo(db db.DB) *OperatorRepo {
	return &OperatorRepo{db: db}
}

func (r *OperatorRepo) CreateOperator(ctx context.Context, username, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		"INSERT INTO operators (username, password) VALUES ($1, $2)",
		username, string(hashedPassword))
	if err != nil {
		return fmt.Errorf("failed to insert operator %s: %w", username, err)
	}
	return nil
}

func (r *OperatorRepo) GetByUsername(ctx context.Context, username string) (*repository.Operator, error) {
	var op repository.Operator
	err := r.db.Get(ctx, &op,
		"SELECT id, username, password, created_at FROM operators WHERE username = $1", username)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get operator %s: %w", username, err)
	}
	return &op, nil
}

// ValidateOperator checks a basic-auth pair. An unknown user is not an error.
func (r *OperatorRepo) ValidateOperator(ctx context.Context, username, password string) (bool, error) {
	op, err := r.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// EnsureOperator creates the operator unless it already exists. It reports
// whether a row was created.
func (r *OperatorRepo) EnsureOperator(ctx context.Context, username, password string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repository.ErrObjectNotFound):
		return false, err
	}
	if err := r.CreateOperator(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}
