package session_repository

import (
	"context"
	"errors"
	"usermanager/internal/apperr"
	"usermanager/internal/models"
	"usermanager/pkg/database"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionRepository interface {
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, oldRefreshToken string, newSession *models.Session) error
	CreateAndLogin(ctx context.Context, session *models.Session) error
}

type sessionRepository struct {
	db     *database.Database
	logger logger.AppLogger
}

func New(db *database.Database, logger logger.AppLogger) SessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

const (
	queryInsertSession = `
        INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expired_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	queryUpdateLastLogin = `
        UPDATE users
            SET last_login_at = $2
        WHERE id = $1
    `
)

func (r *sessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	op := "session_repository.GetByRefreshToken"

	query := `
        SELECT id, user_id, refresh_token, user_agent, ip_address, expired_at, created_at
        FROM sessions
        WHERE refresh_token = $1
    `

	var (
		session models.Session
		userID  string
	)
	err := r.db.Pool.QueryRow(ctx, query, refreshToken).Scan(
		&session.ID,
		&userID,
		&session.RefreshToken,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiredAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Сессия не найдена", op)
			return nil, nil
		}
		r.logger.Error(err, op)
		return nil, apperr.HandleDBError(err, op, "Сессия")
	}

	session.UserID, err = uuid.Parse(userID)
	if err != nil {
		return nil, apperr.Internal(err, op)
	}

	return &session, nil
}

func (r *sessionRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	op := "session_repository.DeleteByRefreshToken"

	query := `DELETE FROM sessions WHERE refresh_token = $1`
	if _, err := r.db.Pool.Exec(ctx, query, refreshToken); err != nil {
		r.logger.Error(err, op)
		return apperr.HandleDBError(err, op, "Сессия")
	}

	r.logger.Info("Сессия удалена", op)
	return nil
}

func (r *sessionRepository) Refresh(ctx context.Context, oldRefreshToken string, newSession *models.Session) (err error) {
	op := "session_repository.Refresh"

	queryDeleteOld := `DELETE FROM sessions WHERE refresh_token = $1`

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error(err, op, "user_id", newSession.UserID)
		return apperr.Internal(err, op)
	}

	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	// 1. Удаляем старую сессию. Если ее уже нет, значит токен использован повторно
	tag, err := tx.Exec(ctx, queryDeleteOld, oldRefreshToken)
	if err != nil {
		r.logger.Error(err, op, "user_id", newSession.UserID)
		return apperr.HandleDBError(err, op, "Сессия")
	}
	if tag.RowsAffected() == 0 {
		err = apperr.Unauthorized(op)
		return err
	}

	// 2. Создаем новую сессию
	err = tx.QueryRow(ctx, queryInsertSession,
		newSession.UserID.String(),
		newSession.RefreshToken,
		newSession.UserAgent,
		newSession.IPAddress,
		newSession.ExpiredAt,
		newSession.CreatedAt).Scan(&newSession.ID)
	if err != nil {
		r.logger.Error(err, op, "user_id", newSession.UserID)
		return apperr.HandleDBError(err, op, "Сессия")
	}

	// 3. Обновляем время последнего входа
	if _, err = tx.Exec(ctx, queryUpdateLastLogin, newSession.UserID.String(), newSession.CreatedAt); err != nil {
		r.logger.Error(err, op, "user_id", newSession.UserID)
		return apperr.HandleDBError(err, op, "Пользователь")
	}

	// 4. Коммитим транзакцию
	if err = tx.Commit(ctx); err != nil {
		r.logger.Error(err, op, "user_id", newSession.UserID)
		return apperr.Internal(err, op)
	}

	r.logger.Info("Сессия обновлена", op, "user_id", newSession.UserID)
	return nil
}

func (r *sessionRepository) CreateAndLogin(ctx context.Context, session *models.Session) (err error) {
	op := "session_repository.CreateAndLogin"

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error(err, op, "user_id", session.UserID)
		return apperr.Internal(err, op)
	}

	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	// 1. Создаем сессию
	err = tx.QueryRow(ctx, queryInsertSession,
		session.UserID.String(),
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiredAt,
		session.CreatedAt).Scan(&session.ID)
	if err != nil {
		r.logger.Error(err, op, "user_id", session.UserID)
		return apperr.HandleDBError(err, op, "Сессия")
	}

	// 2. Обновляем время последнего входа
	if _, err = tx.Exec(ctx, queryUpdateLastLogin, session.UserID.String(), session.CreatedAt); err != nil {
		r.logger.Error(err, op, "user_id", session.UserID)
		return apperr.HandleDBError(err, op, "Пользователь")
	}

	// 3. Коммитим транзакцию
	if err = tx.Commit(ctx); err != nil {
		r.logger.Error(err, op, "user_id", session.UserID)
		return apperr.Internal(err, op)
	}

	r.logger.Info("Сессия создана", op,
		"user_id", session.UserID,
		"session_id", session.ID)

	return nil
}
