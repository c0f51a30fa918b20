package user_repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"usermanager/internal/apperr"
	"usermanager/internal/models"
	"usermanager/pkg/database"
	"usermanager/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, query models.ListUsersQuery) ([]*models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) (bool, error)
	Stats(ctx context.Context, since time.Time) (*models.UserStats, error)
	CountAdmins(ctx context.Context) (int, error)
}

type userRepository struct {
	db     *database.Database
	logger logger.AppLogger
}

func New(db *database.Database, logger logger.AppLogger) UserRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

const userColumns = `id, email, name, password_hashed, role, status, bio, avatar_url, location, last_login_at, created_at, updated_at`

// scanUser читает строку в порядке userColumns
func scanUser(row pgx.Row) (*models.User, error) {
	var (
		user                    models.User
		id, role, status        string
		bio, avatarURL, location *string
	)
	err := row.Scan(
		&id,
		&user.Email,
		&user.Name,
		&user.PasswordHashed,
		&role,
		&status,
		&bio,
		&avatarURL,
		&location,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("некорректный id пользователя %q: %w", id, err)
	}
	user.Role = models.Role(role)
	user.Status = models.Status(status)
	if bio != nil || avatarURL != nil || location != nil {
		user.Profile = &models.Profile{Bio: bio, AvatarURL: avatarURL, Location: location}
	}
	return &user, nil
}

func profileColumns(p *models.Profile) (bio, avatarURL, location *string) {
	if p == nil {
		return nil, nil, nil
	}
	return p.Bio, p.AvatarURL, p.Location
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	op := "user_repository.Create"

	query := `
        INSERT INTO users (id, email, name, password_hashed, role, status, bio, avatar_url, location, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	bio, avatarURL, location := profileColumns(user.Profile)
	_, err := r.db.Pool.Exec(ctx, query,
		user.ID.String(),
		user.Email,
		user.Name,
		user.PasswordHashed,
		string(user.Role),
		string(user.Status),
		bio,
		avatarURL,
		location,
		user.CreatedAt,
		user.UpdatedAt)

	if err != nil {
		if apperr.IsUniqueViolation(err) {
			r.logger.Warn("Email уже занят", op, "email", user.Email)
			return apperr.EmailExists(op)
		}
		r.logger.Error(err, op, "email", user.Email)
		return apperr.HandleDBError(err, op, "Пользователь")
	}

	r.logger.Info("Пользователь создан", op, "user_id", user.ID)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	op := "user_repository.GetByID"

	query := `SELECT ` + userColumns + `
        FROM users
        WHERE id = $1 AND deleted_at IS NULL
    `

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error(err, op, "user_id", id)
		return nil, apperr.HandleDBError(err, op, "Пользователь")
	}

	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	op := "user_repository.GetByEmail"

	query := `SELECT ` + userColumns + `
        FROM users
        WHERE email = $1 AND deleted_at IS NULL
    `

	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error(err, op, "email", email)
		return nil, apperr.HandleDBError(err, op, "Пользователь")
	}

	return user, nil
}

// buildListFilter собирает WHERE для списка и счетчика, возвращает условие и аргументы
func buildListFilter(q models.ListUsersQuery) (string, []any) {
	conds := []string{"deleted_at IS NULL"}
	args := make([]any, 0, 3)

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR email ILIKE $%d ESCAPE '\')`, n, n))
	}
	if q.Role != "" {
		args = append(args, string(q.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, string(q.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *userRepository) List(ctx context.Context, q models.ListUsersQuery) ([]*models.User, int, error) {
	op := "user_repository.List"

	where, args := buildListFilter(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error(err, op, "stage", "count")
		return nil, 0, apperr.HandleDBError(err, op, "Пользователи")
	}

	users := make([]*models.User, 0, q.Limit)
	if total == 0 || q.Offset() >= total {
		return users, total, nil
	}

	listArgs := append(args, q.Limit, q.Offset())
	listQuery := fmt.Sprintf(`SELECT %s
        FROM users
        WHERE %s
        ORDER BY created_at DESC, id
        LIMIT $%d OFFSET $%d`, userColumns, where, len(listArgs)-1, len(listArgs))

	rows, err := r.db.Pool.Query(ctx, listQuery, listArgs...)
	if err != nil {
		r.logger.Error(err, op, "stage", "select")
		return nil, 0, apperr.HandleDBError(err, op, "Пользователи")
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error(err, op, "stage", "scan")
			return nil, 0, apperr.Internal(err, op)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error(err, op, "stage", "rows")
		return nil, 0, apperr.HandleDBError(err, op, "Пользователи")
	}

	return users, total, nil
}

// otherActiveAdminExists условие для UPDATE users: после изменения строки
// остается хотя бы один активный администратор. Активные администраторы
// блокируются в порядке id, поэтому параллельные понижения выполняются по очереди.
const otherActiveAdminExists = `EXISTS (
            SELECT 1 FROM (
                SELECT id FROM users
                WHERE role = 'admin' AND status = 'active' AND deleted_at IS NULL
                ORDER BY id
                FOR UPDATE
            ) admins
            WHERE admins.id <> $1
        )`

const isActiveAdmin = `(role = 'admin' AND status = 'active')`

// Update сохраняет изменения. Если строка перестает быть активным
// администратором и других активных администраторов нет, возвращает LastAdmin.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	op := "user_repository.Update"

	query := `
        UPDATE users
            SET name = $2,
                role = $3,
                status = $4,
                bio = $5,
                avatar_url = $6,
                location = $7,
                updated_at = $8
        WHERE id = $1 AND deleted_at IS NULL
          AND (($3 = 'admin' AND $4 = 'active') OR NOT ` + isActiveAdmin + ` OR ` + otherActiveAdminExists + `)
    `

	bio, avatarURL, location := profileColumns(user.Profile)
	tag, err := r.db.Pool.Exec(ctx, query,
		user.ID.String(),
		user.Name,
		string(user.Role),
		string(user.Status),
		bio,
		avatarURL,
		location,
		user.UpdatedAt)

	if err != nil {
		r.logger.Error(err, op, "user_id", user.ID)
		return apperr.HandleDBError(err, op, "Пользователь")
	}
	if tag.RowsAffected() == 0 {
		return r.explainSkipped(ctx, r.db.Pool, user.ID, op)
	}

	r.logger.Info("Пользователь обновлен", op, "user_id", user.ID)
	return nil
}

// explainSkipped различает причины, по которым охраняемый UPDATE не затронул строку:
// пользователя нет или он последний активный администратор.
func (r *userRepository) explainSkipped(ctx context.Context, q querier, id uuid.UUID, op string) error {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`

	var alive bool
	if err := q.QueryRow(ctx, query, id.String()).Scan(&alive); err != nil {
		r.logger.Error(err, op, "user_id", id)
		return apperr.HandleDBError(err, op, "Пользователь")
	}
	if !alive {
		return apperr.UserNotFound(op)
	}

	r.logger.Warn("Отказ: последний активный администратор", op, "user_id", id)
	return apperr.LastAdmin(op)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SoftDelete помечает пользователя удаленным и закрывает его сессии.
// Возвращает false, если живого пользователя с таким id нет,
// и LastAdmin, если удаляется последний активный администратор.
func (r *userRepository) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) (deleted bool, err error) {
	op := "user_repository.SoftDelete"

	queryMarkDeleted := `
        UPDATE users
            SET deleted_at = $2,
                updated_at = $2
        WHERE id = $1 AND deleted_at IS NULL
          AND (NOT ` + isActiveAdmin + ` OR ` + otherActiveAdminExists + `)
    `
	queryDropSessions := `DELETE FROM sessions WHERE user_id = $1`

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		r.logger.Error(err, op, "user_id", id)
		return false, apperr.Internal(err, op)
	}

	defer func() {
		if err != nil || !deleted {
			tx.Rollback(ctx)
		}
	}()

	// 1. Помечаем пользователя удаленным
	tag, err := tx.Exec(ctx, queryMarkDeleted, id.String(), deletedAt)
	if err != nil {
		r.logger.Error(err, op, "user_id", id)
		return false, apperr.HandleDBError(err, op, "Пользователь")
	}
	if tag.RowsAffected() == 0 {
		err = r.explainSkipped(ctx, tx, id, op)
		if apperr.IsType(err, apperr.TypeUserNotFound) {
			return false, nil
		}
		return false, err
	}

	// 2. Удаляем сессии, чтобы refresh token перестал работать
	if _, err = tx.Exec(ctx, queryDropSessions, id.String()); err != nil {
		r.logger.Error(err, op, "user_id", id)
		return false, apperr.HandleDBError(err, op, "Сессия")
	}

	// 3. Коммитим транзакцию
	if err = tx.Commit(ctx); err != nil {
		r.logger.Error(err, op, "user_id", id)
		return false, apperr.Internal(err, op)
	}

	r.logger.Info("Пользователь помечен удаленным", op, "user_id", id)
	return true, nil
}

func (r *userRepository) Stats(ctx context.Context, since time.Time) (*models.UserStats, error) {
	op := "user_repository.Stats"

	query := `
        SELECT role, status, COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1)
        FROM users
        WHERE deleted_at IS NULL
        GROUP BY role, status
    `

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		r.logger.Error(err, op)
		return nil, apperr.HandleDBError(err, op, "Статистика")
	}
	defer rows.Close()

	stats := models.NewUserStats()
	for rows.Next() {
		var (
			role, status  string
			count, recent int
		)
		if err := rows.Scan(&role, &status, &count, &recent); err != nil {
			r.logger.Error(err, op)
			return nil, apperr.Internal(err, op)
		}
		stats.Total += count
		stats.NewLastWeek += recent
		stats.ByRole[models.Role(role)] += count
		stats.ByStatus[models.Status(status)] += count
	}
	if err := rows.Err(); err != nil {
		r.logger.Error(err, op)
		return nil, apperr.HandleDBError(err, op, "Статистика")
	}

	return stats, nil
}

// CountAdmins считает активных администраторов
func (r *userRepository) CountAdmins(ctx context.Context) (int, error) {
	op := "user_repository.CountAdmins"

	query := `SELECT COUNT(*) FROM users WHERE role = 'admin' AND status = 'active' AND deleted_at IS NULL`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error(err, op)
		return 0, apperr.HandleDBError(err, op, "Пользователи")
	}
	return count, nil
}
