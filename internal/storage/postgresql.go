// Package storage реализует хранилище данных на основе PostgreSQL
// для управления пользователями и журналом активаций тарифов.
// Предоставляет методы создания и чтения пользователей, а также
// транзакционное применение покупки тарифа с защитой от повторной
// обработки одной checkout-сессии.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/plan-gate/internal/models"
)

// Ошибки хранилища, различимые вызывающей стороной через errors.Is.
var (
	// ErrUserExists — пользователь с таким email уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionAlreadyApplied — checkout-сессия уже была обработана.
	ErrSessionAlreadyApplied = errors.New("checkout session already applied")
)

// uniqueViolation — код ошибки PostgreSQL о нарушении уникального индекса.
const uniqueViolation = "23505"

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями и журналом тарифов.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ===== USER METHODS =====

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Дубликат email отражается как ErrUserExists, уникальность
// обеспечивает индекс базы данных.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (username, email, password_hash, role, current_plan, plan_expiry)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role,
		user.CurrentPlan, user.PlanExpiry).Scan(&newUID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, role, current_plan, plan_expiry, created_at
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, username, email, password_hash, role, current_plan, plan_expiry, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var planExpiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.PasswordHash,
		&u.Role, &u.CurrentPlan, &planExpiry, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if planExpiry.Valid {
		u.PlanExpiry = &planExpiry.Time
	}
	return u, nil
}

// ClearPlanExpiry сбрасывает маркер истечения тарифа пользователя.
// Используется ленивым списанием пробного периода: тариф free остаётся,
// очищается только дата.
func (s *Storage) ClearPlanExpiry(ctx context.Context, userUID string) error {
	const op = "storage.ClearPlanExpiry"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET plan_expiry = NULL
			  WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DemoteUserToFree понижает пользователя до тарифа free, очищает маркер
// истечения и помечает истекшие активные записи журнала статусом expired.
// Обе записи меняются в одной транзакции, чтобы кеш и журнал не разошлись.
func (s *Storage) DemoteUserToFree(ctx context.Context, userUID string) error {
	const op = "storage.DemoteUserToFree"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE users
			  SET current_plan = $1, plan_expiry = NULL
			  WHERE uid = $2`
	if _, err = tx.ExecContext(ctx, query, models.PlanFree, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE plan_records
			 SET status = $1
			 WHERE user_uid = $2 AND status = $3 AND end_date < NOW()`
	if _, err = tx.ExecContext(ctx, query, models.PlanStatusExpired, userUID, models.PlanStatusActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ===== PLAN RECORD METHODS =====

// CreatePlanRecord добавляет запись журнала активаций и возвращает её ID.
func (s *Storage) CreatePlanRecord(ctx context.Context, rec models.PlanRecord) (int64, error) {
	const op = "storage.CreatePlanRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO plan_records (user_uid, plan_type, start_date, end_date, status, provider_session_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int64
	if err := s.DB.QueryRowContext(ctx, query,
		rec.UserUID, rec.PlanType, rec.StartDate, rec.EndDate,
		rec.Status, rec.ProviderSessionID).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrSessionAlreadyApplied)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindPlanRecordBySessionID возвращает запись журнала по идентификатору
// checkout-сессии провайдера. Вторым значением сообщает, найдена ли запись.
func (s *Storage) FindPlanRecordBySessionID(ctx context.Context, sessionID string) (*models.PlanRecord, bool, error) {
	const op = "storage.FindPlanRecordBySessionID"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_type, start_date, end_date, status, provider_session_id, created_at
			  FROM plan_records
			  WHERE provider_session_id = $1`
	var rec models.PlanRecord
	var sessionRef sql.NullString
	row := s.DB.QueryRowContext(ctx, query, sessionID)
	if err := row.Scan(&rec.ID, &rec.UserUID, &rec.PlanType, &rec.StartDate,
		&rec.EndDate, &rec.Status, &sessionRef, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if sessionRef.Valid {
		rec.ProviderSessionID = &sessionRef.String
	}
	return &rec, true, nil
}

// ListPlanRecords возвращает журнал активаций пользователя,
// новые записи первыми.
func (s *Storage) ListPlanRecords(ctx context.Context, userUID string) ([]*models.PlanRecord, error) {
	const op = "storage.ListPlanRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_type, start_date, end_date, status, provider_session_id, created_at
			  FROM plan_records
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PlanRecord
	for rows.Next() {
		var rec models.PlanRecord
		var sessionRef sql.NullString
		if err = rows.Scan(&rec.ID, &rec.UserUID, &rec.PlanType, &rec.StartDate,
			&rec.EndDate, &rec.Status, &sessionRef, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if sessionRef.Valid {
			rec.ProviderSessionID = &sessionRef.String
		}
		result = append(result, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApplyPlanPurchase применяет подтверждённую покупку: обновляет кеш тарифа
// в строке пользователя и добавляет запись журнала с идентификатором
// checkout-сессии — в одной транзакции. Повторная обработка той же сессии
// (проигрыш гонки на уникальном индексе) отражается как ErrSessionAlreadyApplied
// без каких-либо изменений.
func (s *Storage) ApplyPlanPurchase(ctx context.Context, userUID string, plan models.PlanType,
	expiry time.Time, sessionID string) (*models.PlanRecord, error) {
	const op = "storage.ApplyPlanPurchase"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE users
			  SET current_plan = $1, plan_expiry = $2
			  WHERE uid = $3`
	res, err := tx.ExecContext(ctx, query, plan, expiry, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	rec := models.PlanRecord{
		UserUID:           userUID,
		PlanType:          plan,
		Status:            models.PlanStatusActive,
		ProviderSessionID: &sessionID,
	}
	query = `INSERT INTO plan_records (user_uid, plan_type, start_date, end_date, status, provider_session_id)
			 VALUES ($1, $2, NOW(), $3, $4, $5)
			 RETURNING id, start_date, created_at`
	if err = tx.QueryRowContext(ctx, query,
		rec.UserUID, rec.PlanType, expiry, rec.Status, sessionID).Scan(&rec.ID, &rec.StartDate, &rec.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrSessionAlreadyApplied)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.EndDate = expiry

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &rec, nil
}
