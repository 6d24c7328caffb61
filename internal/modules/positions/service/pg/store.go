package pg

import (
	"context"
	"fmt"
	"time"

	"exit_guard/internal/models"
	"exit_guard/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
)

// Store — позиции и решения детектора в Postgres.
//
// positions:       id, pair, entry_price, size, pyramid_levels, status, opened_at
// exit_decisions:  id, position_id, pair, profit_pct, signal_count, reasoning(jsonb), decided_at
//
// Позиции открывает внешний трекер, мы только читаем OPEN и двигаем
// OPEN -> CLOSING -> CLOSED.
type Store struct {
	db *db.PgTxManager
}

func NewStore(db *db.PgTxManager) *Store {
	return &Store{db: db}
}

// Open отдаёт все открытые позиции.
func (s *Store) Open(ctx context.Context) (out []models.OpenPosition, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Open: %w", err)
		}
	}()

	rows, err := s.db.Conn().Query(ctx, `
		SELECT id, pair, entry_price, size, pyramid_levels, opened_at
		FROM positions
		WHERE status = 'OPEN'
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.OpenPosition
		if err = rows.Scan(&p.ID, &p.Pair, &p.EntryPrice, &p.Size, &p.PyramidLevels, &p.OpenedAt); err != nil {
			return nil, err
		}
		p.Status = models.PositionOpen
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClaimExit атомарно переводит позицию OPEN -> CLOSING и пишет решение.
// false без ошибки — позицию уже забрал другой вызов (дубликаты ордеров
// на закрытие отсекаются именно здесь).
func (s *Store) ClaimExit(ctx context.Context, dec models.ExitDecision) (claimed bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.ClaimExit: %w", err)
		}
	}()

	err = s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, txErr := tx.Exec(ctxTx, `
			UPDATE positions SET status = 'CLOSING'
			WHERE id = $1 AND status = 'OPEN'`,
			dec.PositionID)
		if txErr != nil {
			return txErr
		}
		if tag.RowsAffected() == 0 {
			return nil // уже CLOSING/CLOSED
		}
		claimed = true

		reasoning, txErr := sonic.Marshal(dec.Reasoning)
		if txErr != nil {
			return txErr
		}
		_, txErr = tx.Exec(ctxTx, `
			INSERT INTO exit_decisions (position_id, pair, profit_pct, signal_count, reasoning, decided_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			dec.PositionID, dec.Pair, dec.ProfitPct, dec.SignalCount, reasoning, dec.DecidedAt)
		return txErr
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Reopen откатывает CLOSING -> OPEN, если ордер на закрытие не встал.
func (s *Store) Reopen(ctx context.Context, positionID int64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Reopen: %w", err)
		}
	}()

	_, err = s.db.Conn().Exec(ctx, `
		UPDATE positions SET status = 'OPEN'
		WHERE id = $1 AND status = 'CLOSING'`,
		positionID)
	return err
}

// MarkClosed фиксирует закрытие после успешного ордера.
func (s *Store) MarkClosed(ctx context.Context, positionID int64, closedAt time.Time) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.MarkClosed: %w", err)
		}
	}()

	_, err = s.db.Conn().Exec(ctx, `
		UPDATE positions SET status = 'CLOSED', closed_at = $2
		WHERE id = $1 AND status = 'CLOSING'`,
		positionID, closedAt)
	return err
}
