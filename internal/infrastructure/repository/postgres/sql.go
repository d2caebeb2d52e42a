package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/matchday/internal/domain/match"
)

const (
	pqCodeQueryCanceled    = "57014"
	pqCodeLockNotAvailable = "55P03"
	pqCodeUniqueViolation  = "23505"

	poolEntryPrimaryKey = "fixture_pool_entries_pkey"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// translateError maps driver failures onto match sentinels and leaves
// everything else untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", match.ErrLockTimeout, err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqCodeQueryCanceled, pqCodeLockNotAvailable:
		return fmt.Errorf("%w: %s", match.ErrLockTimeout, pqErr.Message)
	case pqCodeUniqueViolation:
		if pqErr.Constraint == poolEntryPrimaryKey {
			return fmt.Errorf("%w: %s", match.ErrDuplicateEntry, pqErr.Detail)
		}
	}
	return err
}

func advisoryLockKey(tenantID, fixtureID string) string {
	return tenantID + ":" + fixtureID
}

// setLocalTimeout builds a SET LOCAL statement; SET does not accept bind parameters.
func setLocalTimeout(setting string, d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return fmt.Sprintf("SET LOCAL %s = '%dms'", setting, ms)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func formatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}

func parseSeed(raw string) uint64 {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
