package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/redis/go-redis/v9"
)

// CodeCounter hands out the sequence number of the next proposal.
type CodeCounter interface {
	Next(ctx context.Context) (int64, error)
}

// RecordCodeCounter derives the next sequence from the number of stored
// proposals. After a deletion the count repeats an issued number, so callers
// pair it with AllocateProposalCode.
type RecordCodeCounter struct {
	app *pocketbase.PocketBase
}

func NewRecordCodeCounter(app *pocketbase.PocketBase) *RecordCodeCounter {
	return &RecordCodeCounter{app: app}
}

func (c *RecordCodeCounter) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := c.app.CountRecords("proposals")
	if err != nil {
		return 0, fmt.Errorf("count proposals: %w", err)
	}
	return n + 1, nil
}

// RedisCodeCounter allocates sequences with INCR so concurrent creators never
// share a number.
type RedisCodeCounter struct {
	client *redis.Client
	key    string
}

// DefaultCodeCounterKey is the Redis key holding the last issued sequence.
const DefaultCodeCounterKey = "proposals:code_seq"

func NewRedisCodeCounter(client *redis.Client, key string) *RedisCodeCounter {
	if key == "" {
		key = DefaultCodeCounterKey
	}
	return &RedisCodeCounter{client: client, key: key}
}

// Seed sets the counter to last unless it already exists, so the first INCR
// continues after the proposals already on record.
func (c *RedisCodeCounter) Seed(ctx context.Context, last int64) error {
	if err := c.client.SetNX(ctx, c.key, last, 0).Err(); err != nil {
		return fmt.Errorf("seed %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisCodeCounter) Next(ctx context.Context) (int64, error) {
	n, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", c.key, err)
	}
	return n, nil
}

// formatProposalCode builds YYYYMM + service code + sequence, e.g. 202601AC84.
func formatProposalCode(now time.Time, serviceType string, seq int64) string {
	return fmt.Sprintf("%04d%02d%s%d", now.Year(), int(now.Month()), serviceType, seq)
}

// GenerateProposalCode suggests the code of the next proposal. offset carries
// the numbering over from proposals issued before this system.
func GenerateProposalCode(ctx context.Context, counter CodeCounter, serviceType string, offset int, now time.Time) (string, error) {
	seq, err := counter.Next(ctx)
	if err != nil {
		return "", err
	}
	return formatProposalCode(now, serviceType, seq+int64(offset)), nil
}

// maxCodeAttempts bounds how many sequence numbers AllocateProposalCode tries
// past the counter's suggestion.
const maxCodeAttempts = 20

// CodeInUse reports whether a stored proposal already carries code.
type CodeInUse func(code string) (bool, error)

// RecordCodeInUse checks the proposals collection for code.
func RecordCodeInUse(app *pocketbase.PocketBase) CodeInUse {
	return func(code string) (bool, error) {
		_, err := app.FindFirstRecordByData("proposals", "code", code)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("look up proposal code %s: %w", code, err)
	}
}

// AllocateProposalCode takes the counter's next sequence and steps past any
// code already on record. It fails with ErrCodeConflict when every attempt
// is taken.
func AllocateProposalCode(ctx context.Context, counter CodeCounter, serviceType string, offset int, now time.Time, inUse CodeInUse) (string, error) {
	seq, err := counter.Next(ctx)
	if err != nil {
		return "", err
	}
	for i := range int64(maxCodeAttempts) {
		code := formatProposalCode(now, serviceType, seq+int64(offset)+i)
		taken, err := inUse(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %d codes after %s", ErrCodeConflict, maxCodeAttempts,
		formatProposalCode(now, serviceType, seq+int64(offset)))
}
