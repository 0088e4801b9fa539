package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"crm/repository"
	"crm/schemas"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// AccountSequencer hands out the per-organization account sequence.
type AccountSequencer interface {
	Next(ctx context.Context, orgID bson.ObjectID) (int64, error)
}

// CountSequencer derives the next number from the current account count.
// Two concurrent creations in one organization can draw the same number;
// the unique index on account_number rejects the second insert.
type CountSequencer struct {
	Accounts *repository.Repository[schemas.Account]
}

func (s CountSequencer) Next(ctx context.Context, orgID bson.ObjectID) (int64, error) {
	n, err := s.Accounts.Count(ctx, orgID, repository.Filter{}, repository.IncludeDeleted)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n + 1, nil
}

// RedisSequencer keeps an atomic counter per organization, seeded from the
// account count the first time an organization is seen.
type RedisSequencer struct {
	Client *redis.Client
	Seed   AccountSequencer
}

func sequenceKey(orgID bson.ObjectID) string { return "crm:account_seq:" + orgID.Hex() }

func (s RedisSequencer) Next(ctx context.Context, orgID bson.ObjectID) (int64, error) {
	key := sequenceKey(orgID)
	exists, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("read account sequence: %w", err)
	}
	if exists == 0 && s.Seed != nil {
		next, err := s.Seed.Next(ctx, orgID)
		if err != nil {
			return 0, err
		}
		if err := s.Client.SetNX(ctx, key, next-1, 0).Err(); err != nil {
			return 0, fmt.Errorf("seed account sequence: %w", err)
		}
	}
	n, err := s.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment account sequence: %w", err)
	}
	return n, nil
}

// AccountNumber formats ACC-<last 6 of the organization id>-<seq>.
func AccountNumber(orgID bson.ObjectID, seq int64) string {
	hex := orgID.Hex()
	return fmt.Sprintf("ACC-%s-%04d", strings.ToUpper(hex[len(hex)-6:]), seq)
}
