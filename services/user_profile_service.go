package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"squadlink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"
)

// UserProfileService owns creation and mutation of matchmaking profiles. A
// profile is owned and mutated only by its user; updatedAt and lastActive are
// refreshed on every write. Failed updates fall through to the retry queue.
type UserProfileService struct {
	Dynamo *DynamoService
	Queue  *RetryQueueService
	Clock  clockwork.Clock
}

// CreateMatchingProfile validates and persists a new profile. New profiles
// start active.
func (ups *UserProfileService) CreateMatchingProfile(ctx context.Context, profile models.MatchingProfile) (*models.MatchingProfile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if profile.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if profile.AgeRange.Max != 0 && profile.AgeRange.Min > profile.AgeRange.Max {
		return nil, fmt.Errorf("%w: ageRange min exceeds max", ErrInvalidInput)
	}
	for game, level := range profile.SkillLevels {
		if _, ok := models.SkillRank[level]; !ok {
			return nil, fmt.Errorf("%w: unknown skill level %q for game %q", ErrInvalidInput, level, game)
		}
	}

	now := ups.Clock.Now().UTC().Format(time.RFC3339)
	profile.IsActive = true
	profile.CreatedAt = now
	profile.UpdatedAt = now
	profile.LastActive = now

	if err := ups.Dynamo.PutItem(ctx, models.MatchingProfilesTable, profile); err != nil {
		return nil, fmt.Errorf("failed to create matching profile: %w", err)
	}

	log.Printf("✅ Created matching profile for %s", profile.UserID)
	return &profile, nil
}

// UpdateMatchingProfile applies a partial update to an existing profile. On a
// store failure the write is queued for retry and the returned retryID lets
// the caller correlate it later.
func (ups *UserProfileService) UpdateMatchingProfile(ctx context.Context, userID string, updates map[string]interface{}) (retryID string, err error) {
	if userID == "" {
		return "", fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if len(updates) == 0 {
		return "", fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	if _, err := ups.Dynamo.GetItem(ctx, models.MatchingProfilesTable, key); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return "", fmt.Errorf("%w: no matching profile for user %s", ErrNotFound, userID)
		}
		return "", fmt.Errorf("failed to load matching profile for %s: %w", userID, err)
	}

	// The id and creation timestamp are immutable; every write refreshes
	// updatedAt and lastActive.
	delete(updates, "userId")
	delete(updates, "createdAt")
	now := ups.Clock.Now().UTC().Format(time.RFC3339)
	updates["updatedAt"] = now
	updates["lastActive"] = now

	expr, values, names, err := buildUpdateExpression(updates)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, err := ups.Dynamo.UpdateItem(ctx, models.MatchingProfilesTable, expr, key, values, names); err != nil {
		payload, marshalErr := json.Marshal(ProfileUpdatePayload{UserID: userID, Updates: updates})
		if marshalErr != nil {
			return "", fmt.Errorf("failed to update matching profile: %w", err)
		}
		retryID, enqueueErr := ups.Queue.Enqueue(ctx, models.OpTypeProfileUpdate, payload, userID, models.PriorityMedium)
		if enqueueErr != nil {
			log.Printf("❌ Could not queue profile update for %s: %v", userID, enqueueErr)
			return "", fmt.Errorf("failed to update matching profile: %w", err)
		}
		log.Printf("🔄 Profile update for %s queued as %s after store failure", userID, retryID)
		return retryID, fmt.Errorf("failed to update matching profile, queued for retry: %w", err)
	}

	return "", nil
}

// buildUpdateExpression turns a partial-field map into a SET expression with
// marshalled values. Keys are sorted so the expression is deterministic.
func buildUpdateExpression(updates map[string]interface{}) (string, map[string]types.AttributeValue, map[string]string, error) {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	expr := "SET"
	values := make(map[string]types.AttributeValue, len(updates))
	names := make(map[string]string, len(updates))
	for i, k := range keys {
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("cannot marshal field %q: %w", k, err)
		}
		if i > 0 {
			expr += ","
		}
		expr += " #" + k + " = :" + k
		values[":"+k] = av
		names["#"+k] = k
	}
	return expr, values, names, nil
}
