package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"squadlink_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newProfileService(fake *fakeDynamo) (*UserProfileService, clockwork.FakeClock, *RetryQueueService) {
	clock := clockwork.NewFakeClockAt(testNow)
	queue := NewRetryQueueService(newFakeKV(), clock)
	svc := &UserProfileService{
		Dynamo: &DynamoService{Client: fake},
		Queue:  queue,
		Clock:  clock,
	}
	return svc, clock, queue
}

func (f *fakeDynamo) storedProfile(t *testing.T, userID string) models.MatchingProfile {
	t.Helper()
	f.mu.Lock()
	item, ok := f.tables[models.MatchingProfilesTable][userID]
	f.mu.Unlock()
	require.True(t, ok, "profile %s not stored", userID)

	var profile models.MatchingProfile
	require.NoError(t, attributevalue.UnmarshalMap(item, &profile))
	return profile
}

func TestCreateMatchingProfile_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newProfileService(newFakeDynamo())

	cases := []struct {
		name    string
		profile models.MatchingProfile
	}{
		{"missing userId", models.MatchingProfile{Username: "alice"}},
		{"missing username", models.MatchingProfile{UserID: "u1"}},
		{
			"inverted age range",
			models.MatchingProfile{UserID: "u1", Username: "alice", AgeRange: models.AgeRange{Min: 30, Max: 20}},
		},
		{
			"unknown skill level",
			models.MatchingProfile{UserID: "u1", Username: "alice", SkillLevels: map[string]string{"PUBG": "godlike"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMatchingProfile(context.Background(), tc.profile)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateMatchingProfile_StartsActiveWithTimestamps(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	svc, _, _ := newProfileService(fake)

	created, err := svc.CreateMatchingProfile(context.Background(), models.MatchingProfile{
		UserID:         "u1",
		Username:       "alice",
		Games:          []string{"PUBG", "Valorant"},
		PreferredRoles: map[string][]string{"Valorant": {"duelist", "controller"}},
		Availability:   models.Availability{Weekends: true, Timezone: "Europe/Berlin"},
		Location:       models.Location{Country: "Germany", City: "Berlin"},
		IsActive:       false, // ignored: new profiles always start active
	})
	require.NoError(t, err)
	require.True(t, created.IsActive)

	now := testNow.UTC().Format(time.RFC3339)
	stored := fake.storedProfile(t, "u1")
	require.True(t, stored.IsActive)
	require.Equal(t, now, stored.CreatedAt)
	require.Equal(t, now, stored.UpdatedAt)
	require.Equal(t, now, stored.LastActive)
	require.Equal(t, []string{"duelist", "controller"}, stored.PreferredRoles["Valorant"])
	require.Equal(t, "Europe/Berlin", stored.Availability.Timezone)
	require.Equal(t, "Berlin", stored.Location.City)
}

func TestUpdateMatchingProfile_MissingProfile(t *testing.T) {
	t.Parallel()

	svc, _, _ := newProfileService(newFakeDynamo())
	_, err := svc.UpdateMatchingProfile(context.Background(), "ghost", map[string]interface{}{"bio": "hi"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateMatchingProfile_AppliesFieldsAndRefreshesTimestamps(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	svc, clock, _ := newProfileService(fake)

	_, err := svc.CreateMatchingProfile(context.Background(), models.MatchingProfile{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	clock.Advance(time.Hour)

	retryID, err := svc.UpdateMatchingProfile(context.Background(), "u1", map[string]interface{}{
		"bio":       "looking for a duo partner",
		"userId":    "evil", // immutable, silently dropped
		"createdAt": "1970-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Empty(t, retryID)

	stored := fake.storedProfile(t, "u1")
	require.Equal(t, "u1", stored.UserID)
	require.Equal(t, "looking for a duo partner", stored.Bio)
	require.Equal(t, testNow.UTC().Format(time.RFC3339), stored.CreatedAt)

	later := clock.Now().UTC().Format(time.RFC3339)
	require.Equal(t, later, stored.UpdatedAt)
	require.Equal(t, later, stored.LastActive)
}

func TestUpdateMatchingProfile_EmptyUpdateRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newProfileService(newFakeDynamo())
	_, err := svc.UpdateMatchingProfile(context.Background(), "u1", map[string]interface{}{})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateMatchingProfile_StoreFailureFallsThroughToQueue(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	svc, _, queue := newProfileService(fake)

	_, err := svc.CreateMatchingProfile(context.Background(), models.MatchingProfile{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	fake.failUpd[models.MatchingProfilesTable] = errors.New("throughput exceeded")

	retryID, err := svc.UpdateMatchingProfile(context.Background(), "u1", map[string]interface{}{"bio": "hi"})
	require.Error(t, err)
	require.NotEmpty(t, retryID)

	op, ok := queue.GetOperation(retryID)
	require.True(t, ok)
	require.Equal(t, models.OpTypeProfileUpdate, op.Type)
	require.Equal(t, models.PriorityMedium, op.Priority)
	require.Equal(t, "u1", op.OwnerID)
}

func TestRetryExecutors_ReplayQueuedProfileUpdate(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	svc, _, queue := newProfileService(fake)
	RegisterDefaultExecutors(queue, svc.Dynamo, nil)

	_, err := svc.CreateMatchingProfile(context.Background(), models.MatchingProfile{UserID: "u1", Username: "alice"})
	require.NoError(t, err)

	fake.failUpd[models.MatchingProfilesTable] = errors.New("throughput exceeded")
	retryID, err := svc.UpdateMatchingProfile(context.Background(), "u1", map[string]interface{}{"bio": "hi"})
	require.Error(t, err)
	require.NotEmpty(t, retryID)

	// Store recovers; the next tick replays the queued write.
	delete(fake.failUpd, models.MatchingProfilesTable)
	queue.ProcessQueue(context.Background())

	op, ok := queue.GetOperation(retryID)
	require.True(t, ok)
	require.Equal(t, models.OpStatusCompleted, op.Status)
	require.Equal(t, "hi", fake.storedProfile(t, "u1").Bio)
}
