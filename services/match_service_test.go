package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"squadlink_server/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func newMatchService(fake *fakeDynamo) *MatchService {
	clock := clockwork.NewFakeClockAt(testNow)
	return &MatchService{
		Dynamo:        &DynamoService{Client: fake},
		Compatibility: &CompatibilityService{Clock: clock},
		Clock:         clock,
	}
}

func f64(v float64) *float64 { return &v }

func locatedProfile(userID string, lat, lng float64) models.MatchingProfile {
	p := rankedDuoProfile(userID)
	p.Location = models.Location{Latitude: f64(lat), Longitude: f64(lng)}
	return p
}

func TestFindMatches_RequesterWithoutProfile(t *testing.T) {
	t.Parallel()

	ms := newMatchService(newFakeDynamo())

	_, err := ms.FindMatches(context.Background(), "ghost", models.MatchFilters{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindMatches_InactiveRequesterRejected(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	requester := rankedDuoProfile("me")
	requester.IsActive = false
	fake.putProfile(t, requester)
	ms := newMatchService(fake)

	_, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFindMatches_ExcludesSelfInactiveAndLowScores(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))
	fake.putProfile(t, rankedDuoProfile("good"))

	inactive := rankedDuoProfile("inactive")
	inactive.IsActive = false
	fake.putProfile(t, inactive)

	stranger := activeProfile("stranger")
	stranger.Games = []string{"Tetris"}
	fake.putProfile(t, stranger)

	ms := newMatchService(fake)
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{})
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "good", results[0].Profile.UserID)
	require.GreaterOrEqual(t, results[0].Compatibility, 50)
	require.NotEmpty(t, results[0].Reasons)
}

func TestFindMatches_CapsResults(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))
	for i := 0; i < 60; i++ {
		fake.putProfile(t, rankedDuoProfile(fmt.Sprintf("cand-%02d", i)))
	}

	ms := newMatchService(fake)
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{})
	require.NoError(t, err)
	require.Len(t, results, maxSearchResults)
}

func TestFindMatches_GameAndLookingForFilters(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	casual := rankedDuoProfile("casual")
	casual.LookingFor = models.LookingForCasual
	fake.putProfile(t, casual)
	fake.putProfile(t, rankedDuoProfile("ranked"))

	ms := newMatchService(fake)
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{
		Game:       "PUBG",
		LookingFor: models.LookingForRanked,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "ranked", results[0].Profile.UserID)

	results, err = ms.FindMatches(context.Background(), "me", models.MatchFilters{Game: "Fortnite"})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestFindMatches_ProfileLevelFilters(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	requester := rankedDuoProfile("me")
	requester.AgeRange = models.AgeRange{Min: 18, Max: 25}
	fake.putProfile(t, requester)

	keep := rankedDuoProfile("keep")
	keep.AgeRange = models.AgeRange{Min: 22, Max: 30}
	keep.TeamSize = 3
	fake.putProfile(t, keep)

	tooOld := rankedDuoProfile("too-old")
	tooOld.AgeRange = models.AgeRange{Min: 30, Max: 40}
	fake.putProfile(t, tooOld)

	wrongLang := rankedDuoProfile("wrong-lang")
	wrongLang.AgeRange = models.AgeRange{Min: 20, Max: 26}
	wrongLang.Languages = []string{"fr"}
	fake.putProfile(t, wrongLang)

	bigSquad := rankedDuoProfile("big-squad")
	bigSquad.AgeRange = models.AgeRange{Min: 20, Max: 26}
	bigSquad.TeamSize = 5
	fake.putProfile(t, bigSquad)

	ms := newMatchService(fake)
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{
		Languages: []string{"es"},
		TeamSize:  2, // ±1 tolerance: 3 passes, 5 does not
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "keep", results[0].Profile.UserID)
}

func TestFindMatches_LocationFilter(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	berliner := rankedDuoProfile("berliner")
	berliner.Location = models.Location{Country: "Germany", City: "Berlin"}
	fake.putProfile(t, berliner)

	hamburger := rankedDuoProfile("hamburger")
	hamburger.Location = models.Location{Country: "Germany", City: "Hamburg"}
	fake.putProfile(t, hamburger)

	fake.putProfile(t, rankedDuoProfile("nowhere")) // no location on the profile

	ms := newMatchService(fake)

	// City match, case-insensitive.
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{Location: "berlin"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "berliner", results[0].Profile.UserID)

	// Country match catches both.
	results, err = ms.FindMatches(context.Background(), "me", models.MatchFilters{Location: "Germany"})
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestFindMatches_StoreReadFailureIsNotNotFound(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))
	fake.failGet[models.MatchingProfilesTable] = errors.New("throughput exceeded")

	ms := newMatchService(fake)
	_, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestFindMatches_OnlineOnly(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	online := rankedDuoProfile("online")
	online.LastActive = testNow.Add(-5 * time.Minute).Format(time.RFC3339)
	fake.putProfile(t, online)

	idle := rankedDuoProfile("idle") // lastActive an hour ago
	fake.putProfile(t, idle)

	ms := newMatchService(fake)
	results, err := ms.FindMatches(context.Background(), "me", models.MatchFilters{OnlineOnly: true})
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "online", results[0].Profile.UserID)
}

func TestFindMatchesByLocation_RadiusAndDistance(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	// ~5.6 km, ~94.5 km (inside the default 100 km radius), ~222 km (outside),
	// and one player with no coordinate at all.
	fake.putProfile(t, locatedProfile("near", 0, 0.05))
	fake.putProfile(t, locatedProfile("edge", 0, 0.85))
	fake.putProfile(t, locatedProfile("far", 0, 2.0))
	fake.putProfile(t, rankedDuoProfile("no-location"))

	ms := newMatchService(fake)
	results, err := ms.FindMatchesByLocation(context.Background(), "me", 0, 0, 0)
	require.NoError(t, err)

	require.Len(t, results, 2)
	require.Equal(t, "near", results[0].Profile.UserID)
	require.Equal(t, "edge", results[1].Profile.UserID)

	require.InDelta(t, 5.6, results[0].DistanceKm, 0.1)
	require.InDelta(t, 94.5, results[1].DistanceKm, 0.1)
	require.Contains(t, results[1].Reasons, "94.5 km away")

	// Proximity bonus ranks the closer player higher.
	require.Greater(t, results[0].Compatibility, results[1].Compatibility)
}

func TestFindMatchesByLocation_ThresholdAppliedAfterBonus(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	requester := activeProfile("me")
	requester.Games = []string{"PUBG"}
	requester.Languages = []string{"en"}
	requester.LastActive = testNow.Add(-10 * 24 * time.Hour).Format(time.RFC3339)
	fake.putProfile(t, requester)

	// Base score 45 (one shared game + shared language): only the proximity
	// bonus can push it over the line.
	borderline := func(userID string, lng float64) models.MatchingProfile {
		p := activeProfile(userID)
		p.Games = []string{"PUBG"}
		p.Languages = []string{"en"}
		p.Location = models.Location{Latitude: f64(0), Longitude: f64(lng)}
		return p
	}
	fake.putProfile(t, borderline("close-enough", 0.05)) // bonus ~9.4 → 54
	fake.putProfile(t, borderline("too-far", 0.85))      // bonus ~0.5 → 46

	ms := newMatchService(fake)
	results, err := ms.FindMatchesByLocation(context.Background(), "me", 0, 0, 0)
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "close-enough", results[0].Profile.UserID)
}

func TestFindMatchesByLocation_CustomRadius(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))
	fake.putProfile(t, locatedProfile("city", 0, 0.05))
	fake.putProfile(t, locatedProfile("suburb", 0, 0.3)) // ~33 km

	ms := newMatchService(fake)
	results, err := ms.FindMatchesByLocation(context.Background(), "me", 0, 0, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "city", results[0].Profile.UserID)
}

func TestGetSmartRecommendations_BiasedByAcceptedHistory(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	valorantOnly := rankedDuoProfile("valorant-only")
	valorantOnly.Games = []string{"Valorant"}
	fake.putProfile(t, valorantOnly)

	pubgOnly := rankedDuoProfile("pubg-only")
	pubgOnly.Games = []string{"PUBG"}
	fake.putProfile(t, pubgOnly)

	fake.putProfile(t, rankedDuoProfile("both-games"))

	// Three accepted Valorant invites and one PUBG invite.
	for i, game := range []string{"Valorant", "Valorant", "Valorant", "PUBG"} {
		fake.putRequest(t, models.MatchRequest{
			RequestID:  fmt.Sprintf("req-%d", i),
			FromUserID: fmt.Sprintf("sender-%d", i),
			ToUserID:   "me",
			Game:       game,
			MatchType:  models.MatchTypeDuo,
			Status:     models.RequestStatusAccepted,
			CreatedAt:  testNow.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		})
	}

	ms := newMatchService(fake)
	results, err := ms.GetSmartRecommendations(context.Background(), "me")
	require.NoError(t, err)

	require.Len(t, results, 3)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.Profile.UserID)
	}
	require.ElementsMatch(t, []string{"valorant-only", "pubg-only", "both-games"}, ids)

	// Sorted by compatibility; the player sharing both games wins.
	require.Equal(t, "both-games", ids[0])
}

func TestGetSmartRecommendations_FallbackWithoutHistory(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))
	fake.putProfile(t, rankedDuoProfile("cand"))

	ms := newMatchService(fake)
	results, err := ms.GetSmartRecommendations(context.Background(), "me")
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Equal(t, "cand", results[0].Profile.UserID)
}

func TestGetSmartRecommendations_DeclinedHistoryIgnored(t *testing.T) {
	t.Parallel()

	fake := newFakeDynamo()
	fake.putProfile(t, rankedDuoProfile("me"))

	tetris := rankedDuoProfile("tetris-fan")
	tetris.Games = []string{"Tetris"}
	fake.putProfile(t, tetris)
	fake.putProfile(t, rankedDuoProfile("cand"))

	fake.putRequest(t, models.MatchRequest{
		RequestID:  "req-declined",
		FromUserID: "tetris-fan",
		ToUserID:   "me",
		Game:       "Tetris",
		MatchType:  models.MatchTypeDuo,
		Status:     models.RequestStatusDeclined,
		CreatedAt:  testNow.Add(-time.Hour).Format(time.RFC3339),
	})

	ms := newMatchService(fake)
	results, err := ms.GetSmartRecommendations(context.Background(), "me")
	require.NoError(t, err)

	// No accepted history, so this falls back to the plain search.
	require.Len(t, results, 1)
	require.Equal(t, "cand", results[0].Profile.UserID)
}
