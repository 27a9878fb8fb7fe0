package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"squadlink_server/models"
	"squadlink_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jonboulle/clockwork"
)

const (
	// maxSearchResults caps every search variant's output.
	maxSearchResults = 50
	// minCompatibilityScore is the minimum score a candidate must reach to be
	// returned at all.
	minCompatibilityScore = 50
	// recentActivityRankBonus is added to the sort key (not the score) for
	// candidates active in the last week.
	recentActivityRankBonus = 5
	// defaultRadiusKm is the geo search radius when the caller passes none.
	defaultRadiusKm = 100.0
	// onlineWindow is how fresh lastActive must be for the onlineOnly filter.
	onlineWindow = 15 * time.Minute
)

// MatchService runs the candidate, geo and smart-recommendation searches.
// All searches are read-only and side-effect free.
type MatchService struct {
	Dynamo        *DynamoService
	Compatibility *CompatibilityService
	Clock         clockwork.Clock
}

// GetProfile retrieves a matchmaking profile by user ID.
func (ms *MatchService) GetProfile(ctx context.Context, userID string) (*models.MatchingProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := ms.Dynamo.GetItem(ctx, models.MatchingProfilesTable, key)
	if err != nil {
		return nil, err
	}

	var profile models.MatchingProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &profile, nil
}

// requireActiveProfile loads the requester's profile and rejects searches for
// users without an active one. Store read failures pass through untouched so
// they do not masquerade as a missing profile.
func (ms *MatchService) requireActiveProfile(ctx context.Context, userID string) (*models.MatchingProfile, error) {
	profile, err := ms.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: no matching profile for user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	if !profile.IsActive {
		return nil, fmt.Errorf("%w: matching profile for user %s is inactive", ErrNotFound, userID)
	}
	return profile, nil
}

// FindMatches returns ranked candidates for the requester, narrowed by the
// given filters.
func (ms *MatchService) FindMatches(ctx context.Context, userID string, filters models.MatchFilters) ([]models.MatchResult, error) {
	requester, err := ms.requireActiveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := ms.Clock.Now()

	// Base candidate pool: active profiles excluding the requester, narrowed
	// by game / lookingFor / recent activity at the attribute level.
	var candidates []models.MatchingProfile
	err = ms.Dynamo.ScanWithFilter(ctx, models.MatchingProfilesTable, func(item map[string]types.AttributeValue) bool {
		if !utils.ExtractBool(item, "isActive") {
			return false
		}
		if utils.ExtractString(item, "userId") == userID {
			return false
		}
		if filters.Game != "" && !containsString(utils.ExtractStringList(item, "games"), filters.Game) {
			return false
		}
		if filters.LookingFor != "" && utils.ExtractString(item, "lookingFor") != filters.LookingFor {
			return false
		}
		if filters.RecentlyActive && !isRecentlyActive(utils.ExtractString(item, "lastActive"), now) {
			return false
		}
		if filters.OnlineOnly && !activeWithin(utils.ExtractString(item, "lastActive"), now, onlineWindow) {
			return false
		}
		return true
	}, &candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate profiles: %w", err)
	}

	var results []models.MatchResult
	for i := range candidates {
		candidate := &candidates[i]
		if !ms.passesProfileFilters(requester, candidate, filters) {
			continue
		}

		score, reasons, commonGames := ms.Compatibility.CalculateCompatibility(requester, candidate)
		if score < minCompatibilityScore {
			continue
		}

		results = append(results, models.MatchResult{
			Profile:       *candidate,
			Compatibility: score,
			CommonGames:   commonGames,
			Reasons:       reasons,
		})
	}

	ms.rankResults(results)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	log.Printf("✅ findMatches for %s: %d candidates scanned, %d returned", userID, len(candidates), len(results))
	return results, nil
}

// FindMatchesByLocation returns ranked candidates within radiusKm of the given
// coordinate. Candidates beyond the radius are excluded outright.
func (ms *MatchService) FindMatchesByLocation(ctx context.Context, userID string, lat, lng, radiusKm float64) ([]models.MatchResult, error) {
	requester, err := ms.requireActiveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}

	var candidates []models.MatchingProfile
	err = ms.Dynamo.ScanWithFilter(ctx, models.MatchingProfilesTable, func(item map[string]types.AttributeValue) bool {
		return utils.ExtractBool(item, "isActive") && utils.ExtractString(item, "userId") != userID
	}, &candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate profiles: %w", err)
	}

	var results []models.MatchResult
	for i := range candidates {
		candidate := &candidates[i]
		if !candidate.HasCoordinate() {
			continue
		}

		distance := utils.CalculateDistance(lat, lng, *candidate.Location.Latitude, *candidate.Location.Longitude)
		if distance > radiusKm {
			continue
		}

		score, reasons, commonGames := ms.Compatibility.CalculateCompatibility(requester, candidate)

		proximityBonus := 10 - (distance/radiusKm)*10
		if proximityBonus < 0 {
			proximityBonus = 0
		}
		boosted := int(math.Round(float64(score) + proximityBonus))
		if boosted > 100 {
			boosted = 100
		}
		reasons = append(reasons, fmt.Sprintf("%.1f km away", distance))

		if boosted < minCompatibilityScore {
			continue
		}

		results = append(results, models.MatchResult{
			Profile:       *candidate,
			Compatibility: boosted,
			CommonGames:   commonGames,
			Reasons:       reasons,
			DistanceKm:    distance,
		})
	}

	ms.rankResults(results)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	log.Printf("✅ findMatchesByLocation for %s: %d within %.0f km", userID, len(results), radiusKm)
	return results, nil
}

const (
	recommendationHistorySize = 10
	recommendationTopGames    = 3
	recommendationPerGame     = 5
)

// GetSmartRecommendations biases the search toward the games of the
// requester's recently accepted match requests.
func (ms *MatchService) GetSmartRecommendations(ctx context.Context, userID string) ([]models.MatchResult, error) {
	if _, err := ms.requireActiveProfile(ctx, userID); err != nil {
		return nil, err
	}

	// Most recent accepted requests where the user was the recipient.
	var accepted []models.MatchRequest
	err := ms.Dynamo.ScanWithFilter(ctx, models.MatchRequestsTable, func(item map[string]types.AttributeValue) bool {
		return utils.ExtractString(item, "toUserId") == userID &&
			utils.ExtractString(item, "status") == models.RequestStatusAccepted
	}, &accepted)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accepted requests: %w", err)
	}

	// RFC3339 sorts lexicographically.
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].CreatedAt > accepted[j].CreatedAt })
	if len(accepted) > recommendationHistorySize {
		accepted = accepted[:recommendationHistorySize]
	}

	if len(accepted) == 0 {
		return ms.FindMatches(ctx, userID, models.MatchFilters{})
	}

	// Tally games by frequency, keep the top three.
	counts := map[string]int{}
	var order []string
	for _, req := range accepted {
		if counts[req.Game] == 0 {
			order = append(order, req.Game)
		}
		counts[req.Game]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > recommendationTopGames {
		order = order[:recommendationTopGames]
	}

	seen := map[string]struct{}{}
	var merged []models.MatchResult
	for _, game := range order {
		perGame, err := ms.FindMatches(ctx, userID, models.MatchFilters{Game: game, RecentlyActive: true})
		if err != nil {
			return nil, err
		}
		if len(perGame) > recommendationPerGame {
			perGame = perGame[:recommendationPerGame]
		}
		for _, result := range perGame {
			if _, dup := seen[result.Profile.UserID]; dup {
				continue
			}
			seen[result.Profile.UserID] = struct{}{}
			merged = append(merged, result)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Compatibility > merged[j].Compatibility })
	if len(merged) > maxSearchResults {
		merged = merged[:maxSearchResults]
	}
	return merged, nil
}

// passesProfileFilters applies the in-memory filters that need the full
// unmarshalled profiles: languages, mutual age overlap, shared communication
// channel, team size and skill level.
func (ms *MatchService) passesProfileFilters(requester, candidate *models.MatchingProfile, filters models.MatchFilters) bool {
	if len(filters.Languages) > 0 && len(intersect(filters.Languages, candidate.Languages)) == 0 {
		return false
	}

	if filters.Location != "" && !matchesLocation(filters.Location, candidate.Location) {
		return false
	}

	// Both age ranges must overlap each other, and the filter range when set.
	if !ageRangesOverlap(requester.AgeRange, candidate.AgeRange) {
		return false
	}
	if filters.AgeRange != nil {
		if !ageRangesOverlap(*filters.AgeRange, candidate.AgeRange) || !ageRangesOverlap(*filters.AgeRange, requester.AgeRange) {
			return false
		}
	}

	if filters.CommunicationPrefs != nil && !sharesChannel(*filters.CommunicationPrefs, candidate.CommunicationPrefs) {
		return false
	}

	if filters.TeamSize > 0 {
		diff := candidate.TeamSize - filters.TeamSize
		if diff < -1 || diff > 1 {
			return false
		}
	}

	if filters.SkillLevel != "" {
		if filters.Game != "" {
			if candidate.SkillLevels[filters.Game] != filters.SkillLevel {
				return false
			}
		} else if !hasSkillLevel(candidate.SkillLevels, filters.SkillLevel) {
			return false
		}
	}

	return true
}

// rankResults sorts descending by score plus a small bonus for recently active
// candidates.
func (ms *MatchService) rankResults(results []models.MatchResult) {
	now := ms.Clock.Now()
	rank := func(r models.MatchResult) int {
		score := r.Compatibility
		if isRecentlyActive(r.Profile.LastActive, now) {
			score += recentActivityRankBonus
		}
		return score
	}
	sort.SliceStable(results, func(i, j int) bool { return rank(results[i]) > rank(results[j]) })
}

// ageRangesOverlap treats a zero-valued range as unset.
func ageRangesOverlap(a, b models.AgeRange) bool {
	if a.Max == 0 || b.Max == 0 {
		return true
	}
	return a.Min <= b.Max && b.Min <= a.Max
}

func sharesChannel(a, b models.CommunicationPrefs) bool {
	return (a.VoiceChat && b.VoiceChat) ||
		(a.Discord && b.Discord) ||
		(a.InGameChat && b.InGameChat) ||
		(a.TextOnly && b.TextOnly)
}

// matchesLocation compares the filter value against the candidate's city and
// country.
func matchesLocation(location string, candidate models.Location) bool {
	return strings.EqualFold(location, candidate.City) || strings.EqualFold(location, candidate.Country)
}

func hasSkillLevel(levels map[string]string, level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
