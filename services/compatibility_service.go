package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"squadlink_server/models"

	"github.com/jonboulle/clockwork"
)

// recentActivityWindow is how recently both players must have been active for
// the recent-activity bonus.
const recentActivityWindow = 7 * 24 * time.Hour

// CompatibilityService scores how well two matchmaking profiles fit together.
// Scoring is read-only and deliberately directional: the common-games
// denominator depends on both list lengths and reasons are phrased about the
// candidate, so score(A,B) may differ from score(B,A).
type CompatibilityService struct {
	Clock clockwork.Clock
}

// CalculateCompatibility returns an integer score in [0,100], human-readable
// reasons, and the list of games both profiles play. profile1 is the
// requester, profile2 the candidate.
func (cs *CompatibilityService) CalculateCompatibility(profile1, profile2 *models.MatchingProfile) (int, []string, []string) {
	var total float64
	var reasons []string

	commonGames := intersect(profile1.Games, profile2.Games)

	// Common games, up to 35 points.
	if len(commonGames) > 0 {
		maxGames := len(profile1.Games)
		if len(profile2.Games) > maxGames {
			maxGames = len(profile2.Games)
		}
		total += 35 * float64(len(commonGames)) / float64(maxGames)
		if len(commonGames) == 1 {
			reasons = append(reasons, fmt.Sprintf("1 common game: %s", commonGames[0]))
		} else {
			reasons = append(reasons, fmt.Sprintf("%d common games: %s", len(commonGames), strings.Join(commonGames, ", ")))
		}
	}

	// Skill similarity across common games, up to 20 points. Only distances
	// of at most 2 skill tiers count.
	var skillSum float64
	var skillCount int
	for _, game := range commonGames {
		level1, ok1 := profile1.SkillLevels[game]
		level2, ok2 := profile2.SkillLevels[game]
		if !ok1 || !ok2 {
			continue
		}
		rank1, ok1 := models.SkillRank[level1]
		rank2, ok2 := models.SkillRank[level2]
		if !ok1 || !ok2 {
			continue
		}
		distance := rank1 - rank2
		if distance < 0 {
			distance = -distance
		}
		if distance <= 2 {
			skillSum += 1 - float64(distance)/3
			skillCount++
		}
	}
	if skillCount > 0 {
		total += 20 * skillSum / float64(skillCount)
		reasons = append(reasons, "Similar skill level in shared games")
	}

	// Availability overlap, up to 15 points.
	availOverlap := availabilityOverlap(profile1.Availability, profile2.Availability)
	if availOverlap > 0 {
		total += 15 * availOverlap
		reasons = append(reasons, "Overlapping availability")
	}

	// Common languages, flat 10 points.
	commonLanguages := intersect(profile1.Languages, profile2.Languages)
	if len(commonLanguages) > 0 {
		total += 10
		reasons = append(reasons, fmt.Sprintf("Also speaks %s", strings.Join(commonLanguages, ", ")))
	}

	// Communication preference overlap: a shared channel on both sides.
	commPoints := 0.0
	if profile1.CommunicationPrefs.VoiceChat && profile2.CommunicationPrefs.VoiceChat {
		commPoints += 3
	}
	if profile1.CommunicationPrefs.Discord && profile2.CommunicationPrefs.Discord {
		commPoints += 3
	}
	if profile1.CommunicationPrefs.InGameChat && profile2.CommunicationPrefs.InGameChat {
		commPoints += 2
	}
	if profile1.CommunicationPrefs.TextOnly && profile2.CommunicationPrefs.TextOnly {
		commPoints += 2
	}
	if commPoints > 0 {
		total += commPoints
		reasons = append(reasons, "Compatible communication preferences")
	}

	// Looking-for match, flat 5 points: the same stated style, or either side
	// open to anything. Two unset values are not a match.
	if profile1.LookingFor == models.LookingForAny ||
		profile2.LookingFor == models.LookingForAny ||
		(profile1.LookingFor != "" && profile1.LookingFor == profile2.LookingFor) {
		total += 5
		switch {
		case profile2.LookingFor == models.LookingForAny || profile2.LookingFor == "":
			reasons = append(reasons, "Open to any play style")
		default:
			reasons = append(reasons, fmt.Sprintf("Also looking for %s", profile2.LookingFor))
		}
	}

	// Recent-activity bonus, flat 5 points when both were active this week.
	now := cs.Clock.Now()
	if isRecentlyActive(profile1.LastActive, now) && isRecentlyActive(profile2.LastActive, now) {
		total += 5
		reasons = append(reasons, "Active in the last week")
	}

	// Exceptional-compatibility multiplier.
	if len(commonGames) >= 3 && len(commonLanguages) >= 2 && availOverlap > 0.8 {
		total *= 1.1
		reasons = append(reasons, "Exceptional compatibility")
	}

	score := int(math.Round(total))
	if score > 100 {
		score = 100
	}

	return score, reasons, commonGames
}

// availabilityOverlap returns a fraction in [0,1]: 0.5 for sharing a weekday
// or weekend habit, plus up to 0.5 proportional to shared time-of-day slots.
func availabilityOverlap(a1, a2 models.Availability) float64 {
	overlap := 0.0
	if (a1.Weekdays && a2.Weekdays) || (a1.Weekends && a2.Weekends) {
		overlap += 0.5
	}

	if len(a1.TimeSlots) > 0 && len(a2.TimeSlots) > 0 {
		common := intersect(a1.TimeSlots, a2.TimeSlots)
		maxSlots := len(a1.TimeSlots)
		if len(a2.TimeSlots) > maxSlots {
			maxSlots = len(a2.TimeSlots)
		}
		overlap += 0.5 * float64(len(common)) / float64(maxSlots)
	}

	if overlap > 1 {
		overlap = 1
	}
	return overlap
}

// isRecentlyActive reports whether the RFC3339 timestamp falls inside the
// recent-activity window.
func isRecentlyActive(lastActive string, now time.Time) bool {
	return activeWithin(lastActive, now, recentActivityWindow)
}

// activeWithin reports whether the RFC3339 timestamp is at most window old.
// Unparseable or empty timestamps count as inactive.
func activeWithin(lastActive string, now time.Time, window time.Duration) bool {
	if lastActive == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, lastActive)
	if err != nil {
		return false
	}
	return now.Sub(t) <= window
}

// intersect returns the elements of a that also appear in b, preserving a's
// order.
func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
