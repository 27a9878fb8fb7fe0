package models

// Skill levels, ordered beginner < intermediate < advanced < pro. SkillRank
// gives the ordinal used for skill-distance comparisons.
const (
	SkillBeginner     = "beginner"
	SkillIntermediate = "intermediate"
	SkillAdvanced     = "advanced"
	SkillPro          = "pro"
)

var SkillRank = map[string]int{
	SkillBeginner:     0,
	SkillIntermediate: 1,
	SkillAdvanced:     2,
	SkillPro:          3,
}

// LookingFor values
const (
	LookingForCasual      = "casual"
	LookingForCompetitive = "competitive"
	LookingForRanked      = "ranked"
	LookingForTournaments = "tournaments"
	LookingForAny         = "any"
)

// Match request types
const (
	MatchTypeDuo        = "duo"
	MatchTypeTeam       = "team"
	MatchTypeTournament = "tournament"
)

// Match request statuses. Pending is the only non-terminal status.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusDeclined = "declined"
	RequestStatusExpired  = "expired"
)

// ValidMatchType reports whether t is a supported request type.
func ValidMatchType(t string) bool {
	return t == MatchTypeDuo || t == MatchTypeTeam || t == MatchTypeTournament
}
