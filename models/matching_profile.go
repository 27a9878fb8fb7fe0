package models

// Location is where a player is. The coordinate fields are pointers so an
// absent coordinate is distinguishable from (0, 0).
type Location struct {
	Country   string   `dynamodbav:"country,omitempty" json:"country,omitempty"`
	City      string   `dynamodbav:"city,omitempty" json:"city,omitempty"`
	Latitude  *float64 `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
}

// Availability describes when a player is usually around.
type Availability struct {
	Weekdays  bool     `dynamodbav:"weekdays" json:"weekdays"`
	Weekends  bool     `dynamodbav:"weekends" json:"weekends"`
	TimeSlots []string `dynamodbav:"timeSlots,omitempty" json:"timeSlots,omitempty"` // morning, afternoon, evening, night
	Timezone  string   `dynamodbav:"timezone,omitempty" json:"timezone,omitempty"`   // IANA name, e.g. Europe/Berlin
}

// AgeRange is the age band a player wants teammates from. A zero Max means the
// range is unset.
type AgeRange struct {
	Min int `dynamodbav:"min" json:"min"`
	Max int `dynamodbav:"max" json:"max"`
}

// CommunicationPrefs flags the channels a player is willing to use.
type CommunicationPrefs struct {
	VoiceChat  bool `dynamodbav:"voiceChat" json:"voiceChat"`
	TextOnly   bool `dynamodbav:"textOnly" json:"textOnly"`
	Discord    bool `dynamodbav:"discord" json:"discord"`
	InGameChat bool `dynamodbav:"inGameChat" json:"inGameChat"`
}

// MatchingProfile is a user's matchmaking profile. Owned and mutated only by
// its user; every search reads these.
type MatchingProfile struct {
	UserID             string              `dynamodbav:"userId" json:"userId"`
	Username           string              `dynamodbav:"username" json:"username"`
	Bio                string              `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Games              []string            `dynamodbav:"games,omitempty" json:"games,omitempty"`
	SkillLevels        map[string]string   `dynamodbav:"skillLevels,omitempty" json:"skillLevels,omitempty"`
	PreferredRoles     map[string][]string `dynamodbav:"preferredRoles,omitempty" json:"preferredRoles,omitempty"` // game → roles, e.g. "Valorant" → ["duelist"]
	Languages          []string            `dynamodbav:"languages,omitempty" json:"languages,omitempty"`
	AgeRange           AgeRange            `dynamodbav:"ageRange" json:"ageRange"`
	Availability       Availability        `dynamodbav:"availability" json:"availability"`
	CommunicationPrefs CommunicationPrefs  `dynamodbav:"communicationPrefs" json:"communicationPrefs"`
	LookingFor         string              `dynamodbav:"lookingFor,omitempty" json:"lookingFor,omitempty"` // casual, competitive, ranked, tournaments, any
	TeamSize           int                 `dynamodbav:"teamSize,omitempty" json:"teamSize,omitempty"`
	Location           Location            `dynamodbav:"location" json:"location"`
	IsActive           bool                `dynamodbav:"isActive" json:"isActive"`
	LastActive         string              `dynamodbav:"lastActive,omitempty" json:"lastActive,omitempty"`
	CreatedAt          string              `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt          string              `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// HasCoordinate reports whether the profile carries a usable location.
func (p *MatchingProfile) HasCoordinate() bool {
	return p.Location.Latitude != nil && p.Location.Longitude != nil
}

// MatchFilters narrows a candidate search. Zero values mean "no filter".
type MatchFilters struct {
	Game               string              `json:"game,omitempty"`
	Languages          []string            `json:"languages,omitempty"`
	SkillLevel         string              `json:"skillLevel,omitempty"`
	LookingFor         string              `json:"lookingFor,omitempty"`
	AgeRange           *AgeRange           `json:"ageRange,omitempty"`
	Location           string              `json:"location,omitempty"` // matches the candidate's city or country
	CommunicationPrefs *CommunicationPrefs `json:"communicationPrefs,omitempty"`
	TeamSize           int                 `json:"teamSize,omitempty"`
	RecentlyActive     bool                `json:"recentlyActive,omitempty"`
	OnlineOnly         bool                `json:"onlineOnly,omitempty"`
}

// MatchingProfilesTable is the DynamoDB table name for matchmaking profiles
const MatchingProfilesTable = "MatchingProfiles"
