package models

// MatchRequest is one proposed pairing between two users. Created by the
// requester; mutated only by the recipient (accept/decline) or by the expiry
// sweep. Never hard-deleted.
type MatchRequest struct {
	RequestID    string `dynamodbav:"requestId" json:"requestId"`
	FromUserID   string `dynamodbav:"fromUserId" json:"fromUserId"`
	ToUserID     string `dynamodbav:"toUserId" json:"toUserId"`
	Game         string `dynamodbav:"game" json:"game"`
	Message      string `dynamodbav:"message,omitempty" json:"message,omitempty"`
	MatchType    string `dynamodbav:"matchType" json:"matchType"` // duo, team, tournament
	Status       string `dynamodbav:"status" json:"status"`       // pending, accepted, declined, expired
	ScheduledFor string `dynamodbav:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
	ExpiresAt    string `dynamodbav:"expiresAt" json:"expiresAt"`
	RespondedAt  string `dynamodbav:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// MatchRequestsTable is the DynamoDB table name for match requests
const MatchRequestsTable = "MatchRequests"

// MaxRequestMessageLength caps the optional note on a match request.
const MaxRequestMessageLength = 500
