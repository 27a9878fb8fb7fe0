package models

// Post is a feed post written through the retry queue's post_create executor.
type Post struct {
	PostID    string   `dynamodbav:"postId" json:"postId"`
	AuthorID  string   `dynamodbav:"authorId" json:"authorId"`
	Content   string   `dynamodbav:"content" json:"content"`
	MediaURLs []string `dynamodbav:"mediaUrls,omitempty" json:"mediaUrls,omitempty"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
}

// ChatMessage is a chat message written through the message_send executor.
type ChatMessage struct {
	MessageID string `dynamodbav:"messageId" json:"messageId"`
	ChannelID string `dynamodbav:"channelId" json:"channelId"`
	SenderID  string `dynamodbav:"senderId" json:"senderId"`
	Content   string `dynamodbav:"content" json:"content"`
	SentAt    string `dynamodbav:"sentAt" json:"sentAt"`
}

// TournamentRegistration is written through the tournament_register executor.
type TournamentRegistration struct {
	TournamentID string `dynamodbav:"tournamentId" json:"tournamentId"`
	UserID       string `dynamodbav:"userId" json:"userId"`
	TeamName     string `dynamodbav:"teamName,omitempty" json:"teamName,omitempty"`
	RegisteredAt string `dynamodbav:"registeredAt" json:"registeredAt"`
}

// Table names for the sibling-feature writes covered by the retry queue.
const (
	PostsTable                   = "Posts"
	MessagesTable                = "Messages"
	TournamentRegistrationsTable = "TournamentRegistrations"
)
