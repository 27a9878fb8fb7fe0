package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"squadlink_server/models"
	"squadlink_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// requestTTL is how long a request stays pending before the expiry sweep
// marks it expired.
const requestTTL = 24 * time.Hour

// Notification kinds emitted by the request lifecycle.
const (
	NotifyRequestReceived = "match_request_received"
	NotifyRequestAccepted = "match_request_accepted"
	NotifyRequestDeclined = "match_request_declined"
	NotifyRequestExpired  = "match_request_expired"
)

// MatchRequestService owns the match request lifecycle: pending →
// accepted/declined (recipient) or pending → expired (sweep). All three end
// states are terminal; requests are never hard-deleted. Store failures on
// create/respond fall through to the retry queue with high priority.
type MatchRequestService struct {
	Dynamo   *DynamoService
	Queue    *RetryQueueService
	Notifier *NotificationService
	Clock    clockwork.Clock
}

// RespondPayload is the replayable form of a respond write. FromUserID rides
// along so the replay can notify the sender without another read.
type RespondPayload struct {
	RequestID   string `json:"requestId"`
	FromUserID  string `json:"fromUserId"`
	Status      string `json:"status"`
	RespondedAt string `json:"respondedAt"`
}

// SendMatchRequest validates and persists a new pending request. On a store
// failure the write is queued and the retryID returned alongside the error.
func (mrs *MatchRequestService) SendMatchRequest(ctx context.Context, request models.MatchRequest) (requestID, retryID string, err error) {
	if request.FromUserID == "" || request.ToUserID == "" {
		return "", "", fmt.Errorf("%w: fromUserId and toUserId are required", ErrInvalidInput)
	}
	if request.FromUserID == request.ToUserID {
		return "", "", fmt.Errorf("%w: cannot send a match request to yourself", ErrInvalidInput)
	}
	if request.Game == "" {
		return "", "", fmt.Errorf("%w: game is required", ErrInvalidInput)
	}
	if len(request.Message) > models.MaxRequestMessageLength {
		return "", "", fmt.Errorf("%w: message exceeds %d characters", ErrInvalidInput, models.MaxRequestMessageLength)
	}
	if !models.ValidMatchType(request.MatchType) {
		return "", "", fmt.Errorf("%w: matchType must be duo, team or tournament", ErrInvalidInput)
	}

	now := mrs.Clock.Now().UTC()
	request.RequestID = uuid.NewString()
	request.Status = models.RequestStatusPending
	request.CreatedAt = now.Format(time.RFC3339)
	request.ExpiresAt = now.Add(requestTTL).Format(time.RFC3339)
	request.RespondedAt = ""

	if err := mrs.Dynamo.PutItem(ctx, models.MatchRequestsTable, request); err != nil {
		payload, marshalErr := json.Marshal(request)
		if marshalErr != nil {
			return "", "", fmt.Errorf("failed to create match request: %w", err)
		}
		retryID, enqueueErr := mrs.Queue.Enqueue(ctx, models.OpTypeMatchRequestCreate, payload, request.FromUserID, models.PriorityHigh)
		if enqueueErr != nil {
			log.Printf("❌ Could not queue match request from %s: %v", request.FromUserID, enqueueErr)
			return "", "", fmt.Errorf("failed to create match request: %w", err)
		}
		log.Printf("🔄 Match request from %s queued as %s after store failure", request.FromUserID, retryID)
		return "", retryID, fmt.Errorf("failed to create match request, queued for retry: %w", err)
	}

	mrs.notify(request.ToUserID, NotifyRequestReceived, request)
	log.Printf("✅ Match request %s sent from %s to %s", request.RequestID, request.FromUserID, request.ToUserID)
	return request.RequestID, "", nil
}

// RespondToMatchRequest records the recipient's accept/decline. The request
// must still be pending: terminal states never transition again.
func (mrs *MatchRequestService) RespondToMatchRequest(ctx context.Context, requestID, userID string, accepted bool) (retryID string, err error) {
	request, err := mrs.GetMatchRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if request.ToUserID != userID {
		return "", fmt.Errorf("%w: only the recipient can respond to request %s", ErrUnauthorized, requestID)
	}
	if request.Status != models.RequestStatusPending {
		return "", fmt.Errorf("%w: request %s is %s", ErrRequestNotPending, requestID, request.Status)
	}

	status := models.RequestStatusDeclined
	kind := NotifyRequestDeclined
	if accepted {
		status = models.RequestStatusAccepted
		kind = NotifyRequestAccepted
	}
	respondedAt := mrs.Clock.Now().UTC().Format(time.RFC3339)

	if err := mrs.writeStatus(ctx, requestID, status, respondedAt); err != nil {
		payload, marshalErr := json.Marshal(RespondPayload{
			RequestID:   requestID,
			FromUserID:  request.FromUserID,
			Status:      status,
			RespondedAt: respondedAt,
		})
		if marshalErr != nil {
			return "", fmt.Errorf("failed to respond to match request: %w", err)
		}
		retryID, enqueueErr := mrs.Queue.Enqueue(ctx, models.OpTypeMatchRequestRespond, payload, userID, models.PriorityHigh)
		if enqueueErr != nil {
			log.Printf("❌ Could not queue response to request %s: %v", requestID, enqueueErr)
			return "", fmt.Errorf("failed to respond to match request: %w", err)
		}
		log.Printf("🔄 Response to request %s queued as %s after store failure", requestID, retryID)
		return retryID, fmt.Errorf("failed to respond to match request, queued for retry: %w", err)
	}

	mrs.notify(request.FromUserID, kind, map[string]string{"requestId": requestID, "status": status})
	log.Printf("✅ Match request %s %s by %s", requestID, status, userID)
	return "", nil
}

// GetMatchRequest retrieves a match request by id.
func (mrs *MatchRequestService) GetMatchRequest(ctx context.Context, requestID string) (*models.MatchRequest, error) {
	key := map[string]types.AttributeValue{
		"requestId": &types.AttributeValueMemberS{Value: requestID},
	}
	item, err := mrs.Dynamo.GetItem(ctx, models.MatchRequestsTable, key)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: match request %s", ErrNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to load match request %s: %w", requestID, err)
	}

	var request models.MatchRequest
	if err := attributevalue.UnmarshalMap(item, &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match request: %w", err)
	}
	return &request, nil
}

// GetIncomingRequests returns the pending requests addressed to a user.
func (mrs *MatchRequestService) GetIncomingRequests(ctx context.Context, userID string) ([]models.MatchRequest, error) {
	var requests []models.MatchRequest
	err := mrs.Dynamo.ScanWithFilter(ctx, models.MatchRequestsTable, func(item map[string]types.AttributeValue) bool {
		return utils.ExtractString(item, "toUserId") == userID &&
			utils.ExtractString(item, "status") == models.RequestStatusPending
	}, &requests)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incoming requests: %w", err)
	}
	return requests, nil
}

// ExpireStaleRequests marks pending requests past their expiresAt as expired.
// Run periodically by the scheduler; a soft transition, never a deletion.
func (mrs *MatchRequestService) ExpireStaleRequests(ctx context.Context) (int, error) {
	now := mrs.Clock.Now().UTC().Format(time.RFC3339)

	var stale []models.MatchRequest
	err := mrs.Dynamo.ScanWithFilter(ctx, models.MatchRequestsTable, func(item map[string]types.AttributeValue) bool {
		// RFC3339 sorts lexicographically.
		return utils.ExtractString(item, "status") == models.RequestStatusPending &&
			utils.ExtractString(item, "expiresAt") < now
	}, &stale)
	if err != nil {
		return 0, fmt.Errorf("failed to scan for stale requests: %w", err)
	}

	expired := 0
	for _, request := range stale {
		if err := mrs.writeStatus(ctx, request.RequestID, models.RequestStatusExpired, ""); err != nil {
			log.Printf("❌ Failed to expire request %s: %v", request.RequestID, err)
			continue
		}
		mrs.notify(request.FromUserID, NotifyRequestExpired, map[string]string{"requestId": request.RequestID})
		expired++
	}
	if expired > 0 {
		log.Printf("🧹 Expired %d stale match requests", expired)
	}
	return expired, nil
}

func (mrs *MatchRequestService) writeStatus(ctx context.Context, requestID, status, respondedAt string) error {
	key := map[string]types.AttributeValue{
		"requestId": &types.AttributeValueMemberS{Value: requestID},
	}
	expr := "SET #status = :status"
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: status},
	}
	names := map[string]string{"#status": "status"}
	if respondedAt != "" {
		expr += ", #respondedAt = :respondedAt"
		values[":respondedAt"] = &types.AttributeValueMemberS{Value: respondedAt}
		names["#respondedAt"] = "respondedAt"
	}

	_, err := mrs.Dynamo.UpdateItem(ctx, models.MatchRequestsTable, expr, key, values, names)
	return err
}

func (mrs *MatchRequestService) notify(userID, kind string, payload interface{}) {
	if mrs.Notifier == nil {
		return
	}
	mrs.Notifier.Send(userID, kind, payload)
}
