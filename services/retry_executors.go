package services

import (
	"context"
	"encoding/json"
	"fmt"

	"squadlink_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileUpdatePayload is the replayable form of a partial profile update.
type ProfileUpdatePayload struct {
	UserID  string                 `json:"userId"`
	Updates map[string]interface{} `json:"updates"`
}

// RegisterDefaultExecutors wires the apply routine for every operation type
// against its backing table. All routines are idempotent: creates carry fixed
// ids, updates set absolute values. A successfully replayed match request
// write emits the same notification the direct path would have; notifier may
// be nil.
func RegisterDefaultExecutors(queue *RetryQueueService, dynamo *DynamoService, notifier *NotificationService) {
	queue.RegisterExecutor(models.OpTypeProfileUpdate, func(ctx context.Context, op *models.RetryOperation) error {
		var payload ProfileUpdatePayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return fmt.Errorf("bad profile_update payload: %w", err)
		}
		expr, values, names, err := buildUpdateExpression(payload.Updates)
		if err != nil {
			return err
		}
		key := map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: payload.UserID},
		}
		_, err = dynamo.UpdateItem(ctx, models.MatchingProfilesTable, expr, key, values, names)
		return err
	})

	queue.RegisterExecutor(models.OpTypePostCreate, func(ctx context.Context, op *models.RetryOperation) error {
		var post models.Post
		if err := json.Unmarshal(op.Payload, &post); err != nil {
			return fmt.Errorf("bad post_create payload: %w", err)
		}
		return dynamo.PutItem(ctx, models.PostsTable, post)
	})

	queue.RegisterExecutor(models.OpTypeMessageSend, func(ctx context.Context, op *models.RetryOperation) error {
		var message models.ChatMessage
		if err := json.Unmarshal(op.Payload, &message); err != nil {
			return fmt.Errorf("bad message_send payload: %w", err)
		}
		return dynamo.PutItem(ctx, models.MessagesTable, message)
	})

	queue.RegisterExecutor(models.OpTypeTournamentRegister, func(ctx context.Context, op *models.RetryOperation) error {
		var registration models.TournamentRegistration
		if err := json.Unmarshal(op.Payload, &registration); err != nil {
			return fmt.Errorf("bad tournament_register payload: %w", err)
		}
		return dynamo.PutItem(ctx, models.TournamentRegistrationsTable, registration)
	})

	queue.RegisterExecutor(models.OpTypeMatchRequestCreate, func(ctx context.Context, op *models.RetryOperation) error {
		var request models.MatchRequest
		if err := json.Unmarshal(op.Payload, &request); err != nil {
			return fmt.Errorf("bad match_request_create payload: %w", err)
		}
		if err := dynamo.PutItem(ctx, models.MatchRequestsTable, request); err != nil {
			return err
		}
		if notifier != nil {
			notifier.Send(request.ToUserID, NotifyRequestReceived, request)
		}
		return nil
	})

	queue.RegisterExecutor(models.OpTypeMatchRequestRespond, func(ctx context.Context, op *models.RetryOperation) error {
		var payload RespondPayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return fmt.Errorf("bad match_request_respond payload: %w", err)
		}
		key := map[string]types.AttributeValue{
			"requestId": &types.AttributeValueMemberS{Value: payload.RequestID},
		}
		expr := "SET #status = :status, #respondedAt = :respondedAt"
		values := map[string]types.AttributeValue{
			":status":      &types.AttributeValueMemberS{Value: payload.Status},
			":respondedAt": &types.AttributeValueMemberS{Value: payload.RespondedAt},
		}
		names := map[string]string{"#status": "status", "#respondedAt": "respondedAt"}
		if _, err := dynamo.UpdateItem(ctx, models.MatchRequestsTable, expr, key, values, names); err != nil {
			return err
		}
		if notifier != nil {
			kind := NotifyRequestDeclined
			if payload.Status == models.RequestStatusAccepted {
				kind = NotifyRequestAccepted
			}
			notifier.Send(payload.FromUserID, kind, map[string]string{"requestId": payload.RequestID, "status": payload.Status})
		}
		return nil
	})
}
