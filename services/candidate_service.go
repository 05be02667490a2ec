package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"vibematch_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// CandidateService owns the SelfieCandidates table. Candidate status is
// monotonic: pending -> matched or pending -> expired, enforced here with
// conditional writes so the reaper and the reconciler never clobber each
// other.
type CandidateService struct {
	Dynamo *DynamoService
}

// Create inserts a new pending candidate for the submitting user
func (cs *CandidateService) Create(ctx context.Context, userID string) (*models.SelfieCandidate, error) {
	candidate := models.SelfieCandidate{
		CandidateID: uuid.NewString(),
		UserID:      userID,
		Status:      models.CandidateStatusPending,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := cs.Dynamo.PutItem(ctx, models.SelfieCandidatesTable, candidate); err != nil {
		return nil, fmt.Errorf("failed to create selfie candidate: %w", err)
	}
	return &candidate, nil
}

// MarkMatched transitions the given candidates to matched. Candidates that
// are no longer pending are skipped silently, so redelivered verdicts are a
// no-op.
func (cs *CandidateService) MarkMatched(ctx context.Context, candidateIDs ...string) error {
	for _, candidateID := range candidateIDs {
		key := map[string]types.AttributeValue{
			"candidateId": &types.AttributeValueMemberS{Value: candidateID},
		}
		_, err := cs.Dynamo.UpdateItemWithCondition(ctx, models.SelfieCandidatesTable,
			"SET #st = :matched", "#st = :pending", key,
			map[string]types.AttributeValue{
				":matched": &types.AttributeValueMemberS{Value: models.CandidateStatusMatched},
				":pending": &types.AttributeValueMemberS{Value: models.CandidateStatusPending},
			},
			map[string]string{"#st": "status"},
		)
		if err != nil {
			if IsConditionalCheckFailed(err) {
				continue
			}
			return fmt.Errorf("failed to mark candidate %s as matched: %w", candidateID, err)
		}
	}
	return nil
}

// MarkMatchedForUsers resolves each user's pending candidates through the
// userId GSI and marks them matched
func (cs *CandidateService) MarkMatchedForUsers(ctx context.Context, userIDs ...string) error {
	var candidateIDs []string
	for _, userID := range userIDs {
		pending, err := cs.pendingCandidatesForUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, candidate := range pending {
			candidateIDs = append(candidateIDs, candidate.CandidateID)
		}
	}
	return cs.MarkMatched(ctx, candidateIDs...)
}

// MarkExpired transitions a single candidate to expired, guarded the same
// way as MarkMatched
func (cs *CandidateService) MarkExpired(ctx context.Context, candidateID string) error {
	key := map[string]types.AttributeValue{
		"candidateId": &types.AttributeValueMemberS{Value: candidateID},
	}
	_, err := cs.Dynamo.UpdateItemWithCondition(ctx, models.SelfieCandidatesTable,
		"SET #st = :expired", "#st = :pending", key,
		map[string]types.AttributeValue{
			":expired": &types.AttributeValueMemberS{Value: models.CandidateStatusExpired},
			":pending": &types.AttributeValueMemberS{Value: models.CandidateStatusPending},
		},
		map[string]string{"#st": "status"},
	)
	if err != nil && !IsConditionalCheckFailed(err) {
		return fmt.Errorf("failed to expire candidate %s: %w", candidateID, err)
	}
	return nil
}

// ExpireStalePending deletes pending candidates created strictly before
// now-olderThan and returns how many were removed. A candidate created
// exactly at the cutoff survives. Matched candidates are never touched: the
// scan selects pending rows only, and each delete re-checks the status so a
// candidate matched mid-sweep is left alone.
func (cs *CandidateService) ExpireStalePending(ctx context.Context, olderThan time.Duration) (int, error) {
	return cs.expireStalePendingBefore(ctx, time.Now().UTC().Add(-olderThan))
}

func (cs *CandidateService) expireStalePendingBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []models.SelfieCandidate
	err := cs.Dynamo.ScanWithFilter(ctx, models.SelfieCandidatesTable,
		"#st = :pending",
		map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: models.CandidateStatusPending},
		},
		map[string]string{"#st": "status"},
		func(item map[string]types.AttributeValue) bool {
			createdAttr, ok := item["createdAt"].(*types.AttributeValueMemberS)
			if !ok {
				return false
			}
			createdAt, err := time.Parse(time.RFC3339Nano, createdAttr.Value)
			if err != nil {
				log.Printf("Skipping candidate with unparseable createdAt %q: %v", createdAttr.Value, err)
				return false
			}
			return createdAt.Before(cutoff)
		},
		&stale,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to scan stale candidates: %w", err)
	}

	removed := 0
	for _, candidate := range stale {
		key := map[string]types.AttributeValue{
			"candidateId": &types.AttributeValueMemberS{Value: candidate.CandidateID},
		}
		err := cs.Dynamo.DeleteItemWithCondition(ctx, models.SelfieCandidatesTable, key,
			"#st = :pending",
			map[string]types.AttributeValue{
				":pending": &types.AttributeValueMemberS{Value: models.CandidateStatusPending},
			},
			map[string]string{"#st": "status"},
		)
		if err != nil {
			if IsConditionalCheckFailed(err) {
				// Matched between scan and delete; leave it be.
				continue
			}
			return removed, fmt.Errorf("failed to delete stale candidate %s: %w", candidate.CandidateID, err)
		}
		removed++
	}
	return removed, nil
}

func (cs *CandidateService) pendingCandidatesForUser(ctx context.Context, userID string) ([]models.SelfieCandidate, error) {
	items, err := cs.Dynamo.QueryItemsWithIndex(ctx, models.SelfieCandidatesTable, models.CandidateUserIndex,
		"#uid = :userId",
		map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		map[string]string{"#uid": "userId"},
		100,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for user %s: %w", userID, err)
	}

	var pending []models.SelfieCandidate
	for _, item := range items {
		statusAttr, ok := item["status"].(*types.AttributeValueMemberS)
		if !ok || statusAttr.Value != models.CandidateStatusPending {
			continue
		}
		idAttr, ok := item["candidateId"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		pending = append(pending, models.SelfieCandidate{
			CandidateID: idAttr.Value,
			UserID:      userID,
			Status:      statusAttr.Value,
		})
	}
	return pending, nil
}
