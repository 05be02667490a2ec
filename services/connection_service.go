package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vibematch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ProfileReader is the read-only profile lookup the reconciler enriches
// responses with
type ProfileReader interface {
	GetProfileSummary(ctx context.Context, userID string) (*models.ProfileSummary, error)
}

// CandidateMarker annotates candidates consumed by a reconciled match
type CandidateMarker interface {
	MarkMatchedForUsers(ctx context.Context, userIDs ...string) error
}

// ConnectionService turns match verdicts into durable connections. Both
// participants of a match may submit near-simultaneously, so connection
// creation is a conditional insert keyed on the canonical pair rather than a
// read-then-write.
type ConnectionService struct {
	Dynamo     *DynamoService
	Candidates CandidateMarker
	Profiles   ProfileReader
}

// ReconcileResult is returned for a positive verdict
type ReconcileResult struct {
	ConnectionID    string
	SimilarityScore float64
	MatchedUserID   string
	MatchedProfile  *models.ProfileSummary
}

// canonicalPair orders two user ids so the pair has a single identity
func canonicalPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

// CanonicalPairKey returns the order-independent identity of two users
func CanonicalPairKey(userA, userB string) string {
	userA, userB = canonicalPair(userA, userB)
	return userA + "#" + userB
}

// Reconcile materializes exactly one connection for the verdict's user pair.
// A nil result with a nil error means the verdict was negative. Candidate
// marking and profile enrichment are best-effort: their failures are logged,
// never surfaced, and never roll back the connection.
func (cs *ConnectionService) Reconcile(ctx context.Context, submittingUserID string, verdict *MatchVerdict) (*ReconcileResult, error) {
	if verdict == nil || !verdict.MatchFound {
		return nil, nil
	}
	if submittingUserID == "" || verdict.MatchedUserID == "" {
		return nil, fmt.Errorf("%w: verdict is missing a user id", ErrInvalidRequest)
	}
	if verdict.MatchedUserID == submittingUserID {
		return nil, fmt.Errorf("%w: verdict matches user %s with themselves", ErrInvalidRequest, submittingUserID)
	}

	connection, err := cs.lookupOrCreate(ctx, submittingUserID, verdict)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		ConnectionID:    connection.ConnectionID,
		SimilarityScore: verdict.SimilarityScore,
		MatchedUserID:   verdict.MatchedUserID,
	}

	if err := cs.Candidates.MarkMatchedForUsers(ctx, submittingUserID, verdict.MatchedUserID); err != nil {
		log.Printf("Failed to mark candidates matched for pair %s: %v", connection.PairKey, err)
	}

	profile, err := cs.Profiles.GetProfileSummary(ctx, verdict.MatchedUserID)
	if err != nil {
		log.Printf("Failed to fetch matched user profile %s: %v", verdict.MatchedUserID, err)
	} else {
		result.MatchedProfile = profile
	}

	return result, nil
}

// lookupOrCreate inserts the connection if and only if no row exists for the
// canonical pair; a rejected insert means the counterpart's submission (or a
// redelivered verdict) won the race, and the existing row is reused.
func (cs *ConnectionService) lookupOrCreate(ctx context.Context, submittingUserID string, verdict *MatchVerdict) (*models.Connection, error) {
	userA, userB := canonicalPair(submittingUserID, verdict.MatchedUserID)

	connection := models.Connection{
		PairKey:         CanonicalPairKey(userA, userB),
		ConnectionID:    uuid.NewString(),
		UserA:           userA,
		UserB:           userB,
		Status:          models.ConnectionStatusPending,
		ConnectionType:  models.ConnectionTypeVibeMatch,
		SimilarityScore: verdict.SimilarityScore,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}

	err := cs.Dynamo.PutItemIfAbsent(ctx, models.ConnectionsTable, "pairKey", connection)
	if err == nil {
		return &connection, nil
	}
	if !IsConditionalCheckFailed(err) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	existing, err := cs.getConnection(ctx, connection.PairKey)
	if err != nil {
		return nil, fmt.Errorf("%w: connection exists but could not be read: %v", ErrStoreUnavailable, err)
	}
	return existing, nil
}

func (cs *ConnectionService) getConnection(ctx context.Context, pairKey string) (*models.Connection, error) {
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: pairKey},
	}
	item, err := cs.Dynamo.GetItem(ctx, models.ConnectionsTable, key)
	if err != nil {
		return nil, err
	}

	var connection models.Connection
	if err := attributevalue.UnmarshalMap(item, &connection); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &connection, nil
}

// GetConnectionForPair returns the connection for two users, or ErrNotFound
func (cs *ConnectionService) GetConnectionForPair(ctx context.Context, userA, userB string) (*models.Connection, error) {
	connection, err := cs.getConnection(ctx, CanonicalPairKey(userA, userB))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return connection, nil
}
