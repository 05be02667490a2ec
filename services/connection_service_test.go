package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"vibematch_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnectionService() (*ConnectionService, *fakeDynamo) {
	fake := newFakeDynamo()
	dynamo := &DynamoService{Client: fake}
	return &ConnectionService{
		Dynamo:     dynamo,
		Candidates: &CandidateService{Dynamo: dynamo},
		Profiles:   &UserProfileService{Dynamo: dynamo},
	}, fake
}

func insertProfile(fake *fakeDynamo, userID, displayName, avatarURL string) {
	fake.table(models.UserProfilesTable)[userID] = map[string]types.AttributeValue{
		"userId":      &types.AttributeValueMemberS{Value: userID},
		"displayName": &types.AttributeValueMemberS{Value: displayName},
		"avatarUrl":   &types.AttributeValueMemberS{Value: avatarURL},
	}
}

func positiveVerdict(matchedUserID string, score float64) *MatchVerdict {
	return &MatchVerdict{MatchFound: true, MatchedUserID: matchedUserID, SimilarityScore: score}
}

func TestCanonicalPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, CanonicalPairKey("alice", "bob"), CanonicalPairKey("bob", "alice"))
	assert.Equal(t, "alice#bob", CanonicalPairKey("bob", "alice"))
}

func TestReconcileNegativeVerdict(t *testing.T) {
	svc, fake := newConnectionService()

	result, err := svc.Reconcile(context.Background(), "u1", &MatchVerdict{MatchFound: false})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, fake.itemCount(models.ConnectionsTable), "a negative verdict must not mutate state")
}

func TestReconcileCreatesConnection(t *testing.T) {
	svc, fake := newConnectionService()
	ctx := context.Background()
	insertProfile(fake, "u2", "Jordan", "https://cdn.example.com/u2.jpg")
	insertCandidate(fake, "cand-1", "u1", models.CandidateStatusPending, time.Now())
	insertCandidate(fake, "cand-2", "u2", models.CandidateStatusPending, time.Now())

	result, err := svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.91))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ConnectionID)
	assert.Equal(t, 0.91, result.SimilarityScore)
	assert.Equal(t, "u2", result.MatchedUserID)
	require.NotNil(t, result.MatchedProfile)
	assert.Equal(t, "Jordan", result.MatchedProfile.DisplayName)

	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
	item := fake.item(models.ConnectionsTable, "u1#u2")
	require.NotNil(t, item)
	assert.Equal(t, models.ConnectionStatusPending, item["status"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, models.ConnectionTypeVibeMatch, item["connectionType"].(*types.AttributeValueMemberS).Value)

	// Both participants' pending candidates are consumed.
	assert.Equal(t, models.CandidateStatusMatched, candidateStatus(t, fake, "cand-1"))
	assert.Equal(t, models.CandidateStatusMatched, candidateStatus(t, fake, "cand-2"))
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc, fake := newConnectionService()
	ctx := context.Background()

	first, err := svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.91))
	require.NoError(t, err)
	second, err := svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.91))
	require.NoError(t, err)

	assert.Equal(t, first.ConnectionID, second.ConnectionID)
	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
}

func TestReconcilePairSymmetry(t *testing.T) {
	svc, fake := newConnectionService()
	ctx := context.Background()

	fromA, err := svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.88))
	require.NoError(t, err)
	fromB, err := svc.Reconcile(ctx, "u2", positiveVerdict("u1", 0.88))
	require.NoError(t, err)

	assert.Equal(t, fromA.ConnectionID, fromB.ConnectionID)
	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
}

func TestReconcileConcurrentSubmissions(t *testing.T) {
	svc, fake := newConnectionService()
	ctx := context.Background()

	results := make([]*ReconcileResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.9))
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = svc.Reconcile(ctx, "u2", positiveVerdict("u1", 0.9))
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0].ConnectionID, results[1].ConnectionID)
	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
}

func TestReconcileDegradedEnrichment(t *testing.T) {
	svc, fake := newConnectionService()

	// No profile row for u2: the match still succeeds, without detail fields.
	result, err := svc.Reconcile(context.Background(), "u1", positiveVerdict("u2", 0.75))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Nil(t, result.MatchedProfile)
	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
}

func TestReconcileSwallowsCandidateMarkFailure(t *testing.T) {
	svc, fake := newConnectionService()
	fake.failOn("Query", assert.AnError)

	result, err := svc.Reconcile(context.Background(), "u1", positiveVerdict("u2", 0.8))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, fake.itemCount(models.ConnectionsTable))
}

func TestReconcilePropagatesStoreFailure(t *testing.T) {
	svc, fake := newConnectionService()
	fake.failOn("PutItem", assert.AnError)

	_, err := svc.Reconcile(context.Background(), "u1", positiveVerdict("u2", 0.8))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, fake.itemCount(models.ConnectionsTable))
}

func TestReconcileRejectsVerdictWithoutUser(t *testing.T) {
	svc, _ := newConnectionService()

	_, err := svc.Reconcile(context.Background(), "u1", &MatchVerdict{MatchFound: true})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReconcileRejectsSelfMatch(t *testing.T) {
	svc, fake := newConnectionService()

	_, err := svc.Reconcile(context.Background(), "u1", positiveVerdict("u1", 0.99))
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Zero(t, fake.itemCount(models.ConnectionsTable), "a self-match must not create a connection")
}

func TestGetConnectionForPair(t *testing.T) {
	svc, _ := newConnectionService()
	ctx := context.Background()

	_, err := svc.GetConnectionForPair(ctx, "u1", "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.Reconcile(ctx, "u1", positiveVerdict("u2", 0.9))
	require.NoError(t, err)

	found, err := svc.GetConnectionForPair(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, created.ConnectionID, found.ConnectionID)
}
