package controllers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"vibematch_server/models"
	"vibematch_server/services"
)

const maxSelfieBytes = 10 << 20 // 10 MiB

// SelfieMatcher forwards a selfie to the external matching engine
type SelfieMatcher interface {
	Submit(ctx context.Context, sub services.SelfieSubmission) (*services.MatchVerdict, error)
}

// ConnectionReconciler converts a verdict into a durable connection
type ConnectionReconciler interface {
	Reconcile(ctx context.Context, submittingUserID string, verdict *services.MatchVerdict) (*services.ReconcileResult, error)
}

// CandidateCreator records the pending match attempt for a submission
type CandidateCreator interface {
	Create(ctx context.Context, userID string) (*models.SelfieCandidate, error)
}

// SelfieController handles selfie submissions
type SelfieController struct {
	Matcher    SelfieMatcher
	Reconciler ConnectionReconciler
	Candidates CandidateCreator
}

// NewSelfieController creates a new SelfieController instance
func NewSelfieController(matcher SelfieMatcher, reconciler ConnectionReconciler, candidates CandidateCreator) *SelfieController {
	return &SelfieController{Matcher: matcher, Reconciler: reconciler, Candidates: candidates}
}

type matchedUserPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type connectionPayload struct {
	ID              string             `json:"id"`
	MatchedUser     matchedUserPayload `json:"matchedUser"`
	SimilarityScore float64            `json:"similarityScore"`
}

type uploadResponse struct {
	Success    bool               `json:"success"`
	MatchFound bool               `json:"matchFound"`
	Connection *connectionPayload `json:"connection,omitempty"`
}

type uploadError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UploadSelfie handles a multipart selfie submission: it records a pending
// candidate, asks the matching engine for a verdict, and reconciles a
// positive verdict into a connection.
func (sc *SelfieController) UploadSelfie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxSelfieBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadError{Success: false, Error: "Invalid multipart payload"})
		return
	}

	userID := r.FormValue("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, uploadError{Success: false, Error: "User ID is required"})
		return
	}

	file, header, err := r.FormFile("selfie")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadError{Success: false, Error: "No selfie uploaded"})
		return
	}
	defer file.Close()

	selfieBytes, err := io.ReadAll(file)
	if err != nil || len(selfieBytes) == 0 {
		writeJSON(w, http.StatusBadRequest, uploadError{Success: false, Error: "No selfie uploaded"})
		return
	}

	if _, err := sc.Candidates.Create(ctx, userID); err != nil {
		log.Printf("Failed to create selfie candidate for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, uploadError{Success: false, Error: "Failed to record submission"})
		return
	}

	verdict, err := sc.Matcher.Submit(ctx, services.SelfieSubmission{
		Selfie:      selfieBytes,
		ContentType: header.Header.Get("Content-Type"),
		UserID:      userID,
		Latitude:    r.FormValue("latitude"),
		Longitude:   r.FormValue("longitude"),
	})
	if err != nil {
		sc.writeError(w, err)
		return
	}

	result, err := sc.Reconciler.Reconcile(ctx, userID, verdict)
	if err != nil {
		sc.writeError(w, err)
		return
	}

	if result == nil {
		writeJSON(w, http.StatusOK, uploadResponse{Success: true, MatchFound: false})
		return
	}

	matchedUser := matchedUserPayload{ID: result.MatchedUserID}
	if result.MatchedProfile != nil {
		matchedUser.DisplayName = result.MatchedProfile.DisplayName
		matchedUser.AvatarURL = result.MatchedProfile.AvatarURL
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:    true,
		MatchFound: true,
		Connection: &connectionPayload{
			ID:              result.ConnectionID,
			MatchedUser:     matchedUser,
			SimilarityScore: result.SimilarityScore,
		},
	})
}

func (sc *SelfieController) writeError(w http.ResponseWriter, err error) {
	log.Printf("Selfie submission failed: %v", err)
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, uploadError{Success: false, Error: err.Error()})
	case errors.Is(err, services.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusBadGateway, uploadError{Success: false, Error: "Matching service unavailable"})
	case errors.Is(err, services.ErrStoreUnavailable):
		writeJSON(w, http.StatusInternalServerError, uploadError{Success: false, Error: "Datastore unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, uploadError{Success: false, Error: "Internal server error"})
	}
}
