package models

// SelfieCandidate records one user's in-flight selfie match attempt
type SelfieCandidate struct {
	CandidateID string `dynamodbav:"candidateId" json:"candidateId"`
	UserID      string `dynamodbav:"userId" json:"userId"`
	Status      string `dynamodbav:"status" json:"status"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// SelfieCandidatesTable is the DynamoDB table name for selfie candidates
const SelfieCandidatesTable = "SelfieCandidates"

// CandidateUserIndex is the GSI used to look up candidates by user
const CandidateUserIndex = "userId-index"
