package models

// Connection is a durable relationship between two users. PairKey is the
// canonical (sorted) pair of user ids and doubles as the partition key, so
// the table can hold at most one row per unordered pair.
type Connection struct {
	PairKey         string  `dynamodbav:"pairKey" json:"-"`
	ConnectionID    string  `dynamodbav:"connectionId" json:"id"`
	UserA           string  `dynamodbav:"userA" json:"userA"`
	UserB           string  `dynamodbav:"userB" json:"userB"`
	Status          string  `dynamodbav:"status" json:"status"`
	ConnectionType  string  `dynamodbav:"connectionType" json:"connectionType"`
	SimilarityScore float64 `dynamodbav:"similarityScore" json:"similarityScore"`
	CreatedAt       string  `dynamodbav:"createdAt" json:"createdAt"`
}

// ConnectionsTable is the DynamoDB table name for connections
const ConnectionsTable = "Connections"
