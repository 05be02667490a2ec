package models

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID      string   `dynamodbav:"userId,omitempty" json:"userId"`
	DisplayName string   `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	EmailID     string   `dynamodbav:"emailId,omitempty" json:"emailId,omitempty"`
	Bio         string   `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL   string   `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Interests   []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	Latitude    float64  `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   float64  `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
}

// ProfileSummary is the public subset of a profile returned alongside a match
type ProfileSummary struct {
	UserID      string `dynamodbav:"userId" json:"id"`
	DisplayName string `dynamodbav:"displayName,omitempty" json:"displayName,omitempty"`
	AvatarURL   string `dynamodbav:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "UserProfiles"
