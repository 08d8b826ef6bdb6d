package models

// EnvironmentVariable represents an environment variable passed to an MCP server
type EnvironmentVariable struct {
	Name     string `json:"name" dynamodbav:"Name" binding:"required"`
	Value    string `json:"value" dynamodbav:"Value" binding:"required"`
	IsSecret bool   `json:"is_secret" dynamodbav:"IsSecret"`
}
