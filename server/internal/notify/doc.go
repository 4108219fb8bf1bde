// Package notify delivers a message to Slack, Teams or generic HTTP webhooks
// after each committed ingestion. Messages carry the top of the standings
// table rendered with go-pretty.
package notify
