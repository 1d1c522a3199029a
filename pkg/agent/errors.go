package agent

import "errors"

// Context resolution outcomes. The pipeline turns them into clarification replies.
var (
	ErrNoContexts       = errors.New("no contexts found for stream")
	ErrNoMatch          = errors.New("no context matches the question")
	ErrTemplateNotFound = errors.New("no query template for the matched context")
)

const (
	msgStreamRequired   = "Error: Agent stream is required."
	msgUnknownStream    = "Error: Unknown agent stream %q."
	msgNoContexts       = "No contexts found for the specified agent type. Please clarify your question."
	msgNoMatch          = "I couldn't identify the query type. Please clarify your question."
	msgTemplateNotFound = "Error retrieving query for the matched context. Please clarify your question."
	msgNoSelectedQuery  = "No query selected to process."
	msgUnexpected       = "An unexpected error occurred: %v"
)

func resolutionMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoContexts):
		return msgNoContexts
	case errors.Is(err, ErrNoMatch):
		return msgNoMatch
	case errors.Is(err, ErrTemplateNotFound):
		return msgTemplateNotFound
	default:
		return "Error matching context: " + err.Error()
	}
}
