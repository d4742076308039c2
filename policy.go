package strand

import "context"

// PolicyCategory names the content-policy bucket a text falls into. The zero
// value means the filter raised no objection.
type PolicyCategory string

// PolicyAllowed is the category of text the filter permits.
const PolicyAllowed PolicyCategory = ""

// PolicyFilter classifies text against a content policy. It is a boundary
// collaborator: the engine consumes it but does not implement it. Runners
// may apply a filter to rendered prompts before they reach the provider and
// to final outputs before they are returned; any non-empty category is
// treated as a content-filtered failure carrying the category name.
type PolicyFilter interface {
	Classify(ctx context.Context, text string) (PolicyCategory, error)
}
