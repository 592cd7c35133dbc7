package publishers

import "context"

// Publisher delivers article events to one downstream sink. Implementations
// cover webhooks (http.go) and SQS queues (sqs.go); ID and Type come from the
// publishers.yaml entry that built the instance.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
