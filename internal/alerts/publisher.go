package alerts

import (
	"context"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type gcpPublisher struct {
	publisher *gcppubsub.Publisher
}

// NewPublisher wraps a Pub/Sub publisher handle in the job's Publisher interface.
func NewPublisher(publisher *gcppubsub.Publisher) Publisher {
	return &gcpPublisher{publisher: publisher}
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	if p == nil || p.publisher == nil {
		return nil
	}
	return &gcpPublishResult{result: p.publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	result *gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.result == nil {
		return "", context.Canceled
	}
	return r.result.Get(ctx)
}
