package inference

import (
	"context"
	"errors"
	"fmt"
)

// FallbackClient tries primary first and switches to fallback on error, as long
// as primary has not streamed anything yet.
type FallbackClient struct {
	primary  Client
	fallback Client
}

func NewFallbackClient(primary, fallback Client) *FallbackClient {
	return &FallbackClient{primary: primary, fallback: fallback}
}

func (c *FallbackClient) Name() string {
	return c.primary.Name() + "+" + c.fallback.Name()
}

func (c *FallbackClient) Complete(ctx context.Context, req Request, onDelta DeltaHandler) (Response, error) {
	streamed := false
	resp, err := c.primary.Complete(ctx, req, func(delta string) error {
		streamed = true
		if onDelta == nil {
			return nil
		}
		return onDelta(delta)
	})
	if err == nil {
		return resp, nil
	}
	if streamed || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Response{}, err
	}

	fbResp, fbErr := c.fallback.Complete(ctx, req, onDelta)
	if fbErr != nil {
		return Response{}, fmt.Errorf("%s error: %w; %s error: %v", c.primary.Name(), err, c.fallback.Name(), fbErr)
	}
	return fbResp, nil
}

// ListModels delegates to the primary client when it can list models.
func (c *FallbackClient) ListModels(ctx context.Context) ([]string, error) {
	if l, ok := c.primary.(ModelLister); ok {
		return l.ListModels(ctx)
	}
	return nil, fmt.Errorf("%s cannot list models", c.primary.Name())
}
