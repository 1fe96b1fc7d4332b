package drivekit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// execution returns the deferred body of a Call for req. Each invocation of
// the returned function performs one fresh backend call.
func (c *Client) execution(plan *Plan, req *Request) func(ctx context.Context) (any, error) {
	info := CallInfo{Method: plan.method, Operation: plan.operation, Location: req.Location()}
	var run func(ctx context.Context) (any, error)
	switch plan.operation {
	case OpCreate:
		run = func(ctx context.Context) (any, error) {
			return c.write(ctx, req)
		}
	case OpRead:
		run = func(ctx context.Context) (any, error) {
			return c.read(ctx, plan, req)
		}
	}
	return c.observe(info, run)
}

// failure returns the deferred body of a Call that fails with err without
// reaching the driver.
func (c *Client) failure(plan *Plan, err error) func(ctx context.Context) (any, error) {
	info := CallInfo{Method: plan.method, Operation: plan.operation}
	return c.observe(info, func(context.Context) (any, error) {
		return nil, err
	})
}

func (c *Client) observe(info CallInfo, run func(ctx context.Context) (any, error)) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		ctx, token := c.hook.OnCallStart(ctx, info)
		start := time.Now()
		v, err := run(ctx)
		c.hook.OnCallEnd(ctx, token, info, err)

		entry := c.logger.WithFields(logrus.Fields{
			"method":    info.Method,
			"operation": info.Operation,
			"location":  info.Location.String(),
			"duration":  time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Debug("call failed")
		} else {
			entry.Debug("call completed")
		}
		return v, err
	}
}

func (c *Client) write(ctx context.Context, req *Request) (any, error) {
	id, err := c.driver.Write(ctx, req)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (c *Client) read(ctx context.Context, plan *Plan, req *Request) (any, error) {
	rs, err := c.driver.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, ErrNoResult
	}
	return plan.response.Convert(ctx, rs)
}
