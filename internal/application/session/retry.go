package session

import (
	"context"

	"agora/internal/domain/auth"

	"github.com/rs/zerolog/log"
)

// Retry wraps fn so that it runs with the active access token. When fn fails because the
// token is unauthorized, the session is refreshed once and fn runs one more time with the
// new token. Any other failure, or a failing refresh, is returned as is. fn never runs
// before the session is synced, ErrNotSynced is returned instead.
func Retry[R any](c *Controller, fn func(ctx context.Context, accessToken string) (R, error)) func(ctx context.Context) (R, error) {
	return func(ctx context.Context) (R, error) {
		current, err := c.current()
		if err != nil {
			var zero R
			return zero, err
		}
		token := current.AccessToken
		res, err := fn(ctx, token)
		if err == nil || !auth.IsUnauthorized(err) {
			return res, err
		}

		log.Debug().Err(err).Msg("access token rejected, refreshing session")
		token, refreshErr := c.refreshFrom(ctx, token)
		if refreshErr != nil {
			var zero R
			return zero, refreshErr
		}
		return fn(ctx, token)
	}
}

// RetrySession is Retry for calls that return no value
func (c *Controller) RetrySession(fn func(ctx context.Context, accessToken string) error) func(ctx context.Context) error {
	wrapped := Retry(c, func(ctx context.Context, accessToken string) (struct{}, error) {
		return struct{}{}, fn(ctx, accessToken)
	})
	return func(ctx context.Context) error {
		_, err := wrapped(ctx)
		return err
	}
}
