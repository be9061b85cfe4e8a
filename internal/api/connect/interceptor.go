package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"
)

// NewLoggingInterceptor creates an interceptor that logs every unary call
// with its duration and, on failure, its error code.
func NewLoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			elapsed := time.Since(start)

			procedure := req.Spec().Procedure
			if err != nil {
				zlog.Warn().Msgf("api: %s failed: code=%s elapsed=%s err=%v",
					procedure, connect.CodeOf(err), elapsed, err)
				return nil, err
			}
			zlog.Debug().Msgf("api: %s: elapsed=%s", procedure, elapsed)
			return res, nil
		}
	}
}
