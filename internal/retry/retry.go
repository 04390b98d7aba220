// Package retry 提供显式的重试策略，注入到需要网络调用的组件中
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy 重试策略：最大尝试次数与指数退避区间
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Default 默认策略：3 次尝试，2s 起步指数退避
func Default() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
	}
}

// ZeroDelay 无等待策略，供测试替换
func ZeroDelay(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts}
}

// Do 执行 op，失败时按策略重试。Permanent 包装的错误立即返回。
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		bo.MaxInterval = p.MaxInterval
	}
	bo.MaxElapsedTime = 0 // 只受尝试次数限制

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	return backoff.RetryWithData(op, b)
}

// Permanent 标记不应重试的错误
func Permanent(err error) error {
	return backoff.Permanent(err)
}
