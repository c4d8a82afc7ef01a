package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// mockHandler is a simple handler that returns a fixed response
func mockHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

// newTestLimiter builds a limiter whose clock only moves when the test advances it
func newTestLimiter(t *testing.T, client *redis.Client, config RateLimiterConfig) (*RateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(client, config, zaptest.NewLogger(t))
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_WithinLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstCapacity:     10,
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	// Create context with peer info
	addr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// Make 5 requests (within limit of 10)
	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedLimit(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstCapacity:     5, // Allow 5 requests immediately
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	addr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// Make requests up to limit
	for i := 0; i < 5; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	// Next request should be rate limited
	resp, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     10,  // Adequate burst capacity
		Enabled:           false, // Disabled
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	addr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// Make many requests - should all succeed because rate limiting is disabled
	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstCapacity:     10,  // Adequate burst capacity
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// IP 1: Make 2 requests (at limit)
	addr1, _ := net.ResolveTCPAddr("tcp", "192.168.1.1:12345")
	ctx1 := peer.NewContext(context.Background(), &peer.Peer{Addr: addr1})

	for i := 0; i < 2; i++ {
		resp, err := interceptor(ctx1, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	// IP 2: Should still be able to make requests
	addr2, _ := net.ResolveTCPAddr("tcp", "192.168.1.2:12345")
	ctx2 := peer.NewContext(context.Background(), &peer.Peer{Addr: addr2})

	resp, err := interceptor(ctx2, nil, info, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstCapacity:     10,  // Adequate burst capacity
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	// Create context with X-Forwarded-For header
	md := metadata.Pairs("x-forwarded-for", "203.0.113.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// Make requests
	for i := 0; i < 3; i++ {
		resp, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_DifferentMethods(t *testing.T) {
	client, _ := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstCapacity:     10,  // Adequate burst capacity
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	addr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	// Method 1: Make 2 requests (at limit)
	info1 := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	for i := 0; i < 2; i++ {
		resp, err := interceptor(ctx, nil, info1, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}

	// Method 2: Should have separate rate limit
	info2 := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/List",
	}

	resp, err := interceptor(ctx, nil, info2, mockHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_Refill(t *testing.T) {
	client, mr := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstCapacity:     4,
		Enabled:           true,
	}

	rl, now := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()

	addr, _ := net.ResolveTCPAddr("tcp", "127.0.0.1:12345")
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})

	info := &grpc.UnaryServerInfo{
		FullMethod: "/grpc.health.v1.Health/Check",
	}

	// Drain the burst
	for i := 0; i < 4; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}

	_, err := interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)

	// One second refills two tokens
	*now = now.Add(time.Second)
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx, nil, info, mockHandler)
		require.NoError(t, err)
	}
	_, err = interceptor(ctx, nil, info, mockHandler)
	require.Error(t, err)

	// Verify TTL is set on the key
	key := "ratelimit:tb:/grpc.health.v1.Health/Check:127.0.0.1"
	ttl := mr.TTL(key)
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 60.0)
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)

	config := RateLimiterConfig{
		RequestsPerSecond: 1,
		BurstCapacity:     1,
		Enabled:           true,
	}

	rl, _ := newTestLimiter(t, client, config)
	interceptor := rl.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	mr.Close()

	for i := 0; i < 3; i++ {
		resp, err := interceptor(context.Background(), nil, info, mockHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_AllowReportsRedisErrors(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})

	mr.Close()

	allowed, err := rl.Allow(context.Background(), "GET /users", "10.0.0.1")
	assert.False(t, allowed)
	assert.Error(t, err)
}

func TestRateLimiter_NilIsDisabled(t *testing.T) {
	var rl *RateLimiter
	assert.False(t, rl.Enabled())
}
