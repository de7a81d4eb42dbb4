package utils

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"
)

// One-time issued-key store. Right after a successful finalize the key code
// is parked here, keyed by user, and handed out exactly once by the follow-up
// retrieval call. Entries expire on their own so an unread code does not
// linger. Redis (GETDEL) is used when configured so the read-once guarantee
// holds across processes; otherwise an in-process TTL map serves the same
// contract for single-instance deployments.

var ErrNoIssuedKey = errors.New("no issued key available")

const issuedKeyPrefix = "issued_key:"

func issuedKeyTTL() time.Duration {
	if s := os.Getenv("ISSUED_KEY_TTL_SECONDS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return 10 * time.Minute
}

type memEntry struct {
	code      string
	expiresAt time.Time
}

var (
	issuedMu  sync.Mutex
	issuedMem = map[uint]memEntry{}
)

// StoreIssuedKey parks a freshly issued key code for one-time retrieval.
func StoreIssuedKey(ctx context.Context, userID uint, code string) error {
	ttl := issuedKeyTTL()
	if RedisClient != nil {
		return RedisClient.Set(ctx, issuedKeyPrefix+strconv.FormatUint(uint64(userID), 10), code, ttl).Err()
	}
	issuedMu.Lock()
	defer issuedMu.Unlock()
	issuedMem[userID] = memEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

// TakeIssuedKey returns the parked code and consumes it. A second call (or a
// call after expiry) returns ErrNoIssuedKey.
func TakeIssuedKey(ctx context.Context, userID uint) (string, error) {
	if RedisClient != nil {
		code, err := RedisClient.GetDel(ctx, issuedKeyPrefix+strconv.FormatUint(uint64(userID), 10)).Result()
		if err != nil || code == "" {
			return "", ErrNoIssuedKey
		}
		return code, nil
	}
	issuedMu.Lock()
	defer issuedMu.Unlock()
	entry, ok := issuedMem[userID]
	if !ok {
		return "", ErrNoIssuedKey
	}
	delete(issuedMem, userID)
	if time.Now().After(entry.expiresAt) {
		return "", ErrNoIssuedKey
	}
	return entry.code, nil
}
