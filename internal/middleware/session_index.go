package middleware

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DestroyUserSessions deletes every session listed in user_sessions:<user_id>
// and then the index set itself.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) error {
	if rdb == nil || userID == "" {
		return nil
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(sessionIDs)+1)
	for _, sid := range sessionIDs {
		keys = append(keys, SessionRedisPrefix+sid)
	}
	keys = append(keys, key)
	return rdb.Del(ctx, keys...).Err()
}

// SetRoleInUserSessions rewrites the role stored in each of a user's live
// sessions. Expired session ids are dropped from the index.
func SetRoleInUserSessions(ctx context.Context, rdb *redis.Client, userID, role string) error {
	if rdb == nil || userID == "" {
		return nil
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	for _, sid := range sessionIDs {
		b, err := rdb.Get(ctx, SessionRedisPrefix+sid).Bytes()
		if err == redis.Nil {
			_ = rdb.SRem(ctx, key, sid).Err()
			continue
		}
		if err != nil {
			return err
		}
		var data map[string]interface{}
		if err := json.Unmarshal(b, &data); err != nil {
			log.Warn().Err(err).Str("session_id", sid).Msg("session: unreadable session data")
			continue
		}
		user, ok := data["user"].(map[string]interface{})
		if !ok {
			continue
		}
		user["role"] = role
		out, _ := json.Marshal(data)
		if err := rdb.SetArgs(ctx, SessionRedisPrefix+sid, out, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
			return err
		}
	}
	return nil
}
