package util

import "time"

// IsOnCooldown 距上次收集是否仍在冷却期内。从未收集过视为不受限
func IsOnCooldown(lastCollectedAt time.Time, cooldown time.Duration, now time.Time) bool {
	if lastCollectedAt.IsZero() || cooldown <= 0 {
		return false
	}
	return now.Sub(lastCollectedAt) < cooldown
}

// CooldownRemaining 冷却剩余时长，不在冷却期时为 0
func CooldownRemaining(lastCollectedAt time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if !IsOnCooldown(lastCollectedAt, cooldown, now) {
		return 0
	}
	return cooldown - now.Sub(lastCollectedAt)
}
