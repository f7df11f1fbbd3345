package cache

import (
	"fmt"
	"time"
)

const (
	EventKeyPrefix     = "event:%s"
	TimeslotsKeyPrefix = "feed:timeslots:%s"
	BlacklistKeyPrefix = "blacklist:%s"
	EventChannelPrefix = "events:%s:posts"
)

const (
	EventTTL     = 5 * time.Minute
	TimeslotsTTL = 2 * time.Minute
)

func EventKey(hash string) string {
	return fmt.Sprintf(EventKeyPrefix, hash)
}

func TimeslotsKey(hash string) string {
	return fmt.Sprintf(TimeslotsKeyPrefix, hash)
}

// BlacklistKey marks a revoked token id.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// EventChannel is the pub/sub channel carrying post notifications for an event.
func EventChannel(hash string) string {
	return fmt.Sprintf(EventChannelPrefix, hash)
}
