package ratelimit

import "strings"

// KeyForPlanGeneration builds the limiter key for plan generation by a client.
// Signed-in users are limited per account, everyone else per address.
func KeyForPlanGeneration(userID, clientIP string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return "gen:u:" + id
	}
	if ip := strings.TrimSpace(clientIP); ip != "" {
		return "gen:ip:" + ip
	}
	return ""
}
