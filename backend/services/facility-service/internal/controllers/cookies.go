package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/stowpoint/mono-repo/backend/shared/go-middleware"
	"github.com/stowpoint/mono-repo/backend/shared/go-utils"
)

// setAccessCookie stores the session token. High security keeps the
// cookie first-party (SameSite=Lax); otherwise it is sent cross-site and
// partitioned.
func setAccessCookie(w http.ResponseWriter, token string, ttl time.Duration, highSecurity bool) {
	sameSite, partitioned := cookiePolicy(highSecurity)
	writeCookie(w, middleware.AccessTokenCookieName, token, int(ttl.Seconds()), sameSite, partitioned)
	addSecurityHeaders(w)
}

func clearAccessCookie(w http.ResponseWriter, highSecurity bool) {
	sameSite, partitioned := cookiePolicy(highSecurity)
	expired := time.Now().Add(-1 * time.Hour).UTC().Format(http.TimeFormat)
	w.Header().Add("Set-Cookie",
		fmt.Sprintf("%s=; Path=/; Expires=%s; Max-Age=0; SameSite=%s; Secure; HttpOnly; Priority=High%s",
			middleware.AccessTokenCookieName, expired, sameSite, partitionAttr(partitioned)))
	addSecurityHeaders(w)
}

func cookiePolicy(highSecurity bool) (string, bool) {
	if highSecurity {
		return "Lax", false
	}
	return "None", true
}

func writeCookie(w http.ResponseWriter, name, value string, maxAge int, sameSite string, partitioned bool) {
	expires := time.Now().Add(time.Duration(maxAge) * time.Second).UTC().Format(http.TimeFormat)
	line := fmt.Sprintf("%s=%s; Path=/; Max-Age=%d; Expires=%s; SameSite=%s; Secure; HttpOnly; Priority=High%s",
		name, value, maxAge, expires, sameSite, partitionAttr(partitioned))

	utils.Logger.Debugf("[cookies] writing cookie %s SameSite=%s Partitioned=%t", name, sameSite, partitioned)
	w.Header().Add("Set-Cookie", line)
}

func partitionAttr(on bool) string {
	if on {
		return "; Partitioned"
	}
	return ""
}

func addSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
}
