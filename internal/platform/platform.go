// Package platform classifies clients by their User-Agent string. The tag ends
// up inside token claims and drives refresh lifetime and cookie-vs-body
// transport, so the set of values is closed.
package platform

import "strings"

type Platform string

const (
	Web     Platform = "web"
	Mobile  Platform = "mobile"
	Flutter Platform = "flutter"
	Postman Platform = "postman"
	Script  Platform = "script"
	Unknown Platform = "unknown"
)

func (p Platform) String() string { return string(p) }

// FromUserAgent inspects a raw User-Agent header. Match order matters: mobile
// device markers win over everything, so a Flutter app on Android classifies
// as mobile, while a desktop Dart client classifies as flutter.
func FromUserAgent(ua string) Platform {
	ua = strings.ToLower(ua)
	switch {
	case containsAny(ua, "mobile", "android", "iphone", "ipad", "ipod"):
		return Mobile
	case containsAny(ua, "flutter", "dart"):
		return Flutter
	case containsAny(ua, "mozilla", "chrome", "safari", "firefox", "edge"):
		return Web
	case strings.Contains(ua, "postman"):
		return Postman
	case containsAny(ua, "node", "axios", "fetch"):
		return Script
	default:
		return Unknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
