package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user id under "user_id". Nil yields an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

func RequestID(id string) slog.Attr { return slog.String("request_id", id) }

func Component(name string) slog.Attr { return slog.String("component", name) }

func Provider(name string) slog.Attr { return slog.String("provider", name) }

func EventType(t string) slog.Attr { return slog.String("event_type", t) }

func EventID(id string) slog.Attr { return slog.String("event_id", id) }

func CustomerID(id string) slog.Attr { return slog.String("customer_id", id) }

func SubscriptionID(id string) slog.Attr { return slog.String("subscription_id", id) }

func Status(s string) slog.Attr { return slog.String("status", s) }

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

// Group nests attrs under name.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}
