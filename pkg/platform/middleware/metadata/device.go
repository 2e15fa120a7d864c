package metadata

import (
	"context"
	"strings"

	"github.com/mssola/useragent"
)

type contextKeyDevice struct{}

// Device is the browser and operating system a request came from.
type Device struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// String renders d as "Browser on OS", or "" when nothing was recognised.
func (d Device) String() string {
	switch {
	case d.Browser != "" && d.OS != "":
		return d.Browser + " on " + d.OS
	case d.Browser != "":
		return d.Browser
	default:
		return d.OS
	}
}

// ParseDevice parses a User-Agent header. An empty header yields the zero Device.
func ParseDevice(userAgent string) Device {
	if strings.TrimSpace(userAgent) == "" {
		return Device{}
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	return Device{
		Browser: strings.TrimSpace(name + " " + version),
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// GetDevice returns the device parsed by ClientMetadata.
func GetDevice(ctx context.Context) Device {
	if d, ok := ctx.Value(contextKeyDevice{}).(Device); ok {
		return d
	}
	return Device{}
}

// WithDevice injects a parsed device into ctx.
func WithDevice(ctx context.Context, d Device) context.Context {
	return context.WithValue(ctx, contextKeyDevice{}, d)
}
