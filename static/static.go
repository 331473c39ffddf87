// Package static contains static assets like css and images.
package static

import (
	"embed"
	"io/fs"
)

//go:embed assets/*
var Assets embed.FS

// FS returns the assets rooted at the assets directory.
func FS() fs.FS {
	sub, err := fs.Sub(Assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
