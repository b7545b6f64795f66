package main

import (
	"embed"
	"io/fs"
)

// The monitor page; the server minifies it at start-up.
//
//go:embed all:frontend
var frontendFiles embed.FS

func frontendFS() (fs.FS, error) {
	return fs.Sub(frontendFiles, "frontend")
}
