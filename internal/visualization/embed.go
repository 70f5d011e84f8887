package visualization

import "embed"

// templates contains the embedded HTML view.
//
//go:embed templates/*
var templates embed.FS
