package web

import "embed"

// Content holds the embedded static console assets (app.js, styles.css).
// The page itself is rendered server-side from the scene store.
//
//go:embed app.js styles.css
var Content embed.FS
