// Package web embeds the browser frontend: a deck.gl globe page that draws
// the layer descriptors served by the session API.
package web

import "embed"

// Content holds index.html, app.js and styles.css.
//
//go:embed index.html app.js styles.css
var Content embed.FS
