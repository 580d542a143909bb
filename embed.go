// Package arcade embeds the lobby's static web assets.
package arcade

import "embed"

//go:embed web
var WebFS embed.FS
