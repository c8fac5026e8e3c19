// Package assets holds data files compiled into the binary.
package assets

import (
	_ "embed"
)

// Countries is the default flag catalog in name|asset|description form.
//
//go:embed countries.txt
var Countries string
