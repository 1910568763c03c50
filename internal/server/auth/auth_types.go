package auth

import (
	_ "embed"
)

//go:embed authmail.html.tmpl
var emailTemplate string
