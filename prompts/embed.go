package prompts

import _ "embed"

//go:embed recap/system.md
var RecapSystemPrompt string

//go:embed recap/session.md.tmpl
var RecapSessionTemplate string
