package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Title    = color.New(color.FgCyan, color.Bold)
	Author   = color.New(color.FgMagenta)
	Prompt   = color.New(color.FgGreen, color.Bold)
	Error    = color.New(color.FgRed, color.Bold)
	Success  = color.New(color.FgGreen)
	Info     = color.New(color.FgBlue)
	Warning  = color.New(color.FgYellow)
	Narrator = color.New(color.FgWhite)
	Choice   = color.New(color.FgMagenta, color.Bold)

	// karaoke
	Highlight = color.New(color.FgHiBlue, color.Bold, color.Underline)
	Bounce    = color.New(color.Bold)
	Rest      = color.New(color.Faint)
)
