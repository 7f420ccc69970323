package tui

import (
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Cookbook

Cookbook finds new items by asking the game what two known items make.

## Scans

- **Scan all** combines every item with every other item, itself included.
  Items found in one pass are combined in the next, until a pass finds
  nothing new or ` + "`scan.passes`" + ` passes have run.
- **Scan selected** only combines the items you pick.
- A pair is skipped when any item already records it as a recipe.
- Pairs that made *Nothing* are remembered and not asked again, unless
  ` + "`scan.remember_nothing`" + ` is off.
- Requests are spaced by ` + "`scan.cooldown`" + ` (300ms by default).

## Failures

| Failure | Default |
|---|---|
| forbidden (403) | abort |
| rate limited (429) | abort |
| malformed reply | abort |
| network error | skip |

An aborted scan saves everything it finished before stopping.

## Files

The collection is saved to ` + "`collection.ron`" + ` after every scan pass and every
1000 pairs. Use ` + "`cookbook export`" + ` for a SQLite copy and
` + "`cookbook recipe <item>`" + ` to see how to craft something.
`

// RenderHelp renders the help page. style is a glamour style name; empty
// means detect from the terminal.
func RenderHelp(style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(helpMarkdown)
}
