package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeanpaul/cookbook/internal/discovery"
	"github.com/jeanpaul/cookbook/internal/oracle"
	"github.com/jeanpaul/cookbook/internal/store"
)

// RenderCollection lists every item with its recipe count, new discoveries
// highlighted.
func RenderCollection(st *store.Store) string {
	items := st.Items()
	var b strings.Builder
	b.WriteString(StatusBarStyle.Render(fmt.Sprintf(" %d items ", len(items))) + "\n\n")
	for _, it := range items {
		style := ItemStyle
		if it.IsNew {
			style = NewItemStyle
		}
		recipes := "base"
		if n := len(it.Parents); n == 1 {
			recipes = "1 recipe"
		} else if n > 1 {
			recipes = fmt.Sprintf("%d recipes", n)
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", style.Render(it.String()), RecipeCountStyle.Render("("+recipes+")")))
	}
	return b.String()
}

// RenderReport summarises a finished scan.
func RenderReport(rep discovery.Report) string {
	var b strings.Builder
	head := fmt.Sprintf("✓ %d pairs in %s", rep.Processed(), rep.Duration.Round(time.Millisecond))
	if rep.Passes > 1 {
		head += fmt.Sprintf(" over %d passes", rep.Passes)
	}
	b.WriteString(BannerStyle.Render(head) + "\n")
	b.WriteString(fmt.Sprintf("  %d new · %d nothing · %d skipped\n", rep.Discovered, rep.Nothing, rep.Skipped))
	for _, name := range rep.NewItems {
		b.WriteString("  " + NewItemStyle.Render("+ "+name) + "\n")
	}
	return b.String()
}

// outcomeLine is the display line for pairs worth showing: new items and
// failures. Everything else returns "".
func outcomeLine(o discovery.Outcome) string {
	switch o.Result.Kind {
	case oracle.KindProduced:
		if o.Created {
			return NewItemStyle.Render(fmt.Sprintf("%s = %s %s", o.Pair, o.Result.Emoji, o.Result.Name))
		}
	case oracle.KindFailure:
		msg := "failed"
		if o.Result.Failure != nil {
			msg = o.Result.Failure.Error()
		}
		if o.Action == discovery.Skip {
			return WarnStyle.Render(fmt.Sprintf("skipped %s: %s", o.Pair, msg))
		}
		return ErrorStyle.Render(fmt.Sprintf("stopped at %s: %s", o.Pair, msg))
	}
	return ""
}

// PrintProgress returns an observer that writes notable outcomes to w, for
// non-interactive scans.
func PrintProgress(w io.Writer) discovery.Observer {
	return func(o discovery.Outcome) {
		if line := outcomeLine(o); line != "" {
			fmt.Fprintf(w, "[%d/%d] %s\n", o.Index, o.Total, line)
		}
	}
}
