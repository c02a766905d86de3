package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/leapstack-labs/harmonize/internal/ui/resources"
)

// Layout is the HTML document around a page body. The body carries the
// initial datastar signals and opens the live update stream.
func Layout(title string, isDev bool, signals, extraCSS string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTMLWriter(ctx, w)
		h.raw(`<!doctype html>`, "\n", `<html lang="en">`, "\n<head>\n")
		h.raw(`<meta charset="utf-8">`, "\n")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`, "\n")
		h.raw("<title>")
		h.text(title)
		h.raw(" - harmonize</title>\n")
		h.raw(`<link rel="stylesheet" href="`)
		h.text(resources.StaticPath("app.css"))
		h.raw(`">`, "\n")
		if extraCSS != "" {
			h.raw("<style>", extraCSS, "</style>\n")
		}
		h.raw(`<script type="module" src="`)
		h.text(resources.DatastarScript)
		h.raw(`"></script>`, "\n</head>\n")

		h.raw(`<body data-signals="`)
		h.text(signals)
		h.raw(`">`, "\n")
		if isDev {
			h.raw(`<div data-init="@get('/reload')"></div>`, "\n")
		}
		h.raw(`<div data-init="@get('/updates')"></div>`, "\n")
		h.raw(`<header class="topbar">`, "\n<h1>harmonize</h1>\n")
		h.raw(`<span class="muted">Sustainability disclosure harmonization</span>`, "\n</header>\n")
		h.component(body)
		h.raw("\n</body>\n</html>\n")
		return h.err
	})
}
