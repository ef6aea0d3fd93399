package format

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

var (
	currencyPattern = regexp.MustCompile(`(₹[\d,]+\.?\d*)`)
	percentPattern  = regexp.MustCompile(`([\d,]+\.?\d*%)`)
	metricPattern   = regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)(\s*(?:rows|entries|points|days|months|years))\b`)

	strongOpen  = regexp.MustCompile(`<(/?)strong>`)
	emOpen      = regexp.MustCompile(`<(/?)em>`)
	paraWrapper = regexp.MustCompile(`^<p>(.*)</p>$`)
)

// Response renders inline markdown in the assistant text to HTML tags and
// highlights figures a reader would scan for. Line structure is preserved;
// each line is rendered independently so model output with hard newlines
// keeps its shape.
func Response(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = renderInline(line)
	}
	out := strings.Join(lines, "\n")

	out = currencyPattern.ReplaceAllString(out, "<b>$1</b>")
	out = percentPattern.ReplaceAllString(out, "<b>$1</b>")
	out = metricPattern.ReplaceAllString(out, "<b>$1</b>$2")
	return out
}

// renderInline converts one line of markdown to HTML and unwraps the
// paragraph element the renderer adds.
func renderInline(line string) string {
	if strings.TrimSpace(line) == "" {
		return line
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	// Smartypants substitutions are left off so quotes and dashes in model
	// output survive verbatim.
	renderer := html.NewRenderer(html.RendererOptions{})
	rendered := strings.TrimSpace(string(markdown.ToHTML([]byte(line), p, renderer)))
	if m := paraWrapper.FindStringSubmatch(rendered); m != nil {
		rendered = m[1]
	}
	rendered = strongOpen.ReplaceAllString(rendered, "<${1}b>")
	rendered = emOpen.ReplaceAllString(rendered, "<${1}i>")
	return rendered
}
