// Recent-history HTTP handler.
//
// Renders the recent-history cache (newest first) as a human-readable HTML
// page for diagnostics. The template is embedded in the binary; it receives
// the ordered snapshot and is purely a view collaborator; no parsing state
// lives here. Counterparty names are title-cased for display only; the
// underlying ParsedTransaction keeps the verbatim extraction.
package handlers

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-sms-webhook/internal/http/middleware"
)

//go:embed templates/recent.html
var recentFS embed.FS

// recentTmpl is parsed once at init; a broken embedded template is a build
// defect, so Must is appropriate.
var recentTmpl = template.Must(
	template.New("recent.html").Funcs(template.FuncMap{
		// str renders an optional field, or an em dash when absent.
		"str": func(p *string) string {
			if p == nil {
				return "—"
			}
			return *p
		},
		// amount renders the credited amount with two decimals.
		"amount": func(p *float64) string {
			if p == nil {
				return "—"
			}
			return strconv.FormatFloat(*p, 'f', 2, 64)
		},
		// properName title-cases the counterparty for display (UPI SMS text
		// is usually all-caps). A cases.Caser is not safe for concurrent
		// use, so one is created per call.
		"properName": func(p *string) string {
			if p == nil {
				return "—"
			}
			return cases.Title(language.English).String(*p)
		},
		"prettyJSON": func(v any) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return ""
			}
			return string(b)
		},
	}).ParseFS(recentFS, "templates/recent.html"),
)

// RecentEntries godoc
// @ID          recentEntries
// @Summary     Recent webhook deliveries
// @Description Renders the last accepted request/response pairs, newest first.
// @Tags        Status
// @Produce     html
// @Success     200  {string}  string  "HTML page"
// @Router      /recent [get]
func (h *Handlers) RecentEntries(c *gin.Context) {
	entries := h.hist.Snapshot()

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := recentTmpl.Execute(c.Writer, gin.H{
		"Entries": entries,
		"Count":   len(entries),
	}); err != nil {
		// Headers are already written; all we can do is log.
		middleware.LoggerFrom(c).Error().Err(err).Msg("recent page render failed")
	}
}
