package interactive

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shutter-remote/shutter-go/pkg/capture"
	"github.com/shutter-remote/shutter-go/pkg/i18n"
)

// Renderer draws capture views as text. It implements capture.Presenter,
// capture.Alerter and capture.Haptics.
type Renderer struct {
	catalog *i18n.Catalog

	mu  sync.Mutex
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, catalog *i18n.Catalog) *Renderer {
	return &Renderer{out: out, catalog: catalog}
}

// Render draws one view.
func (r *Renderer) Render(view capture.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, FormatView(view, r.catalog))
}

// ShowAlert draws the unreachable-companion alert.
func (r *Renderer) ShowAlert() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "  !! %s\n", r.catalog.Alert())
}

// DoublePulse stands in for the vibration motor.
func (r *Renderer) DoublePulse() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "  ~~ bzz bzz ~~")
}

// FormatView renders the number box with its banner on one line. Multi-line
// banners are joined with " / ".
func FormatView(view capture.View, catalog *i18n.Catalog) string {
	line := fmt.Sprintf("[ %2d ]", view.Display())
	banner := catalog.Banner(view.Banner)
	if banner == "" {
		return line
	}
	parts := strings.FieldsFunc(banner, func(r rune) bool { return r == '\n' })
	return line + " " + strings.Join(parts, " / ")
}
