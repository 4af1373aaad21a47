package looper

import (
	"io"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Log field conventions.
const (
	fieldCategory = "category"

	categoryWake     = "wake"
	categoryPoll     = "poll"
	categoryCallback = "callback"
	categoryRegistry = "registry"
)

// NewLogger returns a JSON logger writing to w, suitable for WithLogger.
//
// Rate-limited messages, such as repeated wait failures, are logged at most
// once per minute from each call site.
func NewLogger(w io.Writer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(level),
		stumpy.L.WithCategoryRateLimits(map[time.Duration]int{
			time.Minute: 1,
		}),
	).Logger()
}
