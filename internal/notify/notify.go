// Package notify delivers rendered reports to the configured
// channels. The dispatcher consults the push gate, fans out across
// channels in parallel and keeps sends within one channel strictly
// ordered and paced.
package notify

import (
	"context"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

// Channel is one delivery target. Implementations are constructed only
// when their credentials are present.
type Channel interface {
	// Name identifies the channel in results and logs.
	Name() string
	// Kind selects the markup dialect the channel accepts.
	Kind() render.Kind
	// MaxBytes is the channel's message size limit.
	MaxBytes() int
	// Send delivers one message body. Title carries the report type
	// for transports with a separate subject field.
	Send(ctx context.Context, title, body string) error
}
