package orderid

import (
	"fmt"
	"time"

	"github.com/teris-io/shortid"
)

// Prefix identifies fitline order numbers.
const Prefix = "FL"

// Generator produces human-readable order numbers of the form
// FL-20260901-XXXXXXXXX. The date segment keeps support lookups sane;
// the shortid suffix keeps the value unguessable and collision-safe.
type Generator struct {
	sid *shortid.Shortid
	now func() time.Time
}

// New builds a Generator. The worker id must be stable per process so
// concurrent instances never mint overlapping suffixes.
func New(worker uint8) (*Generator, error) {
	sid, err := shortid.New(worker, shortid.DefaultABC, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, fmt.Errorf("init shortid: %w", err)
	}
	return &Generator{sid: sid, now: time.Now}, nil
}

// Next mints a fresh order number.
func (g *Generator) Next() (string, error) {
	suffix, err := g.sid.Generate()
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", Prefix, g.now().UTC().Format("20060102"), suffix), nil
}
