package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/openebl/pkiconsole/pkg/console/client"
	"github.com/openebl/pkiconsole/pkg/console/hierarchy"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
)

// ConsoleAPI is the part of the remote PKI API the console needs.
type ConsoleAPI interface {
	ListCAs(ctx context.Context, req listing.FetchRequest) (listing.Page[model.Entity], error)
	ListCertificates(ctx context.Context, req listing.FetchRequest) (listing.Page[model.Entity], error)
	GetCA(ctx context.Context, id string) (model.Entity, error)
	GetCertificate(ctx context.Context, serialNumber string) (model.Entity, error)
}

// Console holds what every command runs against.
type Console struct {
	api    ConsoleAPI
	cfg    Config
	in     io.Reader
	out    io.Writer
	asJSON bool
	now    func() time.Time
}

type ConsoleOption func(*Console)

func WithInput(in io.Reader) ConsoleOption {
	return func(c *Console) {
		c.in = in
	}
}

func WithOutput(out io.Writer) ConsoleOption {
	return func(c *Console) {
		c.out = out
	}
}

func WithJSON(asJSON bool) ConsoleOption {
	return func(c *Console) {
		c.asJSON = asJSON
	}
}

func WithClock(now func() time.Time) ConsoleOption {
	return func(c *Console) {
		c.now = now
	}
}

func NewConsole(api ConsoleAPI, cfg Config, opts ...ConsoleOption) *Console {
	c := &Console{
		api: api,
		cfg: cfg,
		in:  os.Stdin,
		out: os.Stdout,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) resolveOptions() []hierarchy.ResolveOption {
	return []hierarchy.ResolveOption{hierarchy.WithMaxDepth(c.cfg.MaxPathDepth)}
}

// loadCAs returns the whole CA collection the resolver walks over.
func (c *Console) loadCAs(ctx context.Context) ([]model.Entity, error) {
	loader := client.NewLoader(
		listing.FetcherFunc[model.Entity](c.api.ListCAs),
		client.WithLoaderPageSize(c.cfg.LoadPageSize),
		client.WithMaxPages(c.cfg.MaxLoadPages),
		client.WithMaxRetry(c.cfg.MaxRetry),
	)
	return loader.LoadAll(ctx)
}
