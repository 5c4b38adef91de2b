// Package cli is the text front end of the PKI console. It wires the REST client, the paged list
// controller and the hierarchy resolver behind a kong command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	otlp_util "github.com/bluexlab/otlp-util-go"
	"github.com/openebl/pkiconsole/pkg/console/client"
	"github.com/openebl/pkiconsole/pkg/console/hierarchy"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const (
	appName string = "pki-console"

	searchField = "subject.common_name"
)

type App struct{}

type ListFlags struct {
	PageSize int      `long:"page-size" help:"Page size, page_size of the configuration when omitted"`
	SortBy   string   `long:"sort-by" help:"Field to sort by"`
	SortMode string   `long:"sort-mode" enum:"asc,desc" help:"Sort direction" default:"asc"`
	Filter   []string `long:"filter" help:"Filter in field[operator]value form, repeatable"`
}

type CAListCmd struct {
	ListFlags
	Bookmark string `long:"bookmark" help:"Bookmark of the page to list"`
}

type CABrowseCmd struct {
	ListFlags
}

type CAGetCmd struct {
	ID string `arg:"" help:"CA ID"`
}

type CAChainCmd CAGetCmd

type CATreeCmd struct{}

type CertListCmd CAListCmd
type CertBrowseCmd CABrowseCmd

type CertGetCmd struct {
	SerialNumber string `arg:"" help:"Certificate serial number"`
}

type CertChainCmd CertGetCmd

type ConsoleCli struct {
	Config    string `short:"c" long:"config" type:"existingfile" help:"Path to the configuration file"`
	Server    string `short:"s" long:"server" help:"Server address, overrides the configuration"`
	Requester string `short:"r" long:"requester" help:"Requester name, overrides the configuration"`
	JSON      bool   `long:"json" help:"Print JSON instead of text"`

	CA struct {
		List   CAListCmd   `cmd:"" help:"List one page of CAs."`
		Browse CABrowseCmd `cmd:"" help:"Browse CAs page by page."`
		Get    CAGetCmd    `cmd:"" help:"Show a CA with its path to the root and its children."`
		Chain  CAChainCmd  `cmd:"" help:"Print the PEM chain of a CA."`
		Tree   CATreeCmd   `cmd:"" help:"Print the whole CA hierarchy."`
	} `cmd:"" name:"ca" help:"Certificate authorities."`

	Cert struct {
		List   CertListCmd   `cmd:"" help:"List one page of certificates."`
		Browse CertBrowseCmd `cmd:"" help:"Browse certificates page by page."`
		Get    CertGetCmd    `cmd:"" help:"Show a certificate with its issuer path."`
		Chain  CertChainCmd  `cmd:"" help:"Print the PEM chain of a certificate."`
	} `cmd:"" help:"End-entity certificates."`
}

func (*App) Run() {
	cli := ConsoleCli{}
	ctx := kong.Parse(&cli,
		kong.Name(appName),
		kong.Description("Browse the CAs and certificates of a PKI."),
		kong.UsageOnError(),
	)
	if err := cli.run(ctx); err != nil {
		logrus.Errorf("failed to run command: %v", err)
		os.Exit(1)
	}
}

// LoadConfig returns the configuration with the command line overrides applied.
func (cli *ConsoleCli) LoadConfig() (Config, error) {
	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return Config{}, err
	}
	if cli.Server != "" {
		cfg.Server = cli.Server
	}
	if cli.Requester != "" {
		cfg.Requester = cli.Requester
	}
	return cfg, cfg.Validate()
}

func (cli *ConsoleCli) run(kctx *kong.Context) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if endpoint := cfg.OTLPEndpoint; endpoint != "" {
		exporter, err := otlp_util.InitExporter(
			otlp_util.WithContext(ctx),
			otlp_util.WithEndPoint(endpoint),
			otlp_util.WithServiceName(appName),
			otlp_util.WithInSecure(),
			otlp_util.WithErrorHandler(func(err error) {
				logrus.Warnf("OTLP error: %v", err)
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize OTLP exporter: %w", err)
		}
		defer func() { _ = exporter.Shutdown(context.Background()) }()
	}

	restClient := client.NewRestClient(cfg.Server,
		client.WithRequester(cfg.Requester),
		client.WithTimeout(cfg.Timeout()),
		client.WithRateLimit(cfg.RequestsPerSecond),
	)
	console := NewConsole(restClient, cfg, WithJSON(cli.JSON))
	return Execute(ctx, kctx, console)
}

// Execute runs the parsed command against console.
func Execute(ctx context.Context, kctx *kong.Context, console *Console) error {
	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(console)
}

func (f ListFlags) request(defaultPageSize int) (listing.FetchRequest, error) {
	req := listing.FetchRequest{PageSize: f.PageSize}
	if req.PageSize == 0 {
		req.PageSize = defaultPageSize
	}
	if f.SortBy != "" {
		direction := listing.SortAsc
		if f.SortMode != "" {
			var err error
			if direction, err = listing.ParseSortDirection(f.SortMode); err != nil {
				return listing.FetchRequest{}, err
			}
		}
		req.Sort = listing.SortSpec{Field: f.SortBy, Direction: direction}
	}
	for _, raw := range f.Filter {
		filter, err := listing.ParseFilter(raw)
		if err != nil {
			return listing.FetchRequest{}, err
		}
		req.Filters = append(req.Filters, filter)
	}
	return req, listing.ValidateFetchRequest(req)
}

func (c *Console) ListPage(ctx context.Context, kind model.EntityKind, req listing.FetchRequest) error {
	var (
		page listing.Page[model.Entity]
		err  error
	)
	switch kind {
	case model.KindCA:
		page, err = c.api.ListCAs(ctx, req)
	default:
		page, err = c.api.ListCertificates(ctx, req)
	}
	if err != nil {
		return err
	}
	return renderPage(c.out, page, c.now(), c.asJSON)
}

func (c *Console) CAView(ctx context.Context, id string) (hierarchy.CAView, error) {
	ca, err := c.api.GetCA(ctx, id)
	if errors.Is(err, model.ErrDataNotFound) {
		return hierarchy.CAView{}, fmt.Errorf("CA %s not found%w", id, model.ErrEntityNotFound)
	} else if err != nil {
		return hierarchy.CAView{}, err
	}
	cas, err := c.loadCAs(ctx)
	if err != nil {
		return hierarchy.CAView{}, err
	}
	// The record fetched on its own is the freshest one and replaces the listed copy.
	if lo.ContainsBy(cas, func(e model.Entity) bool { return e.ID == ca.ID }) {
		cas = lo.Map(cas, func(e model.Entity, _ int) model.Entity {
			if e.ID == ca.ID {
				return ca
			}
			return e
		})
	} else {
		cas = append(cas, ca)
	}
	view, ok := hierarchy.NewCAView(ca.ID, cas, c.now(), c.resolveOptions()...)
	if !ok {
		return hierarchy.CAView{}, fmt.Errorf("CA %s not found%w", id, model.ErrEntityNotFound)
	}
	return view, nil
}

func (c *Console) CertificateView(ctx context.Context, serialNumber string) (hierarchy.CertificateView, error) {
	cert, err := c.api.GetCertificate(ctx, serialNumber)
	if err != nil {
		return hierarchy.CertificateView{}, err
	}
	cas, err := c.loadCAs(ctx)
	if err != nil {
		return hierarchy.CertificateView{}, err
	}
	return hierarchy.NewCertificateView(cert, cas, c.now(), c.resolveOptions()...), nil
}

func (cmd *CAListCmd) Run(ctx context.Context, console *Console) error {
	req, err := cmd.request(console.cfg.PageSize)
	if err != nil {
		return err
	}
	req.Bookmark = cmd.Bookmark
	if err := console.ListPage(ctx, model.KindCA, req); err != nil {
		return fmt.Errorf("failed to list CAs: %w", err)
	}
	return nil
}

func (cmd *CABrowseCmd) Run(ctx context.Context, console *Console) error {
	return console.browse(ctx, "ca", listing.FetcherFunc[model.Entity](console.api.ListCAs), cmd.ListFlags, searchField)
}

func (cmd *CAGetCmd) Run(ctx context.Context, console *Console) error {
	view, err := console.CAView(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get CA: %w", err)
	}
	return renderDetail(console.out, view, console.now(), console.asJSON)
}

func (cmd *CAChainCmd) Run(ctx context.Context, console *Console) error {
	view, err := console.CAView(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get CA: %w", err)
	}
	if view.ChainIncomplete() {
		logrus.Warnf("chain of CA %s is incomplete: %s", cmd.ID, view.Path.Stop)
	}
	return renderChain(console.out, view)
}

func (*CATreeCmd) Run(ctx context.Context, console *Console) error {
	cas, err := console.loadCAs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load CAs: %w", err)
	}
	return renderTree(console.out, hierarchy.Tree(cas), console.now(), console.asJSON)
}

func (cmd *CertListCmd) Run(ctx context.Context, console *Console) error {
	req, err := cmd.request(console.cfg.PageSize)
	if err != nil {
		return err
	}
	req.Bookmark = cmd.Bookmark
	if err := console.ListPage(ctx, model.KindCertificate, req); err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}
	return nil
}

func (cmd *CertBrowseCmd) Run(ctx context.Context, console *Console) error {
	return console.browse(ctx, "cert", listing.FetcherFunc[model.Entity](console.api.ListCertificates), cmd.ListFlags, searchField)
}

func (cmd *CertGetCmd) Run(ctx context.Context, console *Console) error {
	view, err := console.CertificateView(ctx, cmd.SerialNumber)
	if err != nil {
		return fmt.Errorf("failed to get certificate: %w", err)
	}
	return renderDetail(console.out, view, console.now(), console.asJSON)
}

func (cmd *CertChainCmd) Run(ctx context.Context, console *Console) error {
	view, err := console.CertificateView(ctx, cmd.SerialNumber)
	if err != nil {
		return fmt.Errorf("failed to get certificate: %w", err)
	}
	if view.ChainIncomplete() {
		logrus.Warnf("chain of certificate %s is incomplete: %s", cmd.SerialNumber, view.IssuerPath.Stop)
	}
	return renderChain(console.out, view)
}
