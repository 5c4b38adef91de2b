package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/hokaccha/go-prettyjson"
	"github.com/openebl/pkiconsole/pkg/console/hierarchy"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/openebl/pkiconsole/pkg/pkix"
	"github.com/samber/lo"
)

const chainUnavailable = "chain unavailable"

type entityRow struct {
	model.Entity
	Status model.Status `json:"status"`
}

type pageOutput struct {
	Rows []entityRow `json:"rows"`
	Next string      `json:"next,omitempty"`
}

type pathOutput struct {
	IDs       []string             `json:"ids"`
	Stop      hierarchy.StopReason `json:"stop"`
	Truncated bool                 `json:"truncated"`
}

type detailOutput struct {
	Entity          entityRow   `json:"entity"`
	Fingerprint     string      `json:"fingerprint,omitempty"`
	Path            pathOutput  `json:"path"`
	Children        []entityRow `json:"children,omitempty"`
	Chain           string      `json:"chain,omitempty"`
	ChainIncomplete bool        `json:"chain_incomplete"`
}

type treeOutput struct {
	Entity entityRow `json:"entity"`
	Depth  int       `json:"depth"`
}

func writeJSON(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f := prettyjson.NewFormatter()
	f.DisabledColor = color.NoColor
	pretty, err := f.Format(raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}

func colorStatus(status model.Status) string {
	switch status {
	case model.StatusActive:
		return color.GreenString(string(status))
	case model.StatusOnHold:
		return color.YellowString(string(status))
	case model.StatusRevoked:
		return color.RedString(string(status))
	default:
		return color.HiBlackString(string(status))
	}
}

func toRows(entities []model.Entity, now time.Time) []entityRow {
	return lo.Map(entities, func(e model.Entity, _ int) entityRow {
		return entityRow{Entity: e, Status: hierarchy.DeriveStatus(e, now)}
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func renderPage(w io.Writer, page listing.Page[model.Entity], now time.Time, asJSON bool) error {
	if asJSON {
		return writeJSON(w, pageOutput{Rows: toRows(page.Rows, now), Next: page.Next})
	}
	renderRows(w, page.Rows, now)
	if page.Next != "" {
		fmt.Fprintf(w, "next bookmark: %s\n", page.Next)
	}
	return nil
}

func renderRows(w io.Writer, rows []model.Entity, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no entries)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tISSUER\tSTATUS\tNOT AFTER")
	for _, e := range rows {
		issuer := e.IssuerRef
		if e.IsSelfSigned() {
			issuer = model.IssuerSelfSigned
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.DisplayName(), issuer, colorStatus(hierarchy.DeriveStatus(e, now)), formatTime(e.NotAfter))
	}
	tw.Flush()
}

func formatPath(path hierarchy.Path) string {
	names := lo.Map(path.Entities, func(e model.Entity, _ int) string { return e.DisplayName() })
	line := strings.Join(names, " -> ")
	if path.Truncated {
		line = "... -> " + line
	}
	return line
}

// fingerprint is empty when the entity carries no parsable PEM.
func fingerprint(e model.Entity) string {
	if !e.HasPEM() {
		return ""
	}
	certs, err := pkix.ParseCertificate([]byte(e.PEM))
	if err != nil {
		return ""
	}
	return pkix.GetFingerPrintFromCertificate(certs[0])
}

func newDetailOutput(view hierarchy.DetailView, now time.Time) detailOutput {
	out := detailOutput{
		Entity:          entityRow{Entity: view.Subject(), Status: view.EffectiveStatus()},
		Fingerprint:     fingerprint(view.Subject()),
		Chain:           view.PemChain(),
		ChainIncomplete: view.ChainIncomplete(),
	}

	var path hierarchy.Path
	switch v := view.(type) {
	case hierarchy.CAView:
		path = v.Path
		out.Children = toRows(v.Children, now)
	case hierarchy.CertificateView:
		path = v.IssuerPath
	}
	out.Path = pathOutput{IDs: path.IDs(), Stop: path.Stop, Truncated: path.Truncated}
	return out
}

func renderDetail(w io.Writer, view hierarchy.DetailView, now time.Time, asJSON bool) error {
	if asJSON {
		return writeJSON(w, newDetailOutput(view, now))
	}

	e := view.Subject()
	fmt.Fprintf(w, "%s %s\n", e.Kind, e.ID)
	fmt.Fprintf(w, "  subject:     %s\n", e.DisplayName())
	fmt.Fprintf(w, "  serial:      %s\n", e.SerialNumber)
	if fp := fingerprint(e); fp != "" {
		fmt.Fprintf(w, "  fingerprint: %s\n", fp)
	}
	fmt.Fprintf(w, "  status:      %s\n", colorStatus(view.EffectiveStatus()))
	if view.EffectiveStatus().CanReactivate() {
		fmt.Fprintf(w, "  revocation:  %s (reversible)\n", e.RevocationReason)
	} else if e.RevocationReason != "" {
		fmt.Fprintf(w, "  revocation:  %s\n", e.RevocationReason)
	}
	fmt.Fprintf(w, "  not before:  %s\n", formatTime(e.NotBefore))
	fmt.Fprintf(w, "  not after:   %s\n", formatTime(e.NotAfter))

	switch v := view.(type) {
	case hierarchy.CAView:
		fmt.Fprintf(w, "  path:        %s\n", formatPath(v.Path))
		if v.Path.Truncated {
			fmt.Fprintf(w, "  path stop:   %s\n", v.Path.Stop)
		}
		fmt.Fprintf(w, "  children:    %d\n", len(v.Children))
		for _, child := range v.Children {
			fmt.Fprintf(w, "    - %s %s [%s]\n", child.ID, child.DisplayName(), colorStatus(hierarchy.DeriveStatus(child, now)))
		}
	case hierarchy.CertificateView:
		switch {
		case e.IsSelfSigned():
			fmt.Fprintln(w, "  issuer path: self-signed")
		case v.IssuerPath.Stop == hierarchy.StopTargetNotFound:
			fmt.Fprintf(w, "  issuer path: issuer %s not found\n", e.IssuerRef)
		default:
			fmt.Fprintf(w, "  issuer path: %s\n", formatPath(v.IssuerPath))
			if v.IssuerPath.Truncated {
				fmt.Fprintf(w, "  path stop:   %s\n", v.IssuerPath.Stop)
			}
		}
	}

	if view.ChainIncomplete() {
		fmt.Fprintln(w, color.YellowString("  chain:       incomplete"))
	}
	return nil
}

func renderChain(w io.Writer, view hierarchy.DetailView) error {
	if view.PemChain() == "" {
		_, err := fmt.Fprintln(w, chainUnavailable)
		return err
	}
	_, err := fmt.Fprintln(w, view.PemChain())
	return err
}

func renderTree(w io.Writer, entries []hierarchy.TreeEntry, now time.Time, asJSON bool) error {
	if asJSON {
		return writeJSON(w, lo.Map(entries, func(entry hierarchy.TreeEntry, _ int) treeOutput {
			return treeOutput{
				Entity: entityRow{Entity: entry.Entity, Status: hierarchy.DeriveStatus(entry.Entity, now)},
				Depth:  entry.Depth,
			}
		}))
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "(no entries)")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintf(w, "%s%s (%s) [%s]\n",
			strings.Repeat("  ", entry.Depth), entry.Entity.DisplayName(), entry.Entity.ID,
			colorStatus(hierarchy.DeriveStatus(entry.Entity, now)),
		)
	}
	return nil
}
