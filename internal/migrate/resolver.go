// Package migrate resolves the official Georef identifiers of legacy client
// rows whose province and locality were typed as free text.
package migrate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/carroceria-sur/taller/pkg/georef"
)

// Status is the outcome of resolving one row.
type Status string

// Row statuses written to the estado column.
const (
	StatusOK         Status = "ok"
	StatusNoProvince Status = "sin_provincia"
	StatusNoLocality Status = "sin_localidad"
	StatusNoID       Status = "sin_id"
	StatusEmpty      Status = "vacio"
	StatusError      Status = "error"
)

// OutputColumns are appended to the input header.
var OutputColumns = []string{"provincia_id", "provincia_nombre", "localidad_id", "localidad_nombre", "estado"}

// Options configures a Resolver.
type Options struct {
	Concurrency       int
	RequestsPerSecond float64
	ProvinceColumn    string
	LocalityColumn    string
}

// Result is the resolution of one row.
type Result struct {
	Province georef.Ref
	Locality georef.Ref
	Status   Status
	Err      error
}

// Summary counts results by status.
type Summary struct {
	RunID   string
	Total   int
	Counts  map[Status]int
	Elapsed time.Duration
}

// Resolver looks up legacy names with bounded concurrency.
type Resolver struct {
	client  georef.Client
	opts    Options
	limiter *rate.Limiter
}

// NewResolver creates a Resolver.
func NewResolver(client georef.Client, opts Options) *Resolver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.ProvinceColumn == "" {
		opts.ProvinceColumn = "provincia"
	}
	if opts.LocalityColumn == "" {
		opts.LocalityColumn = "localidad"
	}
	return &Resolver{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run reads in, resolves every row and writes the result to out.
func (r *Resolver) Run(ctx context.Context, in, out, sheetName string) (*Summary, error) {
	sheet, err := ReadSheet(in, sheetName)
	if err != nil {
		return nil, err
	}

	results, summary, err := r.ResolveSheet(ctx, sheet)
	if err != nil {
		return nil, err
	}

	header := append(append([]string{}, sheet.Header...), OutputColumns...)
	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cells := make([]string, len(sheet.Header))
		copy(cells, row)
		res := results[i]
		rows[i] = append(cells,
			res.Province.ID, res.Province.Name,
			res.Locality.ID, res.Locality.Name,
			string(res.Status),
		)
	}
	if err := WriteSheet(out, sheet.Name, header, rows); err != nil {
		return nil, err
	}
	return summary, nil
}

// ResolveSheet resolves each data row of sheet. Lookup errors are recorded
// on the row; only cancellation aborts the run.
func (r *Resolver) ResolveSheet(ctx context.Context, sheet *Sheet) ([]Result, *Summary, error) {
	provCol := sheet.Column(r.opts.ProvinceColumn)
	if provCol < 0 {
		return nil, nil, eris.Errorf("migrate: column %q not found", r.opts.ProvinceColumn)
	}
	locCol := sheet.Column(r.opts.LocalityColumn)

	summary := &Summary{RunID: uuid.New().String(), Total: len(sheet.Rows), Counts: map[Status]int{}}
	log := zap.L().With(zap.String("run_id", summary.RunID))
	log.Info("migrate: resolving rows", zap.Int("rows", len(sheet.Rows)))
	start := time.Now()

	results := make([]Result, len(sheet.Rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, row := range sheet.Rows {
		province := cell(row, provCol)
		locality := cell(row, locCol)
		g.Go(func() error {
			res, err := r.resolve(gctx, province, locality)
			if err != nil {
				return err
			}
			results[i] = res
			if res.Err != nil {
				log.Warn("migrate: row failed",
					zap.Int("row", i+2),
					zap.String("provincia", province),
					zap.String("localidad", locality),
					zap.Error(res.Err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "migrate: resolve rows")
	}

	for _, res := range results {
		summary.Counts[res.Status]++
	}
	summary.Elapsed = time.Since(start)
	log.Info("migrate: done",
		zap.Int("total", summary.Total),
		zap.Int("ok", summary.Counts[StatusOK]),
		zap.Int("sin_provincia", summary.Counts[StatusNoProvince]),
		zap.Int("sin_localidad", summary.Counts[StatusNoLocality]),
		zap.Int("sin_id", summary.Counts[StatusNoID]),
		zap.Int("vacio", summary.Counts[StatusEmpty]),
		zap.Int("error", summary.Counts[StatusError]),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return results, summary, nil
}

// resolve returns an error only when ctx is done; lookup failures are
// reported in Result.
func (r *Resolver) resolve(ctx context.Context, province, locality string) (Result, error) {
	province = strings.TrimSpace(province)
	locality = strings.TrimSpace(locality)
	if province == "" && locality == "" {
		return Result{Status: StatusEmpty}, nil
	}
	if province == "" {
		return Result{Status: StatusNoProvince}, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	provinces, err := r.client.Provinces(ctx, province, 0)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{Status: StatusError, Err: err}, nil
	}
	p, ok := bestMatch(provinces, province, func(p georef.Province) string { return p.Name })
	if !ok {
		return Result{Status: StatusNoProvince}, nil
	}
	res := Result{Province: georef.Ref{ID: p.ID, Name: p.Name}, Status: StatusNoLocality}
	if locality == "" {
		return res, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return Result{}, err
	}
	localities, err := r.client.Localities(ctx, p.ID, locality, 0)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		res.Status = StatusError
		res.Err = err
		return res, nil
	}
	l, ok := bestMatch(localities, locality, func(l georef.Locality) string { return l.Name })
	if !ok {
		return res, nil
	}
	res.Locality = georef.Ref{ID: l.ID, Name: l.Name}
	// Bundled fallback localities carry a name but no official id.
	if l.ID == "" {
		res.Status = StatusNoID
		return res, nil
	}
	res.Status = StatusOK
	return res, nil
}

// bestMatch prefers the item whose folded name equals the legacy text and
// falls back to the first candidate.
func bestMatch[T any](items []T, legacy string, name func(T) string) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	want := georef.FoldName(legacy)
	for _, it := range items {
		if georef.FoldName(name(it)) == want {
			return it, true
		}
	}
	return items[0], true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
