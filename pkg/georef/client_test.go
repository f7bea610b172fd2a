package georef

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carroceria-sur/taller/internal/resilience"
)

const provincesBody = `{
  "cantidad": 2,
  "provincias": [
    {"id": "14", "nombre": "Córdoba", "nombre_completo": "Provincia de Córdoba", "iso_id": "AR-X", "categoria": "Provincia", "centroide": {"lat": -32.14, "lon": -63.80}},
    {"id": "18", "nombre": "Corrientes", "nombre_completo": "Provincia de Corrientes", "iso_id": "AR-W", "categoria": "Provincia", "centroide": {"lat": -28.77, "lon": -57.80}}
  ]
}`

const localitiesBody = `{
  "cantidad": 1,
  "localidades": [
    {"id": "14014010000", "nombre": "Córdoba", "categoria": "Componente de localidad compuesta",
     "departamento": {"id": "14014", "nombre": "Capital"},
     "municipio": {"id": "140070", "nombre": "Córdoba"},
     "provincia": {"id": "14", "nombre": "Córdoba"},
     "centroide": {"lat": -31.41, "lon": -64.18}}
  ]
}`

const addressesBody = `{
  "cantidad": 1,
  "direcciones": [
    {"nomenclatura": "AV SANTA FE 1234, Comuna 2, Ciudad Autónoma de Buenos Aires",
     "calle": {"id": "0200701010295", "nombre": "AV SANTA FE", "categoria": "AV"},
     "altura": {"valor": 1234, "unidad": null},
     "departamento": {"id": "02014", "nombre": "Comuna 2"},
     "localidad_censal": {"id": "02000010", "nombre": "Ciudad Autónoma de Buenos Aires"},
     "provincia": {"id": "02", "nombre": "Ciudad Autónoma de Buenos Aires"},
     "ubicacion": {"lat": -34.59, "lon": -58.39}}
  ]
}`

// fastRetry keeps the retry shape (jitter below base) at millisecond scale.
func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    4,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		Multiplier:     2,
		MaxJitter:      500 * time.Microsecond,
	}
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *httpClient {
	t.Helper()
	base := []Option{
		WithBaseURL(baseURL),
		WithRetry(fastRetry()),
		WithRateLimit(resilience.WindowConfig{Window: time.Minute}),
	}
	c, err := newHTTPClient(append(base, opts...)...)
	require.NoError(t, err)
	return c
}

// countingServer replies with body after counting the call.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(WithBaseURL("not a url"))
	assert.Error(t, err)
}

func TestProvinces_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/provincias", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "cor", q.Get("nombre"))
		assert.Equal(t, "completo", q.Get("campos"))
		assert.Equal(t, "nombre", q.Get("orden"))
		assert.Equal(t, "24", q.Get("max"))
		_, _ = w.Write([]byte(provincesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Provinces(context.Background(), " cor ", 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "14", got[0].ID)
	assert.Equal(t, "Provincia de Córdoba", got[0].FullName)
	assert.Equal(t, "AR-X", got[0].ISOID)
	assert.InDelta(t, -32.14, got[0].Centroid.Lat, 0.001)
}

func TestProvinces_OmitsEmptyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["nombre"]
		assert.False(t, ok)
		assert.Equal(t, "5", r.URL.Query().Get("max"))
		_, _ = w.Write([]byte(provincesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Provinces(context.Background(), "", 5)
	require.NoError(t, err)
}

func TestLocalities_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/localidades", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "14", q.Get("provincia"))
		assert.Equal(t, "córdoba", q.Get("nombre"))
		assert.Equal(t, "completo", q.Get("campos"))
		assert.Equal(t, "100", q.Get("max"))
		_, _ = w.Write([]byte(localitiesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Localities(context.Background(), "14", "córdoba", 0)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Capital", got[0].Department.Name)
	assert.Equal(t, "140070", got[0].Municipality.ID)
	assert.Equal(t, Ref{ID: "14", Name: "Córdoba"}, got[0].Province)
}

func TestLocalities_EmptyProvinceFailsFast(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, localitiesBody)
	c := newTestClient(t, srv.URL)

	for _, id := range []string{"", "   "} {
		_, err := c.Localities(context.Background(), id, "x", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrProvinceRequired)
		assert.Equal(t, KindValidation, KindOf(err))
		assert.Equal(t, "El ID de provincia es requerido", err.Error())

		_, err = c.AllLocalities(context.Background(), id)
		assert.ErrorIs(t, err, ErrProvinceRequired)
	}
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, c.cache.len())
}

func TestAllLocalities_UsesLargeMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["nombre"]
		assert.False(t, ok)
		assert.Equal(t, "1000", r.URL.Query().Get("max"))
		_, _ = w.Write([]byte(localitiesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.AllLocalities(context.Background(), "14")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchLocalities_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "cordo", q.Get("nombre"))
		assert.Equal(t, "estandar", q.Get("campos"))
		assert.Equal(t, "10", q.Get("max"))
		_, ok := q["provincia"]
		assert.False(t, ok)
		_, _ = w.Write([]byte(localitiesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.SearchLocalities(context.Background(), "cordo", "", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSearchLocalities_EmptyText(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, localitiesBody)
	c := newTestClient(t, srv.URL)

	_, err := c.SearchLocalities(context.Background(), " ", "14", 0)
	assert.ErrorIs(t, err, ErrQueryRequired)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNormalizeAddress_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/direcciones", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "santa fe 1234", q.Get("direccion"))
		assert.Equal(t, "02", q.Get("provincia"))
		_, ok := q["localidad"]
		assert.False(t, ok)
		assert.Equal(t, "10", q.Get("max"))
		_, _ = w.Write([]byte(addressesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.NormalizeAddress(context.Background(), AddressQuery{Address: "santa fe 1234", ProvinceID: "02"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AV SANTA FE", got[0].Street.Name)
	require.NotNil(t, got[0].Height.Value)
	assert.Equal(t, 1234, *got[0].Height.Value)
	assert.Equal(t, "Comuna 2", got[0].Department.Name)
}

func TestNormalizeAddress_EmptyAddress(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.NormalizeAddress(context.Background(), AddressQuery{ProvinceID: "02"})
	assert.ErrorIs(t, err, ErrQueryRequired)
}

func TestConcurrentIdenticalLookups_ShareOneCall(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(provincesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewMetrics(prometheus.NewRegistry())
	c := newTestClient(t, srv.URL, WithMetrics(m))

	var wg sync.WaitGroup
	results := make([][]Province, 2)
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Provinces(context.Background(), "", 0)
		}(i)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.cache.WithLabelValues(string(OpProvinces), "miss")) == 2
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0], results[1])
}

func TestConcurrentIdenticalLookups_ShareError(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	m := NewMetrics(nil)
	c := newTestClient(t, srv.URL, WithMetrics(m))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.SearchLocalities(context.Background(), "rosario", "82", 0)
		}(i)
	}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.cache.WithLabelValues(string(OpSearchLocalities), "miss")) == 2
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	require.Error(t, errs[0])
	assert.Same(t, errs[0], errs[1])
	assert.Equal(t, KindBadRequest, KindOf(errs[0]))
}

func TestCache_TTLBoundary(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, provincesBody)
	c := newTestClient(t, srv.URL)

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := t0
	c.cache.nowFunc = func() time.Time { return now }
	ttl := DefaultTTLs().Provinces

	_, err := c.Provinces(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	now = t0.Add(ttl - time.Second)
	_, err = c.Provinces(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "entry before ttl must be served from cache")

	now = t0.Add(ttl + time.Second)
	_, err = c.Provinces(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "expired entry must be refetched")
}

func TestCache_KeyIncludesParams(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, localitiesBody)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.Localities(ctx, "14", "", 0)
	require.NoError(t, err)
	_, err = c.Localities(ctx, "14", "", 0)
	require.NoError(t, err)
	_, err = c.Localities(ctx, "82", "", 0)
	require.NoError(t, err)
	_, err = c.AllLocalities(ctx, "14")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, c.cache.len())
}

func TestBadRequest_NoRetry(t *testing.T) {
	srv, calls := countingServer(t, http.StatusBadRequest, `{"errores":[]}`)
	c := newTestClient(t, srv.URL)

	_, err := c.SearchLocalities(context.Background(), "rosario", "", 0)

	require.Error(t, err)
	assert.Equal(t, "Parámetros de búsqueda inválidos", err.Error())
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Equal(t, int32(1), calls.Load())

	var f *resilience.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, http.StatusBadRequest, f.StatusCode)
}

func TestRateLimited_RetriesWithIncreasingDelays(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(localitiesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	var mu sync.Mutex
	var delays []time.Duration
	retry := fastRetry()
	retry.OnRetry = func(_ int, d time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, resilience.KindRateLimited, resilience.KindOf(err))
		delays = append(delays, d)
	}
	c := newTestClient(t, srv.URL, WithRetry(retry))

	got, err := c.Localities(context.Background(), "14", "", 0)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, delays, 2)
	assert.Greater(t, delays[1], delays[0])
}

func TestRateLimited_Exhausted(t *testing.T) {
	srv, calls := countingServer(t, http.StatusTooManyRequests, "")
	c := newTestClient(t, srv.URL)

	_, err := c.SearchLocalities(context.Background(), "rosario", "", 0)

	require.Error(t, err)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, "Demasiadas solicitudes. Por favor, intente nuevamente en unos momentos.", err.Error())
	assert.Equal(t, int32(4), calls.Load())
}

func TestServerError_MapsToUnknown(t *testing.T) {
	srv, calls := countingServer(t, http.StatusInternalServerError, "boom")
	c := newTestClient(t, srv.URL)

	_, err := c.NormalizeAddress(context.Background(), AddressQuery{Address: "corrientes 348"})

	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "Error al consultar el servicio de georreferenciación", err.Error())
	assert.Equal(t, int32(4), calls.Load())
}

func TestMalformedBody_MapsToUnknown(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, "{not json")
	c := newTestClient(t, srv.URL, WithRetry(resilience.RetryConfig{MaxAttempts: 1}))

	_, err := c.SearchLocalities(context.Background(), "rosario", "", 0)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestNetworkFailure_Propagated(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.SearchLocalities(context.Background(), "rosario", "", 0)

	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.Equal(t, "Error de conexión con el servicio de georreferenciación. Intente nuevamente.", err.Error())
	assert.Equal(t, 0, c.cache.len())
}

func TestProvinces_UnreachableServesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m := NewMetrics(nil)
	c := newTestClient(t, url, WithMetrics(m))
	got, err := c.Provinces(context.Background(), "cor", 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Córdoba", got[0].Name)
	assert.Equal(t, "Corrientes", got[1].Name)
	assert.InDelta(t, 1, testutil.ToFloat64(m.fallbacks.WithLabelValues(string(OpProvinces))), 0)
	assert.Equal(t, 0, c.cache.len(), "fallback data is not cached")
}

func TestProvinces_BadRequestServesFallback(t *testing.T) {
	srv, calls := countingServer(t, http.StatusBadRequest, "")
	c := newTestClient(t, srv.URL)

	got, err := c.Provinces(context.Background(), "", 3)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(1), calls.Load())
}

func TestLocalities_FallbackShape(t *testing.T) {
	srv, _ := countingServer(t, http.StatusServiceUnavailable, "")
	c := newTestClient(t, srv.URL)

	got, err := c.Localities(context.Background(), "94", "", 0)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Río Grande", got[0].Name)
	assert.Equal(t, "Tolhuin", got[1].Name)
	assert.Equal(t, "Ushuaia", got[2].Name)
	for _, l := range got {
		assert.Empty(t, l.ID)
		assert.Equal(t, Ref{}, l.Department)
		assert.Equal(t, Ref{}, l.Municipality)
		assert.Equal(t, Centroid{}, l.Centroid)
		assert.Equal(t, "94", l.Province.ID)
		assert.Equal(t, "Tierra del Fuego, Antártida e Islas del Atlántico Sur", l.Province.Name)
	}
}

func TestSearchLocalities_LocalPolicy(t *testing.T) {
	srv, _ := countingServer(t, http.StatusBadGateway, "")
	c := newTestClient(t, srv.URL, WithFallbackPolicy(OpSearchLocalities, FallbackLocal))

	got, err := c.SearchLocalities(context.Background(), "san", "", 3)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, l := range got {
		assert.Contains(t, FoldName(l.Name), "san")
	}
}

func TestProvinces_PropagatePolicy(t *testing.T) {
	srv, _ := countingServer(t, http.StatusTooManyRequests, "")
	c := newTestClient(t, srv.URL, WithFallbackPolicy(OpProvinces, FallbackPropagate))

	_, err := c.Provinces(context.Background(), "", 0)
	assert.Equal(t, KindRateLimited, KindOf(err))
}

func TestCallerCancel_FlightStillFillsCache(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(localitiesBody)) //nolint:errcheck
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := c.Localities(ctx, "14", "", 0)
		done <- err
	}()

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return c.cache.len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCacheHit_RecordsMetrics(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, provincesBody)
	m := NewMetrics(prometheus.NewRegistry())
	c := newTestClient(t, srv.URL, WithMetrics(m))

	for range 3 {
		_, err := c.Provinces(context.Background(), "", 0)
		require.NoError(t, err)
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.cache.WithLabelValues(string(OpProvinces), "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cache.WithLabelValues(string(OpProvinces), "miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requests.WithLabelValues(string(OpProvinces), "ok")), 0)
}

func TestNewMetrics_SeriesPerOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.Equal(t, len(Operations), testutil.CollectAndCount(m.fallbacks))
	assert.Equal(t, 2*len(Operations), testutil.CollectAndCount(m.cache))
	for _, op := range Operations {
		assert.InDelta(t, 0, testutil.ToFloat64(m.fallbacks.WithLabelValues(string(op))), 0, string(op))
	}
}

func TestWithLimits_KeepsDefaultsForZero(t *testing.T) {
	c := newTestClient(t, "http://example.test", WithLimits(Limits{Search: 3}))
	assert.Equal(t, 3, c.limits.Search)
	assert.Equal(t, 24, c.limits.Provinces)
	assert.Equal(t, 1000, c.limits.AllLocalities)
}

func TestPreload(t *testing.T) {
	srv, calls := countingServer(t, http.StatusOK, provincesBody)
	c := newTestClient(t, srv.URL)

	require.NoError(t, Preload(context.Background(), c, 0))
	_, err := c.Provinces(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
