package transparent_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"transparent_roi/internal/adapters/transparent"
	"transparent_roi/internal/domain"
)

const (
	aggregatedFixture = `{"year_average_adr":318,"year_average_occupancy":0.36000001430511475}`
	listingsFixture   = `[{"year_total_revenue":28585,"active_days":253,"year_total_occupancy":0.36}]`
)

type stub struct {
	status int
	body   string
}

// fakeAPI serves /aggregated and /listings and counts hits per endpoint.
type fakeAPI struct {
	agg, lst   stub
	aggHits    int32
	lstHits    int32
	lastAPIKey atomic.Value
	lastQuery  atomic.Value
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lastAPIKey.Store(r.Header.Get("apikey"))
	f.lastQuery.Store(r.URL.Query())
	var s stub
	switch r.URL.Path {
	case "/aggregated":
		atomic.AddInt32(&f.aggHits, 1)
		s = f.agg
	case "/listings":
		atomic.AddInt32(&f.lstHits, 1)
		s = f.lst
	default:
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.body))
}

func (f *fakeAPI) hits() (agg, lst int32) {
	return atomic.LoadInt32(&f.aggHits), atomic.LoadInt32(&f.lstHits)
}

func newClient(t *testing.T, h http.Handler, f domain.QueryFilters) *transparent.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	cl, err := transparent.New(transparent.NewConfiguration("test-key"), f, transparent.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAggregated_SendsQueryAndAPIKey(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}}
	f := baseFilters()
	f.Pool = ptr(false)
	f.Bedrooms = []int{3, 4, 5}
	cl := newClient(t, api, f)

	if _, err := cl.Aggregated(testCtx(t)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := api.lastAPIKey.Load(); got != "test-key" {
		t.Fatalf("apikey header: %v", got)
	}
	q := api.lastQuery.Load().(url.Values)
	want := map[string]string{
		"latitude":      "51.5099904",
		"longitude":     "-0.12967951",
		"radius_meters": "1000",
		"type":          "ENTIRE_HOME",
		"subtype":       "APARTMENT",
		"bedrooms":      "3,4,5",
		"pool":          "0",
	}
	if len(q) != len(want) {
		t.Fatalf("unexpected query: %v", q)
	}
	for k, v := range want {
		if len(q[k]) != 1 || q[k][0] != v {
			t.Fatalf("%s: want %q, got %v", k, v, q[k])
		}
	}
}

func TestAggregated_Fixture(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}}
	cl := newClient(t, api, baseFilters())

	out, err := cl.Aggregated(testCtx(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, ok := out.Get()
	if !ok {
		t.Fatalf("expected fulfilled outcome")
	}
	if got.AverageDailyRate != 318 || got.OccupancyRate != 0.36000001430511475 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestAggregated_EmptyBodyIsUnfulfilled(t *testing.T) {
	for _, tc := range []stub{
		{200, ""},
		{200, "  \n\t"},
		{201, ""},
		{404, ""},
		{500, ""},
	} {
		t.Run(fmt.Sprintf("%d_%q", tc.status, tc.body), func(t *testing.T) {
			cl := newClient(t, &fakeAPI{agg: tc}, baseFilters())
			out, err := cl.Aggregated(testCtx(t))
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if out.IsFulfilled() {
				t.Fatalf("expected unfulfilled, got %+v", out.Data)
			}
		})
	}
}

func TestAggregated_ErrorStatusIsUnfulfilled(t *testing.T) {
	for _, status := range []int{400, 404, 500, 503} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			cl := newClient(t, &fakeAPI{agg: stub{status, aggregatedFixture}}, baseFilters())
			out, err := cl.Aggregated(testCtx(t))
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if out.IsFulfilled() {
				t.Fatalf("expected unfulfilled for %d", status)
			}
		})
	}
}

func TestAggregated_MalformedBodyIsError(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          `<html>oops</html>`,
		"missing adr":       `{"year_average_occupancy":0.5}`,
		"missing occupancy": `{"year_average_adr":100}`,
		"wrong type":        `{"year_average_adr":"high","year_average_occupancy":0.5}`,
	} {
		t.Run(name, func(t *testing.T) {
			cl := newClient(t, &fakeAPI{agg: stub{200, body}}, baseFilters())
			_, err := cl.Aggregated(testCtx(t))
			if !errors.Is(err, transparent.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestAggregated_Memoized(t *testing.T) {
	for _, tc := range []stub{{200, aggregatedFixture}, {503, ""}} {
		api := &fakeAPI{agg: tc}
		cl := newClient(t, api, baseFilters())

		first, err := cl.Aggregated(testCtx(t))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		second, err := cl.Aggregated(testCtx(t))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if first != second {
			t.Fatalf("outcomes differ: %+v vs %+v", first, second)
		}
		if hits := atomic.LoadInt32(&api.aggHits); hits != 1 {
			t.Fatalf("status %d: expected exactly 1 request, got %d", tc.status, hits)
		}
	}
}

func TestAggregated_MissingConfigurationSendsNothing(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	cl, err := transparent.New(transparent.NewConfiguration(""), baseFilters(), transparent.WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := cl.Aggregated(testCtx(t)); !errors.Is(err, transparent.ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
	if _, err := cl.Combined(testCtx(t)); !errors.Is(err, transparent.ErrMissingConfiguration) {
		t.Fatalf("expected ErrMissingConfiguration, got %v", err)
	}
	if agg, lst := api.hits(); agg+lst != 0 {
		t.Fatalf("no request expected, got %d", agg+lst)
	}
}

func TestAggregated_TransportFailureIsUnfulfilled(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close() // nothing listens there anymore

	cl, err := transparent.New(transparent.NewConfiguration("k"), baseFilters(), transparent.WithBaseURL(addr))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	out, err := cl.Aggregated(testCtx(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.IsFulfilled() {
		t.Fatalf("expected unfulfilled outcome")
	}
}

func TestAggregated_ContextCanceled(t *testing.T) {
	cl := newClient(t, &fakeAPI{agg: stub{200, aggregatedFixture}}, baseFilters())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cl.Aggregated(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNew_RejectsInvalidFilters(t *testing.T) {
	f := baseFilters()
	f.RadiusMeters = 0
	if _, err := transparent.New(transparent.NewConfiguration("k"), f); !errors.Is(err, domain.ErrInvalidFilters) {
		t.Fatalf("expected ErrInvalidFilters, got %v", err)
	}
}

func TestCombined_Fixture(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}, lst: stub{200, listingsFixture}}
	cl := newClient(t, api, baseFilters())

	out, err := cl.Combined(testCtx(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, ok := out.Get()
	if !ok {
		t.Fatalf("expected fulfilled outcome")
	}
	if got.Aggregated.AverageDailyRate != 318 || got.Aggregated.OccupancyRate != 0.36000001430511475 {
		t.Fatalf("unexpected aggregated: %+v", got.Aggregated)
	}
	if len(got.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(got.Listings))
	}
	if l := got.Listings[0]; l.AverageDailyRate != 112.98418972332016 || l.OccupancyRate != 0.36 {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if agg, lst := api.hits(); agg != 1 || lst != 1 {
		t.Fatalf("expected one request per endpoint, got %d/%d", agg, lst)
	}
}

func TestCombined_EitherSideFailing(t *testing.T) {
	ok := func(b string) stub { return stub{200, b} }
	cases := map[string]struct{ agg, lst stub }{
		"aggregated 500":    {stub{500, aggregatedFixture}, ok(listingsFixture)},
		"listings 404":      {ok(aggregatedFixture), stub{404, listingsFixture}},
		"aggregated empty":  {ok(""), ok(listingsFixture)},
		"listings empty":    {ok(aggregatedFixture), ok("")},
		"both empty":        {ok(""), ok("")},
		"listings 503 only": {ok(aggregatedFixture), stub{503, ""}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{agg: tc.agg, lst: tc.lst}
			cl := newClient(t, api, baseFilters())
			out, err := cl.Combined(testCtx(t))
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if out.IsFulfilled() {
				t.Fatalf("expected unfulfilled, got %+v", out.Data)
			}
			if agg, lst := api.hits(); agg != 1 || lst != 1 {
				t.Fatalf("both requests should be issued, got %d/%d", agg, lst)
			}
		})
	}
}

func TestCombined_MalformedListingsIsError(t *testing.T) {
	for name, body := range map[string]string{
		"object not array": `{"year_total_revenue":1}`,
		"missing revenue":  `[{"active_days":3,"year_total_occupancy":0.1}]`,
		"missing days":     `[{"year_total_revenue":3,"year_total_occupancy":0.1}]`,
	} {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{agg: stub{200, aggregatedFixture}, lst: stub{200, body}}
			cl := newClient(t, api, baseFilters())
			if _, err := cl.Combined(testCtx(t)); !errors.Is(err, transparent.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestCombined_DropsListingsWithoutActiveDays(t *testing.T) {
	body := `[
		{"year_total_revenue":500,"active_days":10,"year_total_occupancy":0.5},
		{"year_total_revenue":900,"active_days":0,"year_total_occupancy":0.9},
		{"year_total_revenue":300,"active_days":4,"year_total_occupancy":0.2}
	]`
	api := &fakeAPI{agg: stub{200, aggregatedFixture}, lst: stub{200, body}}
	cl := newClient(t, api, baseFilters())

	out, err := cl.Combined(testCtx(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, _ := out.Get()
	want := []domain.ListingResult{{AverageDailyRate: 50, OccupancyRate: 0.5}, {AverageDailyRate: 75, OccupancyRate: 0.2}}
	if len(got.Listings) != len(want) {
		t.Fatalf("unexpected listings: %+v", got.Listings)
	}
	for i := range want {
		if got.Listings[i] != want[i] {
			t.Fatalf("listing %d: want %+v, got %+v", i, want[i], got.Listings[i])
		}
	}
}

func TestCombined_ReusesAggregatedResponse(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}, lst: stub{200, listingsFixture}}
	cl := newClient(t, api, baseFilters())

	if _, err := cl.Aggregated(testCtx(t)); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := cl.Combined(testCtx(t)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if agg, lst := api.hits(); agg != 1 || lst != 1 {
		t.Fatalf("expected one request per endpoint, got %d/%d", agg, lst)
	}
}

// Each handler waits for the other request to arrive, so the combined query
// only succeeds when both requests are in flight at the same time.
func TestCombined_IssuesRequestsConcurrently(t *testing.T) {
	aggArrived, lstArrived := make(chan struct{}), make(chan struct{})
	wait := func(ch <-chan struct{}) bool {
		select {
		case <-ch:
			return true
		case <-time.After(time.Second):
			return false
		}
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/aggregated":
			close(aggArrived)
			if !wait(lstArrived) {
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			_, _ = w.Write([]byte(aggregatedFixture))
		case "/listings":
			close(lstArrived)
			if !wait(aggArrived) {
				w.WriteHeader(http.StatusGatewayTimeout)
				return
			}
			_, _ = w.Write([]byte(listingsFixture))
		}
	})
	cl := newClient(t, h, baseFilters())

	out, err := cl.Combined(testCtx(t))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !out.IsFulfilled() {
		t.Fatalf("expected fulfilled outcome; requests were not concurrent")
	}
}

func TestFactory_BuildsFreshClients(t *testing.T) {
	api := &fakeAPI{agg: stub{200, aggregatedFixture}}
	ts := httptest.NewServer(api)
	defer ts.Close()

	factory := transparent.Factory(transparent.NewConfiguration("k"), transparent.WithBaseURL(ts.URL))
	for i := 0; i < 2; i++ {
		cl, err := factory(baseFilters())
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if _, err := cl.Aggregated(testCtx(t)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if hits := atomic.LoadInt32(&api.aggHits); hits != 2 {
		t.Fatalf("expected 2 requests from 2 clients, got %d", hits)
	}
}
