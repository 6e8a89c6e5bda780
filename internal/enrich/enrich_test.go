package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
	pubmemory "github.com/juanroddotdev/LeadForge/internal/publish/memory"
	storememory "github.com/juanroddotdev/LeadForge/internal/store/memory"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

type fakeDiscoverer struct {
	results map[string]lead.DiscoveryResult
	calls   []string
}

func (f *fakeDiscoverer) Discover(_ context.Context, name, _ string) lead.DiscoveryResult {
	f.calls = append(f.calls, name)
	if res, ok := f.results[name]; ok {
		return res
	}
	return lead.NotFound("nothing scripted")
}

type fakeVerifier struct {
	ok    bool
	calls []string
}

func (f *fakeVerifier) Verify(_ context.Context, rawURL string) bool {
	f.calls = append(f.calls, rawURL)
	return f.ok
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func strPtr(s string) *string { return &s }

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, disc *fakeDiscoverer, ver *fakeVerifier, pub lead.Publisher) (*Service, *storememory.Store) {
	t.Helper()
	telemetry.Init()

	store := storememory.NewStore()
	require.NoError(t, store.ReplaceAll(context.Background(), []lead.Business{
		{ID: "b-1", BusinessName: "Acme Plumbing", Industry: "Plumbing", Location: "Springfield, IL"},
		{ID: "b-2", BusinessName: "Lincoln Dental", Industry: "Dental", Location: "Lincoln, NE", Website: strPtr("https://lincolndental.com")},
	}))

	svc := New(store, disc, ver, pub, Config{
		RequestsPerSecond: 1_000_000,
		Topic:             "leadforge.websites",
	}, fixedClock{t: testTime}, zap.NewNop())
	return svc, store
}

func TestIdentifyByIDUnknownBusiness(t *testing.T) {
	disc := &fakeDiscoverer{}
	svc, _ := newTestService(t, disc, &fakeVerifier{ok: true}, pubmemory.New())

	_, _, err := svc.IdentifyByID(context.Background(), "missing")

	var nfe *lead.NotFoundError
	require.ErrorAs(t, err, &nfe)
	require.Empty(t, disc.calls)
}

func TestIdentifyByIDSuccess(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.Found("https://acmeplumbing.com"),
	}}
	ver := &fakeVerifier{ok: true}
	pub := pubmemory.New()
	svc, store := newTestService(t, disc, ver, pub)

	b, status, err := svc.IdentifyByID(context.Background(), "b-1")
	require.NoError(t, err)
	require.Equal(t, StatusIdentified, status)
	require.NotNil(t, b.Website)
	require.Equal(t, "https://acmeplumbing.com", *b.Website)
	require.Equal(t, []string{"https://acmeplumbing.com"}, ver.calls)

	stored, err := store.Get(context.Background(), "b-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Website)
	require.Equal(t, "https://acmeplumbing.com", *stored.Website)

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "leadforge.websites", msgs[0].Topic)
	event, ok := msgs[0].Payload.(lead.WebsiteIdentifiedEvent)
	require.True(t, ok)
	require.Equal(t, "b-1", event.BusinessID)
	require.Equal(t, "Acme Plumbing", event.BusinessName)
	require.Equal(t, "https://acmeplumbing.com", event.Website)
	require.Equal(t, testTime, event.IdentifiedAt)
}

func TestIdentifyByIDAlreadyIdentified(t *testing.T) {
	disc := &fakeDiscoverer{}
	pub := pubmemory.New()
	svc, _ := newTestService(t, disc, &fakeVerifier{ok: true}, pub)

	b, status, err := svc.IdentifyByID(context.Background(), "b-2")
	require.NoError(t, err)
	require.Equal(t, StatusAlreadyIdentified, status)
	require.NotNil(t, b.Website)
	require.Equal(t, "https://lincolndental.com", *b.Website)

	// Idempotent lookups never touch the provider or the broker.
	require.Empty(t, disc.calls)
	require.Empty(t, pub.Messages())
}

func TestIdentifyByIDNothingDiscovered(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.NotFound("no acceptable result"),
	}}
	ver := &fakeVerifier{ok: true}
	pub := pubmemory.New()
	svc, store := newTestService(t, disc, ver, pub)

	b, status, err := svc.IdentifyByID(context.Background(), "b-1")
	require.NoError(t, err)
	require.Equal(t, StatusNoWebsite, status)
	require.Nil(t, b.Website)
	require.Empty(t, ver.calls, "nothing to verify when discovery finds nothing")

	stored, err := store.Get(context.Background(), "b-1")
	require.NoError(t, err)
	require.Nil(t, stored.Website)
	require.Empty(t, pub.Messages())
}

func TestIdentifyByIDProviderFailure(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.ProviderFailure("google search error: 500 backend exploded"),
	}}
	svc, store := newTestService(t, disc, &fakeVerifier{ok: true}, pubmemory.New())

	_, status, err := svc.IdentifyByID(context.Background(), "b-1")
	require.NoError(t, err)
	require.Equal(t, StatusNoWebsite, status)

	stored, err := store.Get(context.Background(), "b-1")
	require.NoError(t, err)
	require.Nil(t, stored.Website)
}

func TestIdentifyByIDVerificationRejected(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.Found("https://acmeplumbing.com"),
	}}
	ver := &fakeVerifier{ok: false}
	pub := pubmemory.New()
	svc, store := newTestService(t, disc, ver, pub)

	_, status, err := svc.IdentifyByID(context.Background(), "b-1")
	require.NoError(t, err)
	require.Equal(t, StatusNoWebsite, status)
	require.Equal(t, []string{"https://acmeplumbing.com"}, ver.calls)

	stored, err := store.Get(context.Background(), "b-1")
	require.NoError(t, err)
	require.Nil(t, stored.Website)
	require.Empty(t, pub.Messages())
}

func TestIdentifyByIDPublishFailureDoesNotFail(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.Found("https://acmeplumbing.com"),
	}}
	pub := pubmemory.New()
	pub.FailWith(context.DeadlineExceeded)
	svc, store := newTestService(t, disc, &fakeVerifier{ok: true}, pub)

	_, status, err := svc.IdentifyByID(context.Background(), "b-1")
	require.NoError(t, err)
	require.Equal(t, StatusIdentified, status)

	stored, err := store.Get(context.Background(), "b-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Website)
}

func TestIdentifyBatchMixedResults(t *testing.T) {
	disc := &fakeDiscoverer{results: map[string]lead.DiscoveryResult{
		"Acme Plumbing": lead.Found("https://acmeplumbing.com"),
	}}
	svc, _ := newTestService(t, disc, &fakeVerifier{ok: true}, pubmemory.New())

	results, err := svc.IdentifyBatch(context.Background(), []int{0, 1, 999, -1})
	require.NoError(t, err)
	require.Len(t, results, 4)

	require.Equal(t, 0, results[0].BusinessID)
	require.Equal(t, StatusIdentified, results[0].Status)
	require.NotNil(t, results[0].Business)
	require.NotNil(t, results[0].Business.Website)

	require.Equal(t, 1, results[1].BusinessID)
	require.Equal(t, StatusAlreadyIdentified, results[1].Status)
	require.NotNil(t, results[1].Business)

	require.Equal(t, 999, results[2].BusinessID)
	require.Equal(t, StatusNotFound, results[2].Status)
	require.Nil(t, results[2].Business)

	require.Equal(t, -1, results[3].BusinessID)
	require.Equal(t, StatusNotFound, results[3].Status)
	require.Nil(t, results[3].Business)

	// Only the fresh business consumed a discovery attempt.
	require.Equal(t, []string{"Acme Plumbing"}, disc.calls)
}

func TestIdentifyBatchPreservesRequestOrder(t *testing.T) {
	disc := &fakeDiscoverer{}
	svc, _ := newTestService(t, disc, &fakeVerifier{ok: true}, pubmemory.New())

	results, err := svc.IdentifyBatch(context.Background(), []int{1, 0})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 1, results[0].BusinessID)
	require.Equal(t, 0, results[1].BusinessID)
}
