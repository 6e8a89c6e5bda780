package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

type searchReply struct {
	items []lead.SearchItem
	err   error
}

type fakeSearcher struct {
	configured bool
	replies    []searchReply
	queries    []string
}

func (f *fakeSearcher) Configured() bool { return f.configured }

func (f *fakeSearcher) Search(_ context.Context, query string) ([]lead.SearchItem, error) {
	f.queries = append(f.queries, query)
	if len(f.replies) == 0 {
		return nil, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply.items, reply.err
}

func newTestService(searcher lead.Searcher) (*Service, *[]time.Duration) {
	svc := New(searcher, Config{QuotaPause: 2 * time.Second}, zap.NewNop())
	var pauses []time.Duration
	svc.pause = func(_ context.Context, d time.Duration) {
		pauses = append(pauses, d)
	}
	return svc, &pauses
}

func item(link string) lead.SearchItem {
	return lead.SearchItem{Link: link, Title: "t", Snippet: "s"}
}

func TestDiscoverWithoutCredentials(t *testing.T) {
	telemetry.Init()

	searcher := &fakeSearcher{configured: false}
	svc, _ := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeNotFound, res.Outcome)
	require.Empty(t, searcher.queries, "unconfigured discovery must not call the provider")
}

func TestDiscoverFirstAcceptableLink(t *testing.T) {
	telemetry.Init()

	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{items: []lead.SearchItem{
				item("https://www.facebook.com/acmeplumbing"),
				item("https://acmeplumbing.com"),
				item("https://acmeplumbing.com/about"),
			}},
		},
	}
	svc, pauses := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeFound, res.Outcome)
	require.Equal(t, "https://acmeplumbing.com", res.URL)
	require.Len(t, searcher.queries, 1, "first template hit must stop the fallthrough")
	require.Equal(t, `"Acme Plumbing" official website Springfield, IL`, searcher.queries[0])
	require.Empty(t, *pauses)
}

func TestDiscoverTemplateOrder(t *testing.T) {
	telemetry.Init()

	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{items: nil},
			{items: nil},
			{items: nil},
			{items: nil},
		},
	}
	svc, _ := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeNotFound, res.Outcome)
	require.Equal(t, []string{
		`"Acme Plumbing" official website Springfield, IL`,
		`"Acme Plumbing" website Springfield, IL`,
		`"Acme Plumbing" Springfield, IL`,
		`"Acme Plumbing" official website`,
	}, searcher.queries)
}

func TestDiscoverQuotaPausesThenContinues(t *testing.T) {
	telemetry.Init()

	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{err: fmt.Errorf("status 429: %w", lead.ErrQuotaExhausted)},
			{items: []lead.SearchItem{item("https://acmeplumbing.com")}},
		},
	}
	svc, pauses := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeFound, res.Outcome)
	require.Equal(t, "https://acmeplumbing.com", res.URL)
	require.Len(t, searcher.queries, 2)
	require.Equal(t, []time.Duration{2 * time.Second}, *pauses)
}

func TestDiscoverAllResultsFiltered(t *testing.T) {
	telemetry.Init()

	filtered := []lead.SearchItem{
		item("https://www.yellowpages.com/acme"),
		item("https://example.com/acme.pdf"),
	}
	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{items: filtered},
			{items: filtered},
			{items: filtered},
			{items: filtered},
		},
	}
	svc, _ := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeNotFound, res.Outcome)
	require.Len(t, searcher.queries, 4)
}

func TestDiscoverProviderFailure(t *testing.T) {
	telemetry.Init()

	provErr := &lead.ExternalServiceError{Provider: "google search", Status: 500, Detail: "backend exploded"}
	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{err: provErr},
			{err: provErr},
			{err: provErr},
			{err: provErr},
		},
	}
	svc, pauses := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeProviderError, res.Outcome)
	require.Contains(t, res.Detail, "backend exploded")
	require.Empty(t, *pauses, "non-quota errors must not pause")
}

func TestDiscoverErrorThenSuccessIsFound(t *testing.T) {
	telemetry.Init()

	searcher := &fakeSearcher{
		configured: true,
		replies: []searchReply{
			{err: &lead.ExternalServiceError{Provider: "google search", Status: 502, Detail: "bad gateway"}},
			{items: []lead.SearchItem{item("https://acmeplumbing.com")}},
		},
	}
	svc, _ := newTestService(searcher)

	res := svc.Discover(context.Background(), "Acme Plumbing", "Springfield, IL")

	require.Equal(t, lead.OutcomeFound, res.Outcome)
	require.Equal(t, "https://acmeplumbing.com", res.URL)
}
