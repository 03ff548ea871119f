package deeplink

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/WalletShell/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

const wcURI = "wc:8a5e5bdc-a0e4-4702-ba63-8f1a5655744f@1?bridge=https%3A%2F%2Fbridge.walletconnect.org&key=41791102999c339c844880b23950704cc43aa840f3739e365323cda4dfa89e7a"

func newTestRouter(testMode bool) (*Router, *monitoring.Metrics) {
	metrics := monitoring.NewMetrics()
	return NewRouter(Config{TestMode: testMode, DedupTTL: time.Minute}, zap.NewNop(), metrics), metrics
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		kind      types.RequestKind
		topic     string
		effective string
	}{
		{"wc scheme", wcURI, types.KindConnect, "8a5e5bdc-a0e4-4702-ba63-8f1a5655744f", wcURI},
		{"walletconnect scheme", "walletconnect:abc@1?key=k", types.KindConnect, "abc", "walletconnect:abc@1?key=k"},
		{"universal link", "https://rnbwapp.com/wc?uri=wc%3Aabc%401%3Fkey%3Dk", types.KindConnect, "abc", "wc:abc@1?key=k"},
		{"app scheme link", "rainbow://wc?uri=wc%3Axyz%402", types.KindConnect, "xyz", "wc:xyz@2"},
		{"walletconnect wrapper", "walletconnect:wc?uri=wc%3Adef%401", types.KindConnect, "def", "wc:def@1"},
		{"uppercase scheme", "WC:abc@1", types.KindConnect, "abc", "WC:abc@1"},
		{"plain https", "https://rainbow.me/profile", types.KindRawDeeplink, "", "https://rainbow.me/profile"},
		{"non wc uri param", "https://rnbwapp.com/wc?uri=https%3A%2F%2Fx", types.KindRawDeeplink, "", "https://rnbwapp.com/wc?uri=https%3A%2F%2Fx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, payload := Classify(tt.uri)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.topic, payload.Topic)
			assert.Equal(t, tt.effective, payload.URI)
		})
	}
}

func TestRouteWalletConnect(t *testing.T) {
	router, metrics := newTestRouter(false)

	req, ok := router.Route(wcURI, OriginSystemLink)
	require.True(t, ok)
	assert.Equal(t, types.KindConnect, req.Kind)
	assert.Equal(t, types.SourceSystemLink, req.Source)
	assert.Equal(t, "8a5e5bdc-a0e4-4702-ba63-8f1a5655744f", req.Payload.Topic)
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.ReceivedAt.IsZero())
	require.NoError(t, req.Validate())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RoutedTotal.WithLabelValues("system_link", "connect")))
}

func TestRouteIsIdempotentUntilReleased(t *testing.T) {
	router, metrics := newTestRouter(false)

	_, ok := router.Route(wcURI, OriginSystemLink)
	require.True(t, ok)

	_, ok = router.Route(wcURI+"#frag", OriginAttribution)
	assert.False(t, ok, "same normalized uri is held")
	_, ok = router.Route("https://rnbwapp.com/wc?uri="+"wc%3A8a5e5bdc-a0e4-4702-ba63-8f1a5655744f%401%3Fbridge%3Dhttps%253A%252F%252Fbridge.walletconnect.org%26key%3D41791102999c339c844880b23950704cc43aa840f3739e365323cda4dfa89e7a", OriginAttribution)
	assert.False(t, ok, "wrapped form of the same link is held")
	assert.True(t, router.Held(wcURI))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DroppedTotal.WithLabelValues("duplicate_uri")))

	router.Release(wcURI)
	assert.False(t, router.Held(wcURI))
	_, ok = router.Route(wcURI, OriginSystemLink)
	assert.True(t, ok)
}

func TestRouteDedupExpires(t *testing.T) {
	router := NewRouter(Config{DedupTTL: 20 * time.Millisecond}, zap.NewNop(), nil)

	_, ok := router.Route("https://example.com/a", OriginSystemLink)
	require.True(t, ok)
	_, ok = router.Route("https://example.com/a", OriginSystemLink)
	require.False(t, ok)

	require.Eventually(t, func() bool {
		return !router.Held("https://example.com/a")
	}, time.Second, 10*time.Millisecond)
	_, ok = router.Route("https://example.com/a", OriginSystemLink)
	assert.True(t, ok)
}

func TestRouteRawDeeplink(t *testing.T) {
	router, _ := newTestRouter(false)

	req, ok := router.Route("  https://rainbow.me/token/eth  ", OriginSystemLink)
	require.True(t, ok)
	assert.Equal(t, types.KindRawDeeplink, req.Kind)
	assert.Equal(t, "https://rainbow.me/token/eth", req.Payload.URI)
}

func TestRouteEmpty(t *testing.T) {
	router, _ := newTestRouter(false)
	_, ok := router.Route("   ", OriginSystemLink)
	assert.False(t, ok)
}

func TestInitialURLCheckedOnce(t *testing.T) {
	router, _ := newTestRouter(false)

	req, ok := router.Route("https://example.com/first", OriginInitialURL)
	require.True(t, ok)
	assert.Equal(t, types.SourceSystemLink, req.Source)

	_, ok = router.Route("https://example.com/second", OriginInitialURL)
	assert.False(t, ok)

	_, ok = router.Route("https://example.com/second", OriginSystemLink)
	assert.True(t, ok, "listener links still route")
}

func TestInitialURLEmptyStillCountsAsChecked(t *testing.T) {
	router, _ := newTestRouter(false)

	_, ok := router.Route("", OriginInitialURL)
	assert.False(t, ok)
	_, ok = router.Route("https://example.com/late", OriginInitialURL)
	assert.False(t, ok)
}

func TestHandleAttributionDecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		testMode bool
		event    AttributionEvent
		routed   bool
		uri      string
		dropped  string
	}{
		{
			name:    "transport error",
			event:   AttributionEvent{Error: "timeout", Params: map[string]any{ParamNonBranchLink: "https://a"}, URI: "https://b"},
			dropped: "attribution_error",
		},
		{
			name:   "non branch link wins over uri",
			event:  AttributionEvent{Params: map[string]any{ParamNonBranchLink: wcURI, ParamClickedBranchLink: true}, URI: "https://b"},
			routed: true,
			uri:    wcURI,
		},
		{
			name:    "init echo outside test mode",
			event:   AttributionEvent{Params: map[string]any{ParamClickedBranchLink: false}, URI: "https://x"},
			dropped: "init_echo",
		},
		{
			name:    "clicked flag absent",
			event:   AttributionEvent{Params: map[string]any{}, URI: "https://x"},
			dropped: "init_echo",
		},
		{
			name:     "init echo in test mode",
			testMode: true,
			event:    AttributionEvent{Params: map[string]any{ParamClickedBranchLink: false}, URI: "https://x"},
			routed:   true,
			uri:      "https://x",
		},
		{
			name:   "clicked link",
			event:  AttributionEvent{Params: map[string]any{ParamClickedBranchLink: true}, URI: "https://x/open"},
			routed: true,
			uri:    "https://x/open",
		},
		{
			name:   "clicked flag as string",
			event:  AttributionEvent{Params: map[string]any{ParamClickedBranchLink: "true"}, URI: "https://x/open"},
			routed: true,
			uri:    "https://x/open",
		},
		{
			name:    "clicked link without uri",
			event:   AttributionEvent{Params: map[string]any{ParamClickedBranchLink: true}},
			dropped: "empty_uri",
		},
		{
			name:    "nil params",
			event:   AttributionEvent{URI: "https://x"},
			dropped: "init_echo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, metrics := newTestRouter(tt.testMode)

			req, ok := router.HandleAttribution(tt.event)
			assert.Equal(t, tt.routed, ok)
			if tt.routed {
				assert.Equal(t, tt.uri, req.Payload.URI)
				assert.Equal(t, types.SourceBranch, req.Source)
			}
			if tt.dropped != "" {
				assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DroppedTotal.WithLabelValues(tt.dropped)))
			}
		})
	}
}

func TestAttributionAndSystemLinkCollapse(t *testing.T) {
	router, _ := newTestRouter(false)

	_, ok := router.Route(wcURI, OriginSystemLink)
	require.True(t, ok)
	_, ok = router.HandleAttribution(AttributionEvent{
		Params: map[string]any{ParamClickedBranchLink: true},
		URI:    wcURI,
	})
	assert.False(t, ok)
}
