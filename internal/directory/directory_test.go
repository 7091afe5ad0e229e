package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"github.com/Synternet/terraswap-core/internal/network"
	"github.com/Synternet/terraswap-core/pkg/types"
)

const (
	pairA  = "terra1hctfgkx74rkksr358p7fgckn0y75cnng4kfhskzkamkhxwnhdl6s65vd6w"
	pairB  = "terra1p0dzs8wyjr3dlg4k6hr7n840gh2kcg0gleeq246cc0pv0hnrchhskgnavd"
	pairC  = "terra1jxqgzh7x0a38alkgm5n4kts46jw24h4dwmg2c75yfycfq3rvh6ns92n2a5"
	pairD  = "terra1g2elgg5dy03k0xfkefmxhts5u6ahhalgdm5086s9a8l86cpuwlescllrst"
	tokenX = "terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw"
	tokenY = "terra1h39ks339me3q9dqvqn9086lwy2ysatunj40vh9wlk87lggqpwueqk0fapf"
)

func info(contract string, a, b types.AssetInfo) types.PairInfo {
	return types.PairInfo{
		AssetInfos:     [2]types.AssetInfo{a, b},
		ContractAddr:   contract,
		LiquidityToken: contract + "lp",
		AssetDecimals:  [2]int{6, 6},
	}
}

var (
	luna = types.NativeAsset("uluna")
	usd  = types.NativeAsset("uusd")
	x    = types.TokenAsset(tokenX)
	y    = types.TokenAsset(tokenY)
)

// pageLister serves pages in order and records the cursors it was asked for.
type pageLister struct {
	mu      sync.Mutex
	pages   [][]types.PairInfo
	err     error
	cursors []*[2]types.AssetInfo
	block   chan struct{}
	entered chan struct{}
}

func (l *pageLister) ListPairs(ctx context.Context, net string, limit int, startAfter *[2]types.AssetInfo) ([]types.PairInfo, error) {
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.block != nil {
		<-l.block
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cursors = append(l.cursors, startAfter)
	if l.err != nil {
		return nil, l.err
	}
	if len(l.pages) == 0 {
		return nil, nil
	}
	page := l.pages[0]
	l.pages = l.pages[1:]
	return page, nil
}

func newDirectory(lister Lister, conn network.Connectivity, opts ...Option) *Directory {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(lister, conn, opts...)
}

func contracts(pairs []types.Pair) []string {
	ret := make([]string, len(pairs))
	for i, p := range pairs {
		ret[i] = p.ContractAddress
	}
	return ret
}

func TestDirectory_Dedup(t *testing.T) {
	lister := &pageLister{
		pages: [][]types.PairInfo{
			{info(pairA, luna, x), info(pairB, luna, usd)},
			{info(pairB, luna, usd), info(pairC, x, y), info(pairA, luna, x)},
			{},
		},
	}
	d := newDirectory(lister, network.Always{})

	total := d.Sync(context.Background(), "mainnet")
	if total != 3 {
		t.Errorf("Sync() = %d, want 3", total)
	}
	if got := contracts(d.Pairs("mainnet")); !reflect.DeepEqual(got, []string{pairA, pairB, pairC}) {
		t.Errorf("Pairs() = %v", got)
	}

	// Cursor is the asset identity of the last indexed pair.
	if lister.cursors[0] != nil {
		t.Errorf("first page must start without cursor")
	}
	if want := [2]types.AssetInfo{luna, usd}; !reflect.DeepEqual(*lister.cursors[1], want) {
		t.Errorf("second cursor = %v, want %v", *lister.cursors[1], want)
	}
	if want := [2]types.AssetInfo{x, y}; !reflect.DeepEqual(*lister.cursors[2], want) {
		t.Errorf("third cursor = %v, want %v", *lister.cursors[2], want)
	}
}

func TestDirectory_Queries(t *testing.T) {
	lister := &pageLister{
		pages: [][]types.PairInfo{
			{info(pairA, luna, x), info(pairB, luna, usd), info(pairC, x, y), info(pairD, x, luna)},
		},
	}
	d := newDirectory(lister, network.Always{})
	d.Sync(context.Background(), "mainnet")

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"by native asset", contracts(d.PairsByAsset("mainnet", "uluna")), []string{pairA, pairB, pairD}},
		{"by token", contracts(d.PairsByAsset("mainnet", tokenY)), []string{pairC}},
		{"unknown asset", contracts(d.PairsByAsset("mainnet", "uatom")), []string{}},
		{
			"assets first seen order",
			d.AssetAddresses("mainnet"),
			[]types.AssetRef{
				{Address: "uluna", IsNative: true},
				{Address: tokenX},
				{Address: "uusd", IsNative: true},
				{Address: tokenY},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if p, ok := d.FindPair("mainnet", tokenX, "uluna"); !ok || p.ContractAddress != pairA {
		t.Errorf("FindPair(x, luna) = %v %v, want first discovered pair", p.ContractAddress, ok)
	}
	if p, ok := d.FindPair("mainnet", tokenY, tokenX); !ok || p.ContractAddress != pairC {
		t.Errorf("FindPair(y, x) = %v %v", p.ContractAddress, ok)
	}
	if _, ok := d.FindPair("mainnet", "uusd", tokenY); ok {
		t.Errorf("FindPair on missing pair must fail")
	}
	for _, a := range []string{"uluna", tokenX, "uatom"} {
		if _, ok := d.FindPair("mainnet", a, a); ok {
			t.Errorf("FindPair(%s, %s) must fail", a, a)
		}
	}
	if _, ok := d.Pair("mainnet", pairD); !ok {
		t.Errorf("Pair(%s) not found", pairD)
	}
	if len(d.Pairs("testnet")) != 0 {
		t.Errorf("networks must not share pairs")
	}
}

type offline struct{}

func (offline) Online() bool { return false }

func TestDirectory_Offline(t *testing.T) {
	lister := &pageLister{pages: [][]types.PairInfo{{info(pairA, luna, x)}}}
	d := newDirectory(lister, offline{})

	added, fetched := d.FetchNextPage(context.Background(), "mainnet")
	if added != 0 || fetched {
		t.Errorf("FetchNextPage offline = %d %v", added, fetched)
	}
	if len(lister.cursors) != 0 {
		t.Errorf("offline fetch reached the lister")
	}
}

func TestDirectory_FailureIsSwallowed(t *testing.T) {
	lister := &pageLister{err: errors.New("connection refused")}
	d := newDirectory(lister, network.Always{})

	added, fetched := d.FetchNextPage(context.Background(), "mainnet")
	if added != 0 || fetched {
		t.Errorf("FetchNextPage failure = %d %v", added, fetched)
	}

	// The in-flight flag is released after a failure.
	lister.err = nil
	lister.pages = [][]types.PairInfo{{info(pairA, luna, x)}}
	if added, fetched := d.FetchNextPage(context.Background(), "mainnet"); added != 1 || !fetched {
		t.Errorf("FetchNextPage retry = %d %v", added, fetched)
	}
}

func TestDirectory_SingleInFlight(t *testing.T) {
	lister := &pageLister{
		pages:   [][]types.PairInfo{{info(pairA, luna, x)}},
		block:   make(chan struct{}),
		entered: make(chan struct{}, 2),
	}
	d := newDirectory(lister, network.Always{})

	done := make(chan int)
	go func() {
		added, _ := d.FetchNextPage(context.Background(), "mainnet")
		done <- added
	}()
	<-lister.entered

	added, fetched := d.FetchNextPage(context.Background(), "mainnet")
	if added != 0 || fetched {
		t.Errorf("concurrent FetchNextPage = %d %v, want no-op", added, fetched)
	}

	close(lister.block)
	if added := <-done; added != 1 {
		t.Errorf("first FetchNextPage added %d", added)
	}
	if len(lister.cursors) != 1 {
		t.Errorf("lister called %d times, want 1", len(lister.cursors))
	}
}

func TestDirectory_PageHook(t *testing.T) {
	lister := &pageLister{
		pages: [][]types.PairInfo{
			{info(pairA, luna, x)},
			{info(pairA, luna, x), info(pairB, luna, usd)},
		},
	}
	var got [][]string
	d := newDirectory(lister, network.Always{}, WithPageHook(func(net string, pairs []types.Pair) {
		if net != "mainnet" {
			t.Errorf("hook network = %s", net)
		}
		got = append(got, contracts(pairs))
	}))
	d.Sync(context.Background(), "Mainnet")

	if want := [][]string{{pairA}, {pairB}}; !reflect.DeepEqual(got, want) {
		t.Errorf("hook pages = %v, want %v", got, want)
	}
}
