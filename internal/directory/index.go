package directory

import (
	"sync"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/pkg/types"
)

// PairIndex is the per network pair store. It is only mutated through Append.
type PairIndex struct {
	sync.Mutex
	network    string
	pairs      []types.Pair
	byContract map[string]int
	byKey      map[string]int
	byAsset    map[string][]int
	assets     []types.AssetRef
	fetching   bool
}

func newPairIndex(network string) *PairIndex {
	return &PairIndex{
		network:    network,
		byContract: make(map[string]int),
		byKey:      make(map[string]int),
		byAsset:    make(map[string][]int),
	}
}

// Append adds pairs that are not yet indexed and returns the ones added.
func (p *PairIndex) Append(pairs ...types.Pair) []types.Pair {
	p.Lock()
	defer p.Unlock()

	return p.append(pairs)
}

func (p *PairIndex) append(pairs []types.Pair) []types.Pair {
	added := make([]types.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := p.byContract[pair.ContractAddress]; ok {
			continue
		}
		idx := len(p.pairs)
		p.pairs = append(p.pairs, pair)
		p.byContract[pair.ContractAddress] = idx

		key := asset.PairKey(pair.Assets[0].Address, pair.Assets[1].Address)
		if _, ok := p.byKey[key]; !ok {
			p.byKey[key] = idx
		}

		for _, a := range pair.Assets {
			if _, seen := p.byAsset[a.Address]; !seen {
				p.assets = append(p.assets, a)
			}
			p.byAsset[a.Address] = append(p.byAsset[a.Address], idx)
		}
		added = append(added, pair)
	}
	return added
}

// cursor returns the asset identity of the last pair, nil when empty.
func (p *PairIndex) cursor() *[2]types.AssetInfo {
	if len(p.pairs) == 0 {
		return nil
	}
	last := p.pairs[len(p.pairs)-1].AssetInfos
	return &last
}

func (p *PairIndex) Len() int {
	p.Lock()
	defer p.Unlock()
	return len(p.pairs)
}

func (p *PairIndex) Pairs() []types.Pair {
	p.Lock()
	defer p.Unlock()

	ret := make([]types.Pair, len(p.pairs))
	copy(ret, p.pairs)
	return ret
}

func (p *PairIndex) Pair(contract string) (types.Pair, bool) {
	p.Lock()
	defer p.Unlock()

	idx, ok := p.byContract[asset.Normalize(contract)]
	if !ok {
		return types.Pair{}, false
	}
	return p.pairs[idx], true
}

func (p *PairIndex) PairsByAsset(address string) []types.Pair {
	p.Lock()
	defer p.Unlock()

	idxs := p.byAsset[asset.Normalize(address)]
	ret := make([]types.Pair, len(idxs))
	for i, idx := range idxs {
		ret[i] = p.pairs[idx]
	}
	return ret
}

// FindPair returns the first pair discovered for the two assets.
func (p *PairIndex) FindPair(a, b string) (types.Pair, bool) {
	a, b = asset.Normalize(a), asset.Normalize(b)
	if a == b {
		return types.Pair{}, false
	}

	p.Lock()
	defer p.Unlock()

	idx, ok := p.byKey[asset.PairKey(a, b)]
	if !ok {
		return types.Pair{}, false
	}
	return p.pairs[idx], true
}

func (p *PairIndex) Assets() []types.AssetRef {
	p.Lock()
	defer p.Unlock()

	ret := make([]types.AssetRef, len(p.assets))
	copy(ret, p.assets)
	return ret
}
