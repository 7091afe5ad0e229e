package terraswap

import (
	"reflect"
	"testing"
)

func TestWithAssets(t *testing.T) {
	tests := []struct {
		name      string
		addresses []string
		want      []string
	}{
		{
			"duplicates",
			[]string{"uusd", "uluna", "uusd", " uluna "},
			[]string{"uluna", "uusd"},
		},
		{
			"contracts",
			[]string{"terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw\n", "terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw"},
			[]string{"terra16jhggnqcn30n3hwhuc8wekasjyf2jy7fnuhl34kuzm6zqk2zakgq5hvaxw"},
		},
		{
			"empty",
			[]string{"", " "},
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opt Options
			opt.Parse(WithAssets(tt.addresses))

			if !reflect.DeepEqual(opt.Assets, tt.want) {
				t.Errorf("WithAssets() = %v, want %v", opt.Assets, tt.want)
			}
		})
	}
}

func TestParseDefaultNetwork(t *testing.T) {
	opt := defaultOptions()
	opt.Parse(WithEndpoints(Endpoint{Name: "testnet"}, Endpoint{Name: "mainnet"}))
	if opt.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", opt.Network)
	}

	opt = defaultOptions()
	opt.Parse(WithEndpoints(Endpoint{Name: "testnet"}, Endpoint{Name: "mainnet"}), WithNetwork("mainnet"))
	if opt.Network != "mainnet" {
		t.Errorf("Network = %q, want mainnet", opt.Network)
	}
}
