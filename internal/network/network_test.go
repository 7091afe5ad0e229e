package network

import (
	"reflect"
	"testing"
)

func TestStores(t *testing.T) {
	created := 0
	stores := NewStores(func(name string) *[]string {
		created++
		return &[]string{name}
	})

	a := stores.Get("Mainnet")
	b := stores.Get(" mainnet ")
	if a != b {
		t.Errorf("same network must share one store")
	}
	stores.Get("testnet")
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
	if got := stores.Names(); !reflect.DeepEqual(got, []string{"mainnet", "testnet"}) {
		t.Errorf("Names() = %v", got)
	}

	stores.Drop("MAINNET")
	if _, ok := stores.Lookup("mainnet"); ok {
		t.Errorf("dropped store still present")
	}
	if c := stores.Get("mainnet"); c == a {
		t.Errorf("store recreated with stale state")
	}
}

func TestMonitorHooks(t *testing.T) {
	m := NewMonitor("mainnet", true)

	var changes []bool
	m.OnConnectivityChange(func(online bool) { changes = append(changes, online) })

	var switches [][2]string
	m.OnNetworkSwitch(func(from, to string) { switches = append(switches, [2]string{from, to}) })

	m.SetOnline(true)
	m.SetOnline(false)
	m.SetOnline(false)
	m.SetOnline(true)

	if !reflect.DeepEqual(changes, []bool{false, true}) {
		t.Errorf("connectivity changes = %v", changes)
	}

	m.Switch("mainnet")
	m.Switch("Testnet")
	if !reflect.DeepEqual(switches, [][2]string{{"mainnet", "testnet"}}) {
		t.Errorf("switches = %v", switches)
	}
	if m.Current() != "testnet" {
		t.Errorf("Current() = %s", m.Current())
	}
}
