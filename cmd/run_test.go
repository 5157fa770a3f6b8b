package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWatch(t *testing.T) {
	cases := []struct {
		raw        string
		wantDevice bool
		wantConfig bool
	}{
		{"", false, false},
		{"device", true, false},
		{"config", false, true},
		{"device,config", true, true},
		{"config,device", true, true},
	}

	for _, tc := range cases {
		gotDevice, gotConfig := parseWatch(tc.raw)
		require.Equal(t, tc.wantDevice, gotDevice, "device for %q", tc.raw)
		require.Equal(t, tc.wantConfig, gotConfig, "config for %q", tc.raw)
	}
}

func TestWatchValueBareFlagDefaultsToBoth(t *testing.T) {
	var w watchValue
	require.NoError(t, w.Set(""))
	require.Equal(t, "device,config", runFlags.watch)
}
