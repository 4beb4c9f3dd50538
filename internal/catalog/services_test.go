package catalog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/netbardus/macshare/internal/util"
)

func newServicesCatalog(t *testing.T, prefs map[string]any) *Catalog {
	t.Helper()
	env := util.NewTestEnv()
	cat := New(env)
	cat.PreferencesPath = "/Library/Preferences/SystemConfiguration/preferences.plist"

	data, err := plist.Marshal(prefs, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(env.Fs, cat.PreferencesPath, data, 0o644))
	return cat
}

func testPreferences() map[string]any {
	return map[string]any{
		"CurrentSet": "/Sets/11111111-2222-4333-8444-555555555555",
		"NetworkServices": map[string]any{
			"7F3C1A2B-0000-4000-8000-000000000001": map[string]any{
				"UserDefinedName": "Wi-Fi",
				"Interface": map[string]any{
					"DeviceName": "en0",
					"Hardware":   "AirPort",
					"Type":       "Ethernet",
				},
			},
			"7F3C1A2B-0000-4000-8000-000000000002": map[string]any{
				"UserDefinedName": "USB 10/100/1000 LAN",
				"Interface": map[string]any{
					"DeviceName": "en7",
					"Type":       "Ethernet",
				},
			},
			// No device binding: skipped.
			"7F3C1A2B-0000-4000-8000-000000000003": map[string]any{
				"UserDefinedName": "Bluetooth PAN",
				"Interface":       map[string]any{"Type": "Ethernet"},
			},
			// Not a UUID key: skipped.
			"NotAServiceEntry": map[string]any{
				"UserDefinedName": "bogus",
				"Interface":       map[string]any{"DeviceName": "en9"},
			},
		},
	}
}

func TestServices(t *testing.T) {
	cat := newServicesCatalog(t, testPreferences())

	services, err := cat.Services()
	require.NoError(t, err)
	require.Len(t, services, 2)

	byDevice := make(map[string]Service, len(services))
	for _, svc := range services {
		byDevice[svc.Device] = svc
	}
	assert.Equal(t, "7F3C1A2B-0000-4000-8000-000000000001", byDevice["en0"].ID)
	assert.Equal(t, "Wi-Fi", byDevice["en0"].Name)
	assert.Equal(t, "USB 10/100/1000 LAN", byDevice["en7"].Name)
}

func TestServices_MissingPreferences(t *testing.T) {
	cat := New(util.NewTestEnv())

	_, err := cat.Services()
	require.ErrorIs(t, err, ErrPlatformQuery)
}

func TestServices_NoNetworkServicesKey(t *testing.T) {
	cat := newServicesCatalog(t, map[string]any{"CurrentSet": "/Sets/x"})

	services, err := cat.Services()
	require.NoError(t, err)
	assert.Empty(t, services)
}

func TestServiceForDevice(t *testing.T) {
	cat := newServicesCatalog(t, testPreferences())

	svc, err := cat.ServiceForDevice("en0")
	require.NoError(t, err)
	assert.Equal(t, "Wi-Fi", svc.Name)

	_, err = cat.ServiceForDevice("en99")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceByName(t *testing.T) {
	cat := newServicesCatalog(t, testPreferences())

	svc, err := cat.ServiceByName("USB 10/100/1000 LAN")
	require.NoError(t, err)
	assert.Equal(t, "en7", svc.Device)

	_, err = cat.ServiceByName("Thunderbolt Ethernet")
	require.ErrorIs(t, err, ErrNotFound)
}
