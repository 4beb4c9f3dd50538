package natstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr string
	}{
		{
			name: "zero value is a valid disabled record",
			rec:  Record{},
		},
		{
			name: "disabled record skips interface checks",
			rec:  Record{Enabled: false, SharingDevices: []string{"en7", "en7"}},
		},
		{
			name: "enabled with distinct interfaces",
			rec: Record{
				Enabled:        true,
				PrimaryDevice:  "en0",
				SharingDevices: []string{"en7", "en5"},
			},
		},
		{
			name:    "enabled without a primary device",
			rec:     Record{Enabled: true, SharingDevices: []string{"en7"}},
			wantErr: "no sharing interface",
		},
		{
			name:    "enabled without shared interfaces",
			rec:     Record{Enabled: true, PrimaryDevice: "en0"},
			wantErr: "no shared interfaces",
		},
		{
			name: "primary listed among shared interfaces",
			rec: Record{
				Enabled:        true,
				PrimaryDevice:  "en0",
				SharingDevices: []string{"en0", "en7"},
			},
			wantErr: "both sharing source and shared target",
		},
		{
			name: "duplicate shared interface",
			rec: Record{
				Enabled:        true,
				PrimaryDevice:  "en0",
				SharingDevices: []string{"en7", "en7"},
			},
			wantErr: "duplicate",
		},
		{
			name: "empty shared interface name",
			rec: Record{
				Enabled:        true,
				PrimaryDevice:  "en0",
				SharingDevices: []string{""},
			},
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEquivalent(t *testing.T) {
	base := &Record{
		Enabled:        true,
		PrimaryDevice:  "en0",
		SharingDevices: []string{"en7", "en5"},
	}

	reordered := base.Clone()
	reordered.SharingDevices = []string{"en5", "en7"}
	assert.True(t, base.Equivalent(reordered), "device order is not significant")

	renamed := base.Clone()
	renamed.NetworkName = "other"
	renamed.PrimaryService = "some-uuid"
	assert.True(t, base.Equivalent(renamed), "metadata fields do not affect equivalence")

	otherPrimary := base.Clone()
	otherPrimary.PrimaryDevice = "en1"
	assert.False(t, base.Equivalent(otherPrimary))

	fewer := base.Clone()
	fewer.SharingDevices = []string{"en7"}
	assert.False(t, base.Equivalent(fewer))

	disabled := base.Clone()
	disabled.Enabled = false
	assert.False(t, base.Equivalent(disabled))

	// Two disabled records are equivalent regardless of leftover selections.
	assert.True(t, (&Record{}).Equivalent(disabled))
}

func TestClone_Independent(t *testing.T) {
	rec := &Record{
		Enabled:        true,
		PrimaryDevice:  "en0",
		SharingDevices: []string{"en7"},
	}

	dup := rec.Clone()
	dup.SharingDevices[0] = "en5"
	dup.PrimaryDevice = "en1"

	assert.Equal(t, []string{"en7"}, rec.SharingDevices)
	assert.Equal(t, "en0", rec.PrimaryDevice)
}
