package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeDevices() *Devices {
	return &Devices{Devices: []*Device{
		{Index: 0, TotalMemory: "8gi"},
		{Index: 1, TotalMemory: "8gi"},
		{Index: 2, TotalMemory: "8gi"},
	}}
}

func TestFindAvailableDevicesAscending(t *testing.T) {
	d := threeDevices()

	indices, err := d.FindAvailableDevices(2, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)
}

func TestFindAvailableDevicesInsufficient(t *testing.T) {
	d := threeDevices()
	d.Attach("other", 0, nil, time.Now())
	d.Attach("other", 1, nil, time.Now())
	d.Attach("other", 2, nil, time.Now())

	_, err := d.FindAvailableDevices(1, nil, false)
	assert.ErrorIs(t, err, ErrInsufficientDevices)
}

func TestFindAvailableDevicesOverSubscription(t *testing.T) {
	d := threeDevices()
	d.Attach("other", 0, nil, time.Now())
	d.Attach("other", 1, nil, time.Now())
	d.Attach("other", 2, nil, time.Now())

	indices, err := d.FindAvailableDevices(1, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)
}

func TestDevicesFilterDeepStripsAttachments(t *testing.T) {
	d := threeDevices()
	d.Attach("a", 0, nil, time.Now())
	d.Attach("b", 0, nil, time.Now())
	d.Attach("a", 1, nil, time.Now())

	filtered := d.Filter(true, DeviceFilter{EID: "a"})
	require.Len(t, filtered.Devices, 2)

	dev0 := filtered.Get(0)
	require.NotNil(t, dev0)
	require.Len(t, dev0.Attachments, 1)
	assert.Equal(t, "a", dev0.Attachments[0].EID)

	// The original collection is untouched by a deep filter.
	assert.Len(t, d.Get(0).Attachments, 2)
}

func TestDevicesDetachAllIndices(t *testing.T) {
	d := threeDevices()
	d.Attach("a", 0, nil, time.Now())
	d.Attach("a", 1, nil, time.Now())

	d.Detach("a", nil)

	assert.Empty(t, d.Get(0).Attachments)
	assert.Empty(t, d.Get(1).Attachments)
}

func TestDevicesCleanupDropsDeadEIDs(t *testing.T) {
	d := threeDevices()
	d.Attach("live", 0, nil, time.Now())
	d.Attach("dead", 0, nil, time.Now())

	d.Cleanup(map[string]bool{"live": true})

	assert.Equal(t, []string{"live"}, d.Get(0).EIDs())
}
