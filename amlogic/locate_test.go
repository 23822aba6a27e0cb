package amlogic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mame82/amlboot/amlogic"
	"github.com/mame82/amlboot/amlogic/amlogictest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otherIdentity = amlogic.Identity{Vendor: 0x046d, Product: 0xc52b}

func TestLocateFirstMatch(t *testing.T) {
	first := &amlogictest.FakeRef{Name: "first", ID: amlogic.BurnIdentity}
	second := &amlogictest.FakeRef{Name: "second", ID: amlogic.BurnIdentity}
	refs := []amlogic.DeviceRef{
		&amlogictest.FakeRef{ID: otherIdentity},
		&amlogictest.FakeRef{ID: amlogic.NormalIdentity},
		first,
		second,
	}

	ref, found, err := amlogic.Locate(refs, amlogic.BurnIdentity)
	require.NoError(t, err)
	require.True(t, found)
	assert.Same(t, first, ref)
}

func TestLocateNoMatch(t *testing.T) {
	for n := 0; n < 4; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var refs []amlogic.DeviceRef
			for i := 0; i < n; i++ {
				refs = append(refs, &amlogictest.FakeRef{ID: otherIdentity})
			}
			ref, found, err := amlogic.Locate(refs, amlogic.BurnIdentity)
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, ref)
		})
	}
}

func TestLocateMatchesBothFields(t *testing.T) {
	refs := []amlogic.DeviceRef{
		&amlogictest.FakeRef{ID: amlogic.Identity{Vendor: 0x1b8e, Product: 0x0001}},
		&amlogictest.FakeRef{ID: amlogic.Identity{Vendor: 0x0001, Product: 0xc003}},
	}
	_, found, err := amlogic.Locate(refs, amlogic.BurnIdentity)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocateDescriptorError(t *testing.T) {
	descErr := errors.New("no descriptor")
	refs := []amlogic.DeviceRef{
		&amlogictest.FakeRef{Name: "broken", Err: descErr},
		&amlogictest.FakeRef{ID: amlogic.BurnIdentity},
	}

	_, found, err := amlogic.Locate(refs, amlogic.BurnIdentity)

	assert.False(t, found)
	var te *amlogic.TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, descErr)
	assert.Equal(t, "read descriptor of broken", te.Op)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, amlogic.ModeBurn, amlogic.Classify(amlogic.BurnIdentity))
	assert.Equal(t, amlogic.ModeNormal, amlogic.Classify(amlogic.NormalIdentity))
	assert.Equal(t, amlogic.ModeUnknown, amlogic.Classify(otherIdentity))
	assert.Equal(t, "1b8e:c003", amlogic.BurnIdentity.String())
}
