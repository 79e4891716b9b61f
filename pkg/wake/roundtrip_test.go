package wake

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var packetGen = rapid.Custom(func(t *rapid.T) Packet {
	var pkt Packet
	if rapid.Bool().Draw(t, "addressed").(bool) {
		addr := byte(rapid.IntRange(0, int(MaxAddress)).Draw(t, "addr").(int))
		pkt.Address = &addr
	}
	pkt.Command = byte(rapid.IntRange(0, int(MaxCommand)).Draw(t, "cmd").(int))
	if data := rapid.SliceOfN(rapid.Byte(), 0, MaxDataLen).Draw(t, "data").([]byte); len(data) > 0 {
		pkt.Data = data
	}
	return pkt
})

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pkt := packetGen.Draw(t, "pkt").(Packet)
		encoded, err := pkt.Encode()
		require.NoError(t, err)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		require.Equal(t, &pkt, decoded)
	})
}

func TestDecodeDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pkt := packetGen.Draw(t, "pkt").(Packet)
		encoded, err := pkt.Encode()
		require.NoError(t, err)
		first, err1 := Decode(encoded)
		second, err2 := Decode(encoded)
		require.Equal(t, err1, err2)
		require.Equal(t, first, second)
	})
}

func TestDecodeArbitraryInput(t *testing.T) {
	// Whatever the bytes, the decoder returns a packet or an error.
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data").([]byte)
		pkt, err := Decode(data)
		if err != nil {
			require.Nil(t, pkt)
			return
		}
		require.NotNil(t, pkt)
		require.LessOrEqual(t, len(pkt.Data), MaxDataLen)
	})
}
