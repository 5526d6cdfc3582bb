package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := InputPayload{ClientTimestamp: 12345, InputMask: InputUp | InputShoot}
	f := Frame{Opcode: OpInput, Payload: payload.Encode()}
	data := EncodeFrame(f)

	decoded, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, OpInput, decoded.Opcode)

	got, err := DecodeInput(decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReliableFrameCarriesSequence(t *testing.T) {
	f := Frame{Opcode: OpLevelStart, Seq: 42, Payload: LevelStartPayload{LevelID: "level-1"}.Encode()}
	data := EncodeFrame(f)

	decoded, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), decoded.Seq)

	got, err := DecodeLevelStart(decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, "level-1", got.LevelID)
}

func TestDecodeFrameRejectsBadMagic(t *testing.T) {
	data := EncodeFrame(Frame{Opcode: OpAck, Seq: 1, Payload: AckPayload{Seq: 1}.Encode()})
	data[0] ^= 0xFF
	_, err := DecodeFrame(data)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeFrameRejectsShortBuffer(t *testing.T) {
	_, err := DecodeFrame([]byte{0x42})
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeStringRejectsOverlongLengthPrefix(t *testing.T) {
	e := NewEncoder()
	e.WriteU32(1000) // claims 1000 bytes follow, but none do
	_, err := NewDecoder(e.Bytes()).ReadString()
	assert.ErrorIs(t, err, ErrBadStringLength)
}

func TestEntityPositionsRoundTrip(t *testing.T) {
	p := EntityPositionsPayload{
		Entities: []EntitySnapshot{
			{EntityID: 1, Kind: 0, X: 10.5, Y: -3.25, VX: 1, VY: -1, Health: 100, MaxHealth: 100, Flags: FlagDamageFlash},
			{EntityID: 2, Kind: 1, X: 500, Y: 0, VX: -60, Health: 40, MaxHealth: 50},
		},
	}
	got, err := DecodeEntityPositions(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestOpcodeReliability(t *testing.T) {
	assert.False(t, OpInput.Reliable())
	assert.False(t, OpEntityPositions.Reliable())
	assert.True(t, OpLogin.Reliable())
	assert.True(t, OpLevelComplete.Reliable())
}
