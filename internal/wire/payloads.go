package wire

// This file defines the typed payload for every opcode and its Encode/Decode
// pair. Handlers work with these structs; only the transport and reliability
// layers see raw bytes.

type LoginPayload struct {
	ProtocolVersion uint16
	PlayerName      string
}

func (p LoginPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU16(p.ProtocolVersion)
	e.WriteString(p.PlayerName)
	return e.Bytes()
}

func DecodeLogin(data []byte) (LoginPayload, error) {
	d := NewDecoder(data)
	var p LoginPayload
	var err error
	if p.ProtocolVersion, err = d.ReadU16(); err != nil {
		return p, err
	}
	if p.PlayerName, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type LoginAckPayload struct {
	Accepted bool
	ClientID uint32
	Reason   string // empty when Accepted
}

func (p LoginAckPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteBool(p.Accepted)
	e.WriteU32(p.ClientID)
	e.WriteString(p.Reason)
	return e.Bytes()
}

func DecodeLoginAck(data []byte) (LoginAckPayload, error) {
	d := NewDecoder(data)
	var p LoginAckPayload
	var err error
	if p.Accepted, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.ClientID, err = d.ReadU32(); err != nil {
		return p, err
	}
	if p.Reason, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

// InputPayload carries one sampled input from the client. ClientTimestamp
// is the client's own clock reading at sample time, used by the input
// buffer to schedule delayed application; it is never trusted for
// simulation time itself.
type InputPayload struct {
	ClientTimestamp uint32
	InputMask       uint8
}

const (
	InputUp uint8 = 1 << iota
	InputDown
	InputLeft
	InputRight
	InputShoot
)

func (p InputPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU32(p.ClientTimestamp)
	e.WriteU8(p.InputMask)
	return e.Bytes()
}

func DecodeInput(data []byte) (InputPayload, error) {
	d := NewDecoder(data)
	var p InputPayload
	var err error
	if p.ClientTimestamp, err = d.ReadU32(); err != nil {
		return p, err
	}
	if p.InputMask, err = d.ReadU8(); err != nil {
		return p, err
	}
	return p, nil
}

// EntityFlags marks transient per-tick visual state a client should render
// (server-authoritative; rendering itself is a client concern).
type EntityFlags uint8

const (
	FlagDamageFlash EntityFlags = 1 << iota
	FlagBoss
)

type EntitySnapshot struct {
	EntityID  uint32
	Kind      uint8 // 0=player 1=enemy 2=projectile 3=powerup
	X, Y      float32
	VX, VY    float32
	Health    int32
	MaxHealth int32
	Flags     EntityFlags
}

// EntityPositionsPayload is the unreliable per-tick (or per-snapshot-cadence)
// world broadcast: `u8 count | { u32 id | u8 type | f32 x | f32 y | f32 vx |
// f32 vy | i32 hp | i32 max_hp | u8 flags }` repeated count times.
type EntityPositionsPayload struct {
	Entities []EntitySnapshot
}

func (p EntityPositionsPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU8(uint8(len(p.Entities)))
	for _, ent := range p.Entities {
		e.WriteU32(ent.EntityID)
		e.WriteU8(ent.Kind)
		e.WriteF32(ent.X)
		e.WriteF32(ent.Y)
		e.WriteF32(ent.VX)
		e.WriteF32(ent.VY)
		e.WriteI32(ent.Health)
		e.WriteI32(ent.MaxHealth)
		e.WriteU8(uint8(ent.Flags))
	}
	return e.Bytes()
}

func DecodeEntityPositions(data []byte) (EntityPositionsPayload, error) {
	d := NewDecoder(data)
	var p EntityPositionsPayload
	count, err := d.ReadU8()
	if err != nil {
		return p, err
	}
	p.Entities = make([]EntitySnapshot, 0, count)
	for i := uint8(0); i < count; i++ {
		var ent EntitySnapshot
		if ent.EntityID, err = d.ReadU32(); err != nil {
			return p, err
		}
		if ent.Kind, err = d.ReadU8(); err != nil {
			return p, err
		}
		if ent.X, err = d.ReadF32(); err != nil {
			return p, err
		}
		if ent.Y, err = d.ReadF32(); err != nil {
			return p, err
		}
		if ent.VX, err = d.ReadF32(); err != nil {
			return p, err
		}
		if ent.VY, err = d.ReadF32(); err != nil {
			return p, err
		}
		if ent.Health, err = d.ReadI32(); err != nil {
			return p, err
		}
		if ent.MaxHealth, err = d.ReadI32(); err != nil {
			return p, err
		}
		var flags uint8
		if flags, err = d.ReadU8(); err != nil {
			return p, err
		}
		ent.Flags = EntityFlags(flags)
		p.Entities = append(p.Entities, ent)
	}
	return p, nil
}

type LobbyStatusPayload struct {
	PlayersConnected uint8
	PlayersReady     uint8
	MaxPlayers       uint8
}

func (p LobbyStatusPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU8(p.PlayersConnected)
	e.WriteU8(p.PlayersReady)
	e.WriteU8(p.MaxPlayers)
	return e.Bytes()
}

func DecodeLobbyStatus(data []byte) (LobbyStatusPayload, error) {
	d := NewDecoder(data)
	var p LobbyStatusPayload
	var err error
	if p.PlayersConnected, err = d.ReadU8(); err != nil {
		return p, err
	}
	if p.PlayersReady, err = d.ReadU8(); err != nil {
		return p, err
	}
	if p.MaxPlayers, err = d.ReadU8(); err != nil {
		return p, err
	}
	return p, nil
}

type LevelStartPayload struct {
	LevelID string
}

func (p LevelStartPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.LevelID)
	return e.Bytes()
}

func DecodeLevelStart(data []byte) (LevelStartPayload, error) {
	d := NewDecoder(data)
	var p LevelStartPayload
	var err error
	if p.LevelID, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type LevelProgressPayload struct {
	WaveNumber   uint16
	TotalWaves   uint16
	EnemiesAlive uint16
}

func (p LevelProgressPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU16(p.WaveNumber)
	e.WriteU16(p.TotalWaves)
	e.WriteU16(p.EnemiesAlive)
	return e.Bytes()
}

func DecodeLevelProgress(data []byte) (LevelProgressPayload, error) {
	d := NewDecoder(data)
	var p LevelProgressPayload
	var err error
	if p.WaveNumber, err = d.ReadU16(); err != nil {
		return p, err
	}
	if p.TotalWaves, err = d.ReadU16(); err != nil {
		return p, err
	}
	if p.EnemiesAlive, err = d.ReadU16(); err != nil {
		return p, err
	}
	return p, nil
}

type LevelCompletePayload struct {
	LevelID      string
	DurationSecs float32
}

func (p LevelCompletePayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.LevelID)
	e.WriteF32(p.DurationSecs)
	return e.Bytes()
}

func DecodeLevelComplete(data []byte) (LevelCompletePayload, error) {
	d := NewDecoder(data)
	var p LevelCompletePayload
	var err error
	if p.LevelID, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.DurationSecs, err = d.ReadF32(); err != nil {
		return p, err
	}
	return p, nil
}

type PowerUpSelectionPayload struct {
	PowerUpID string
}

func (p PowerUpSelectionPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.PowerUpID)
	return e.Bytes()
}

func DecodePowerUpSelection(data []byte) (PowerUpSelectionPayload, error) {
	d := NewDecoder(data)
	var p PowerUpSelectionPayload
	var err error
	if p.PowerUpID, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type PowerUpStatusPayload struct {
	PowerUpID string
	Active    bool
	ExpiresIn float32 // seconds, 0 if permanent-until-death
}

func (p PowerUpStatusPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.PowerUpID)
	e.WriteBool(p.Active)
	e.WriteF32(p.ExpiresIn)
	return e.Bytes()
}

func DecodePowerUpStatus(data []byte) (PowerUpStatusPayload, error) {
	d := NewDecoder(data)
	var p PowerUpStatusPayload
	var err error
	if p.PowerUpID, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Active, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.ExpiresIn, err = d.ReadF32(); err != nil {
		return p, err
	}
	return p, nil
}

type GameOverPayload struct {
	Reason string
	Score  uint32
}

func (p GameOverPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.Reason)
	e.WriteU32(p.Score)
	return e.Bytes()
}

func DecodeGameOver(data []byte) (GameOverPayload, error) {
	d := NewDecoder(data)
	var p GameOverPayload
	var err error
	if p.Reason, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Score, err = d.ReadU32(); err != nil {
		return p, err
	}
	return p, nil
}

type AdminLoginPayload struct {
	Password string
}

func (p AdminLoginPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.Password)
	return e.Bytes()
}

func DecodeAdminLogin(data []byte) (AdminLoginPayload, error) {
	d := NewDecoder(data)
	var p AdminLoginPayload
	var err error
	if p.Password, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type AdminLoginAckPayload struct {
	Accepted     bool
	SessionToken string
}

func (p AdminLoginAckPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteBool(p.Accepted)
	e.WriteString(p.SessionToken)
	return e.Bytes()
}

func DecodeAdminLoginAck(data []byte) (AdminLoginAckPayload, error) {
	d := NewDecoder(data)
	var p AdminLoginAckPayload
	var err error
	if p.Accepted, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.SessionToken, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type AdminCommandPayload struct {
	SessionToken string
	Command      string
}

func (p AdminCommandPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteString(p.SessionToken)
	e.WriteString(p.Command)
	return e.Bytes()
}

func DecodeAdminCommand(data []byte) (AdminCommandPayload, error) {
	d := NewDecoder(data)
	var p AdminCommandPayload
	var err error
	if p.SessionToken, err = d.ReadString(); err != nil {
		return p, err
	}
	if p.Command, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type AdminResponsePayload struct {
	OK   bool
	Body string // pipe-delimited records
}

func (p AdminResponsePayload) Encode() []byte {
	e := NewEncoder()
	e.WriteBool(p.OK)
	e.WriteString(p.Body)
	return e.Bytes()
}

func DecodeAdminResponse(data []byte) (AdminResponsePayload, error) {
	d := NewDecoder(data)
	var p AdminResponsePayload
	var err error
	if p.OK, err = d.ReadBool(); err != nil {
		return p, err
	}
	if p.Body, err = d.ReadString(); err != nil {
		return p, err
	}
	return p, nil
}

type AckPayload struct {
	Seq uint32
}

func (p AckPayload) Encode() []byte {
	e := NewEncoder()
	e.WriteU32(p.Seq)
	return e.Bytes()
}

func DecodeAck(data []byte) (AckPayload, error) {
	d := NewDecoder(data)
	var p AckPayload
	var err error
	if p.Seq, err = d.ReadU32(); err != nil {
		return p, err
	}
	return p, nil
}
