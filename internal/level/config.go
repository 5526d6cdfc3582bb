// Package level loads declarative level/wave definitions from YAML
// documents. The type hierarchy mirrors the original game's LevelConfig
// structure field-for-field; only the encoding changed, from the original's
// JSON (nlohmann::json) to YAML, matching this codebase's data-table
// convention for every other declarative table.
package level

type Sprite struct {
	TexturePath   string  `yaml:"texture_path"`
	FrameWidth    int     `yaml:"frame_width"`
	FrameHeight   int     `yaml:"frame_height"`
	FrameCount    int     `yaml:"frame_count"`
	FrameDuration float64 `yaml:"frame_duration"`
	ScaleX        float64 `yaml:"scale_x"`
	ScaleY        float64 `yaml:"scale_y"`
	MirrorX       bool    `yaml:"mirror_x"`
	MirrorY       bool    `yaml:"mirror_y"`
	Rotation      float64 `yaml:"rotation"`
}

func (s *Sprite) applyDefaults() {
	if s.FrameWidth == 0 {
		s.FrameWidth = 32
	}
	if s.FrameHeight == 0 {
		s.FrameHeight = 32
	}
	if s.FrameCount == 0 {
		s.FrameCount = 1
	}
	if s.FrameDuration == 0 {
		s.FrameDuration = 0.1
	}
	if s.ScaleX == 0 {
		s.ScaleX = 1
	}
	if s.ScaleY == 0 {
		s.ScaleY = 1
	}
}

type Projectile struct {
	Type           string  `yaml:"type"`
	Sprite         Sprite  `yaml:"sprite"`
	Speed          float64 `yaml:"speed"`
	Damage         int     `yaml:"damage"`
	FireRate       float64 `yaml:"fire_rate"`
	Homing         bool    `yaml:"homing"`
	HomingStrength float64 `yaml:"homing_strength"`
	DestroyOnHit   *bool   `yaml:"destroy_on_hit,omitempty"`
}

func (p *Projectile) applyDefaults() {
	if p.Type == "" {
		p.Type = "basic"
	}
	if p.Speed == 0 {
		p.Speed = 400
	}
	if p.Damage == 0 {
		p.Damage = 10
	}
	if p.FireRate == 0 {
		p.FireRate = 1
	}
	if p.DestroyOnHit == nil {
		t := true
		p.DestroyOnHit = &t
	}
	p.Sprite.applyDefaults()
}

// Destroys reports whether a projectile of this type is consumed on its
// first hit, matching damage_on_contact's destroy=true default.
func (p Projectile) Destroys() bool {
	if p.DestroyOnHit == nil {
		return true
	}
	return *p.DestroyOnHit
}

// MovementPatternKind enumerates the movement shapes a non-straight
// behavior can ride on top of its base velocity.
type MovementPatternKind string

const (
	MovementLinear    MovementPatternKind = "linear"
	MovementSine      MovementPatternKind = "sine"
	MovementWaypoints MovementPatternKind = "waypoints"
)

type Waypoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type MovementPattern struct {
	Type      MovementPatternKind `yaml:"type"`
	Amplitude float64             `yaml:"amplitude"`
	Frequency float64             `yaml:"frequency"`
	Phase     float64             `yaml:"phase"`
	Waypoints []Waypoint          `yaml:"waypoints"`
}

func (m *MovementPattern) applyDefaults() {
	if m.Type == "" {
		m.Type = MovementLinear
	}
}

type Behavior struct {
	Type          string          `yaml:"type"`
	Movement      MovementPattern `yaml:"movement"`
	TracksPlayer  bool            `yaml:"tracks_player"`
	TrackingSpeed float64         `yaml:"tracking_speed"`
	AggroRange    float64         `yaml:"aggro_range"`
}

func (b *Behavior) applyDefaults() {
	if b.Type == "" {
		b.Type = "straight"
	}
	b.Movement.applyDefaults()
}

// AttackPatternKind enumerates how an enemy's attack chooses projectile
// direction(s).
type AttackPatternKind string

const (
	AttackNone     AttackPatternKind = "none"
	AttackStraight AttackPatternKind = "straight"
	AttackTargeted AttackPatternKind = "targeted"
	AttackSpread   AttackPatternKind = "spread"
)

type AttackPattern struct {
	Type             AttackPatternKind `yaml:"type"`
	Cooldown         float64           `yaml:"cooldown"`
	BurstCount       int               `yaml:"burst_count"`
	BurstDelay       float64           `yaml:"burst_delay"`
	SpreadAngle      float64           `yaml:"spread_angle"`
	ProjectileCount  int               `yaml:"projectile_count"`
	AimAtPlayer      bool              `yaml:"aim_at_player"`
	Projectile       Projectile        `yaml:"projectile"`
}

func (a *AttackPattern) applyDefaults() {
	if a.Type == "" {
		a.Type = AttackNone
	}
	if a.Cooldown == 0 {
		a.Cooldown = 2
	}
	if a.BurstCount == 0 {
		a.BurstCount = 1
	}
	if a.BurstDelay == 0 {
		a.BurstDelay = 0.1
	}
	if a.SpreadAngle == 0 {
		a.SpreadAngle = 30
	}
	if a.ProjectileCount == 0 {
		a.ProjectileCount = 1
	}
	a.Projectile.applyDefaults()
}

type Enemy struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	Sprite         Sprite        `yaml:"sprite"`
	Health         int           `yaml:"health"`
	Speed          float64       `yaml:"speed"`
	Damage         int           `yaml:"damage"`
	ScoreValue     int           `yaml:"score_value"`
	Behavior       Behavior      `yaml:"behavior"`
	Attack         AttackPattern `yaml:"attack"`
	DeathSound     string        `yaml:"death_sound,omitempty"`
	DeathAnimation *Sprite       `yaml:"death_animation,omitempty"`
}

func (e *Enemy) applyDefaults() {
	if e.Health == 0 {
		e.Health = 100
	}
	if e.Speed == 0 {
		e.Speed = 100
	}
	if e.Damage == 0 {
		e.Damage = 10
	}
	if e.ScoreValue == 0 {
		e.ScoreValue = 100
	}
	e.Sprite.applyDefaults()
	e.Behavior.applyDefaults()
	e.Attack.applyDefaults()
}

// SpawnPositionType selects whether a spawn point is an absolute world
// coordinate or relative to the right edge of the visible screen.
type SpawnPositionType string

const (
	SpawnAbsolute    SpawnPositionType = "absolute"
	SpawnScreenRight SpawnPositionType = "screen_right"
)

type SpawnPoint struct {
	X            float64           `yaml:"x"`
	Y            float64           `yaml:"y"`
	PositionType SpawnPositionType `yaml:"position_type"`
	OffsetX      float64           `yaml:"offset_x"`
	OffsetY      float64           `yaml:"offset_y"`
}

func (s *SpawnPoint) applyDefaults() {
	if s.PositionType == "" {
		s.PositionType = SpawnAbsolute
	}
}

type EnemySpawn struct {
	EnemyID    string     `yaml:"enemy_id"`
	Count      int        `yaml:"count"`
	SpawnDelay float64    `yaml:"spawn_delay"`
	SpawnPoint SpawnPoint `yaml:"spawn_point"`
	Formation  string     `yaml:"formation,omitempty"`
}

func (e *EnemySpawn) applyDefaults() {
	if e.Count == 0 {
		e.Count = 1
	}
	if e.SpawnDelay == 0 {
		e.SpawnDelay = 0.5
	}
	e.SpawnPoint.applyDefaults()
}

type Wave struct {
	WaveNumber       int          `yaml:"wave_number"`
	Name             string       `yaml:"name"`
	Enemies          []EnemySpawn `yaml:"enemies"`
	WaveDelay        float64      `yaml:"wave_delay"`
	IsBossWave       bool         `yaml:"is_boss_wave"`
	TriggerCondition string       `yaml:"trigger_condition,omitempty"`
	MusicOverride    string       `yaml:"music_override,omitempty"`
}

func (w *Wave) applyDefaults() {
	if w.WaveDelay == 0 {
		w.WaveDelay = 2
	}
}

type PowerupSpawn struct {
	PowerUpType    string  `yaml:"powerup_type"`
	SpawnChance    float64 `yaml:"spawn_chance"`
	SpawnOnWave    *int    `yaml:"spawn_on_wave,omitempty"`
	SpawnCondition string  `yaml:"spawn_condition,omitempty"`
}

func (p *PowerupSpawn) applyDefaults() {
	if p.SpawnChance == 0 {
		p.SpawnChance = 0.1
	}
}

type Environment struct {
	BackgroundTexture string  `yaml:"background_texture"`
	ParallaxLayer1    string  `yaml:"parallax_layer_1,omitempty"`
	ParallaxLayer2    string  `yaml:"parallax_layer_2,omitempty"`
	ScrollSpeed       float64 `yaml:"scroll_speed"`
	ScrollInfinite    bool    `yaml:"scroll_infinite"`
	BackgroundStatic  bool    `yaml:"background_static"`
	Music             string  `yaml:"music,omitempty"`
	AmbientSound      string  `yaml:"ambient_sound,omitempty"`
}

func (e *Environment) applyDefaults() {
	if e.ScrollSpeed == 0 {
		e.ScrollSpeed = 50
	}
}

type Metadata struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Author        string `yaml:"author"`
	Version       string `yaml:"version"`
	Description   string `yaml:"description"`
	Difficulty    int    `yaml:"difficulty"`
	PreviewImage  string `yaml:"preview_image,omitempty"`
}

func (m *Metadata) applyDefaults() {
	if m.Version == "" {
		m.Version = "1.0.0"
	}
	if m.Difficulty == 0 {
		m.Difficulty = 1
	}
}

// Config is one parsed level document: metadata, environment dressing, the
// enemy type table referenced by wave spawn entries, the ordered wave list,
// and the powerup drop table.
type Config struct {
	Metadata         Metadata          `yaml:"metadata"`
	Environment      Environment       `yaml:"environment"`
	EnemyDefinitions map[string]Enemy  `yaml:"enemy_definitions"`
	Waves            []Wave            `yaml:"waves"`
	Powerups         []PowerupSpawn    `yaml:"powerups"`
	MaxPlayers       int               `yaml:"max_players"`
	TimeLimit        *float64          `yaml:"time_limit,omitempty"`
	Lives            *int              `yaml:"lives,omitempty"`
}

func (c *Config) applyDefaults() {
	c.Metadata.applyDefaults()
	c.Environment.applyDefaults()
	for id, e := range c.EnemyDefinitions {
		e.applyDefaults()
		c.EnemyDefinitions[id] = e
	}
	for i := range c.Waves {
		c.Waves[i].applyDefaults()
		for j := range c.Waves[i].Enemies {
			c.Waves[i].Enemies[j].applyDefaults()
		}
	}
	for i := range c.Powerups {
		c.Powerups[i].applyDefaults()
	}
	if c.MaxPlayers == 0 {
		c.MaxPlayers = 4
	}
	if c.Lives == nil {
		three := 3
		c.Lives = &three
	}
}
