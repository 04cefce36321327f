package rules

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gridrivals/backend/internal/models"
)

// Outcome is the result of CheckEnd. WinnerID is empty for a draw or an
// unfinished game.
type Outcome struct {
	Finished bool   `json:"finished"`
	WinnerID string `json:"winner_id,omitempty"`
	IsDraw   bool   `json:"is_draw"`
}

// Engine is the per-game-type rule engine. State is an opaque JSON value
// owned exclusively by the engine; callers store and pass it around but
// never inspect it.
//
// ValidateMove must not mutate state. ApplyMove is a pure transformation
// that advances the turn and may embed a terminal outcome in the same
// transition; CheckEnd is idempotent and agrees with any outcome ApplyMove
// already embedded.
type Engine interface {
	Key() string
	Name() string
	MinPlayers() int
	MaxPlayers() int
	NewInitialState(players []models.Player) (json.RawMessage, error)
	ValidateMove(state json.RawMessage, userID string, move json.RawMessage) error
	ApplyMove(state json.RawMessage, userID string, move json.RawMessage) (json.RawMessage, error)
	CheckEnd(state json.RawMessage) (Outcome, error)
}

// Violation is a rule-level rejection with a stable reason code. It is
// surfaced verbatim to the caller.
type Violation struct {
	Code    string
	Message string
}

func (v *Violation) Error() string {
	return v.Message
}

// Stable reason codes shared by all engines.
const (
	CodeNotYourTurn   = "not_your_turn"
	CodeCellOccupied  = "cell_occupied"
	CodeColumnFull    = "column_full"
	CodeGameFinished  = "game_finished"
	CodeInvalidTarget = "invalid_target"
)

func errNotYourTurn() error {
	return &Violation{Code: CodeNotYourTurn, Message: "not your turn"}
}

func errGameFinished() error {
	return &Violation{Code: CodeGameFinished, Message: "game already finished"}
}

var (
	regMu      sync.RWMutex
	engines    = map[string]Engine{}
	roomPrefix = map[string]string{} // prefix -> game type key
)

// Register adds an engine variant under its key. Adding a game variant is a
// registration change only; the core engine never changes.
func Register(e Engine, prefix string) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := engines[e.Key()]; exists {
		panic(fmt.Sprintf("rules: duplicate engine key %q", e.Key()))
	}
	if _, exists := roomPrefix[prefix]; exists {
		panic(fmt.Sprintf("rules: duplicate room prefix %q", prefix))
	}
	engines[e.Key()] = e
	roomPrefix[prefix] = e.Key()
	prefixFor[e.Key()] = prefix
}

var prefixFor = map[string]string{}

// Get returns the engine registered for the given game type.
func Get(gameType string) (Engine, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	e, ok := engines[gameType]
	return e, ok
}

// List returns metadata for all registered variants, sorted by key.
func List() []models.GameInfo {
	regMu.RLock()
	defer regMu.RUnlock()
	infos := make([]models.GameInfo, 0, len(engines))
	for _, e := range engines {
		infos = append(infos, models.GameInfo{
			Key:        e.Key(),
			Name:       e.Name(),
			MinPlayers: e.MinPlayers(),
			MaxPlayers: e.MaxPlayers(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}

// NewRoomID generates a globally unique room id whose prefix encodes the
// game type, so a bare room id always resolves back to its engine.
func NewRoomID(gameType string) (string, error) {
	regMu.RLock()
	prefix, ok := prefixFor[gameType]
	regMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("rules: unknown game type %q", gameType)
	}
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "_" + hex.EncodeToString(b), nil
}

// EngineForRoom resolves the engine that owns the given room id.
func EngineForRoom(roomID string) (Engine, bool) {
	i := strings.IndexByte(roomID, '_')
	if i <= 0 {
		return nil, false
	}
	regMu.RLock()
	defer regMu.RUnlock()
	key, ok := roomPrefix[roomID[:i]]
	if !ok {
		return nil, false
	}
	e, ok := engines[key]
	return e, ok
}
