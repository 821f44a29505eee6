package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// LoadPlayers reads a JSON array of players from path.
func LoadPlayers(path string) ([]models.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open players file: %w", err)
	}
	defer f.Close()
	return DecodePlayers(f)
}

// DecodePlayers decodes and checks a JSON array of players. Every player
// needs an id, a name and a known position; ids must be unique.
func DecodePlayers(r io.Reader) ([]models.Player, error) {
	var players []models.Player
	if err := json.NewDecoder(r).Decode(&players); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}

	seen := make(map[uuid.UUID]bool, len(players))
	for i, p := range players {
		switch {
		case p.ID == uuid.Nil:
			return nil, fmt.Errorf("player %d: id is required", i)
		case p.FullName == "":
			return nil, fmt.Errorf("player %s: full_name is required", p.ID)
		case seen[p.ID]:
			return nil, fmt.Errorf("player %s: duplicate id", p.ID)
		}
		if _, ok := models.AllPositions[p.Position]; !ok {
			return nil, fmt.Errorf("player %s: unknown position %q", p.ID, p.Position)
		}
		seen[p.ID] = true
	}
	return players, nil
}
