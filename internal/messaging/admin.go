package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-roombot/internal/bot"
)

// Admin is the bot surface exposed over the admin subject.
type Admin interface {
	Status() bot.Status
	StartGame(ctx context.Context, key string) error
	StopGame(ctx context.Context) error
	RestartGame(ctx context.Context) error
	ChangeGame(ctx context.Context, key string) error
}

// Admin operations.
const (
	OpStatus  = "status"
	OpStart   = "start"
	OpStop    = "stop"
	OpRestart = "restart"
	OpChange  = "change"
)

// AdminRequest is the body of a request on the admin subject.
type AdminRequest struct {
	Op   string `json:"op"`
	Game string `json:"game,omitempty"`
}

// AdminResponse answers every admin request. Status is the bot's state
// after the operation ran.
type AdminResponse struct {
	OK     bool        `json:"ok"`
	Error  string      `json:"error,omitempty"`
	Status *bot.Status `json:"status,omitempty"`
}

func handleAdmin(ctx context.Context, a Admin, data []byte) AdminResponse {
	var req AdminRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AdminResponse{Error: fmt.Sprintf("decoding request: %v", err)}
	}

	var err error
	switch req.Op {
	case OpStatus:
	case OpStart:
		err = a.StartGame(ctx, req.Game)
	case OpStop:
		err = a.StopGame(ctx)
	case OpRestart:
		err = a.RestartGame(ctx)
	case OpChange:
		if req.Game == "" {
			err = fmt.Errorf("game is required")
		} else {
			err = a.ChangeGame(ctx, req.Game)
		}
	default:
		err = fmt.Errorf("unknown op %q", req.Op)
	}

	st := a.Status()
	if err != nil {
		return AdminResponse{Error: err.Error(), Status: &st}
	}
	return AdminResponse{OK: true, Status: &st}
}
