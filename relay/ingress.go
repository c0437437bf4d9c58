package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mahendra2603/Robot-Simulator-Project/domain"
)

const (
	DefaultTurn     = 0.0
	DefaultDistance = 1.5
)

var ErrMissingField = errors.New("missing required field")

// MoveRelativeRequest is the loose move_rel payload; absent fields take defaults.
type MoveRelativeRequest struct {
	Turn     *float64 `json:"turn"`
	Distance *float64 `json:"distance"`
}

// PointRequest carries the target of a move or goal command.
type PointRequest struct {
	X *float64 `json:"x"`
	Z *float64 `json:"z"`
}

type CommandBroadcaster interface {
	Broadcast(cmd domain.Command) (int, error)
}

// Ingress turns inbound requests into commands and hands them to the broadcaster.
type Ingress struct {
	broadcaster CommandBroadcaster
}

func NewIngress(b CommandBroadcaster) *Ingress {
	return &Ingress{broadcaster: b}
}

func (i *Ingress) MoveRelative(req MoveRelativeRequest) (domain.Command, error) {
	turn, distance := DefaultTurn, DefaultDistance
	if req.Turn != nil {
		turn = *req.Turn
	}
	if req.Distance != nil {
		distance = *req.Distance
	}
	return i.send(domain.MoveRelative(turn, distance))
}

func (i *Ingress) MoveAbsolute(req PointRequest) (domain.Command, error) {
	if err := req.validate(); err != nil {
		return domain.Command{}, err
	}
	return i.send(domain.MoveAbsolute(*req.X, *req.Z))
}

func (i *Ingress) SetGoal(req PointRequest) (domain.Command, error) {
	if err := req.validate(); err != nil {
		return domain.Command{}, err
	}
	return i.send(domain.SetGoal(*req.X, *req.Z))
}

func (i *Ingress) Stop() (domain.Command, error) {
	return i.send(domain.Stop())
}

func (i *Ingress) send(cmd domain.Command) (domain.Command, error) {
	if _, err := i.broadcaster.Broadcast(cmd); err != nil {
		return cmd, err
	}
	return cmd, nil
}

func (r PointRequest) validate() error {
	var missing []string
	if r.X == nil {
		missing = append(missing, "x")
	}
	if r.Z == nil {
		missing = append(missing, "z")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
