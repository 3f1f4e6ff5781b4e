package service

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/google/uuid"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/observability"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/pkg/entity"
)

type BuddiesService struct {
	users    repository.UsersRepositoryI
	edges    repository.EdgesRepositoryI
	notifier Notifier
}

func NewBuddiesService(usersRepo repository.UsersRepositoryI, edgesRepo repository.EdgesRepositoryI, notifier Notifier) *BuddiesService {
	if usersRepo == nil || edgesRepo == nil || notifier == nil {
		log.Fatal("on buddies service provided nil dependencies")
	}
	return &BuddiesService{
		users:    usersRepo,
		edges:    edgesRepo,
		notifier: notifier,
	}
}

// SendRequest creates the pending edge for the unordered pair. A prior edge
// in any state blocks a new one, rejected included: a decline is permanent.
func (bs *BuddiesService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*entity.BuddyEdge, error) {
	if requesterID == recipientID {
		return nil, errorvalues.ErrSelfRequest
	}
	requester, err := bs.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	edge, err := bs.edges.Create(ctx, requesterID, recipientID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrEdgePairExists), errors.Is(err, errorvalues.ErrUserNotFound):
			return nil, err
		}
		return nil, errors.New("edges repository error: " + err.Error())
	}
	observability.RecordBuddyRequest()
	bs.emit(ctx, entity.NotificationEvent{
		UserID:  recipientID,
		Kind:    entity.NotifBuddyRequest,
		Title:   "New buddy request",
		Message: requester.Name + " wants to train with you",
		Data: map[string]any{
			"edge_id":      edge.ID.String(),
			"requester_id": requesterID.String(),
		},
	})
	return edge, nil
}

func (bs *BuddiesService) RespondToRequest(ctx context.Context, edgeID, responderID uuid.UUID, action RespondAction) (*entity.BuddyEdge, error) {
	var next entity.EdgeState
	switch action {
	case ActionAccept:
		next = entity.EdgeAccepted
	case ActionReject:
		next = entity.EdgeRejected
	default:
		return nil, errorvalues.ErrUnknownAction
	}
	edge, err := bs.edges.GetByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrEdgeNotFound) {
			return nil, err
		}
		return nil, errors.New("edges repository error: " + err.Error())
	}
	if edge.RecipientID != responderID {
		return nil, errorvalues.ErrNotRecipient
	}
	// Conditional write: of two concurrent responses only one wins
	ok, err := bs.edges.UpdateState(ctx, edgeID, entity.EdgePending, next)
	if err != nil {
		return nil, errors.New("edges repository error: " + err.Error())
	}
	if !ok {
		return nil, errorvalues.ErrEdgeNotPending
	}
	edge.State = next
	observability.RecordBuddyResponse(string(action))
	if next == entity.EdgeAccepted {
		if err = bs.users.AddBuddyPair(ctx, edge.RequesterID, edge.RecipientID); err != nil {
			return nil, errors.New("materializing buddy pair error: " + err.Error())
		}
		bs.emit(ctx, entity.NotificationEvent{
			UserID:  edge.RequesterID,
			Kind:    entity.NotifBuddyAccepted,
			Title:   "Buddy request accepted",
			Message: "Your buddy request was accepted",
			Data: map[string]any{
				"edge_id":  edge.ID.String(),
				"buddy_id": edge.RecipientID.String(),
			},
		})
	}
	// Reject stays silent: the requester is not told about a decline
	return edge, nil
}

func (bs *BuddiesService) ListBuddies(ctx context.Context, userID uuid.UUID) ([]*entity.UserProfile, error) {
	buddies, err := bs.users.GetBuddies(ctx, userID)
	if err != nil {
		return nil, errors.New("users repository error: " + err.Error())
	}
	return buddies, nil
}

func (bs *BuddiesService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*entity.BuddyEdge, error) {
	pending := entity.EdgePending
	edges, err := bs.edges.ListForUser(ctx, userID, &pending)
	if err != nil {
		return nil, errors.New("edges repository error: " + err.Error())
	}
	incoming := make([]*entity.BuddyEdge, 0, len(edges))
	for _, e := range edges {
		if e.RecipientID == userID {
			incoming = append(incoming, e)
		}
	}
	return incoming, nil
}

// Delivery is best-effort: a dead sink must not fail the user action.
func (bs *BuddiesService) emit(ctx context.Context, event entity.NotificationEvent) {
	if err := bs.notifier.Emit(ctx, event); err != nil {
		slog.Error("emitting notification failed",
			slog.String("kind", string(event.Kind)), slog.String("error", err.Error()))
	}
}
