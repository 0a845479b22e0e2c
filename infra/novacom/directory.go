package novacom

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CrestNiraj12/novaterm/domain"
)

// directoryService implements app.DirectoryService.
type directoryService struct {
	caller   Caller
	viewerID string
}

func NewDirectoryService(caller Caller, viewerID string) *directoryService {
	return &directoryService{caller: caller, viewerID: viewerID}
}

func (s *directoryService) Inbox(ctx context.Context) ([]domain.InboxEntry, error) {
	data, err := s.caller.Call(ctx, "get_my_dms", s.viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetching inbox: %w", err)
	}
	var entries []wireInboxEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing inbox: %w", err)
	}
	out := make([]domain.InboxEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toInboxEntry(e))
	}
	return out, nil
}

func (s *directoryService) Communities(ctx context.Context) ([]domain.CommunitySummary, error) {
	data, err := s.caller.Call(ctx, "get_joined_communities", s.viewerID)
	if err != nil {
		return nil, fmt.Errorf("fetching communities: %w", err)
	}
	var comms []wireCommunity
	if err := json.Unmarshal(data, &comms); err != nil {
		return nil, fmt.Errorf("parsing communities: %w", err)
	}
	out := make([]domain.CommunitySummary, 0, len(comms))
	for _, c := range comms {
		out = append(out, domain.CommunitySummary{ID: c.ID.String(), Name: c.Name})
	}
	return out, nil
}
