package service

import (
	"context"
	"fmt"
	"sort"

	"backend/internal/repository"

	"github.com/google/uuid"
)

// IterationNode is one node of a CR's re-attempt tree, with children
// nested for display.
type IterationNode struct {
	ID              string           `json:"id"`
	Suffix          string           `json:"suffix"`
	PONumber        string           `json:"po_number"`
	InspectionID    *string          `json:"inspection_id,omitempty"`
	ReturnRequestID *string          `json:"return_request_id,omitempty"`
	VendorID        *string          `json:"vendor_id,omitempty"`
	POChildID       *string          `json:"po_child_id,omitempty"`
	Children        []*IterationNode `json:"children"`
}

// IterationService reads the re-attempt tree of a CR. Nodes are only
// ever created by the return workflow.
type IterationService interface {
	Tree(ctx context.Context, crID string) ([]*IterationNode, error)
}

type iterationService struct {
	iterRepo repository.IterationRepository
	crRepo   repository.ChangeRequestRepository
}

func NewIterationService(iterRepo repository.IterationRepository, crRepo repository.ChangeRequestRepository) IterationService {
	return &iterationService{iterRepo: iterRepo, crRepo: crRepo}
}

// Tree returns the CR's iteration nodes as a forest of root attempts,
// children sorted by suffix.
func (s *iterationService) Tree(ctx context.Context, crID string) ([]*IterationNode, error) {
	id, err := uuid.Parse(crID)
	if err != nil {
		return nil, fmt.Errorf("invalid change request id: %w", err)
	}

	cr, err := s.crRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("change request not found: %w", err)
	}

	list, err := s.iterRepo.ListByChangeRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*IterationNode, len(list))
	for i := range list {
		n := &list[i]
		nodes[n.ID] = &IterationNode{
			ID:              n.ID.String(),
			Suffix:          n.Suffix,
			PONumber:        fmt.Sprintf("PO-%d%s", cr.CRNumber, n.Suffix),
			InspectionID:    uuidString(n.InspectionID),
			ReturnRequestID: uuidString(n.ReturnRequestID),
			VendorID:        uuidString(n.VendorID),
			POChildID:       uuidString(n.POChildID),
			Children:        []*IterationNode{},
		}
	}

	var roots []*IterationNode
	for i := range list {
		n := &list[i]
		node := nodes[n.ID]
		if n.ParentIterationID != nil {
			if parent, ok := nodes[*n.ParentIterationID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	for _, node := range nodes {
		sortNodes(node.Children)
	}
	return roots, nil
}

func sortNodes(nodes []*IterationNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Suffix < nodes[j].Suffix })
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
