package model

import "testing"

func TestPONumber(t *testing.T) {
	cr := &ChangeRequest{CRNumber: 500}
	if got := cr.PONumber(); got != "PO-500" {
		t.Errorf("PONumber() = %s, want PO-500", got)
	}

	child := &POChild{Suffix: ".2"}
	if got := child.PONumber(500); got != "PO-500.2" {
		t.Errorf("child PONumber() = %s, want PO-500.2", got)
	}
}

func TestFullyRouted(t *testing.T) {
	cr := &ChangeRequest{
		Materials: []ChangeRequestMaterial{
			{Name: "cement 42.5"},
			{Name: "rebar 12mm"},
		},
	}
	if cr.FullyRouted() {
		t.Error("no claims yet, FullyRouted() should be false")
	}

	cr.RoutedMaterials = []RoutedMaterial{{MaterialName: "cement 42.5"}}
	if cr.FullyRouted() {
		t.Error("one claim outstanding, FullyRouted() should be false")
	}

	cr.RoutedMaterials = append(cr.RoutedMaterials, RoutedMaterial{MaterialName: "rebar 12mm"})
	if !cr.FullyRouted() {
		t.Error("all materials claimed, FullyRouted() should be true")
	}

	empty := &ChangeRequest{}
	if empty.FullyRouted() {
		t.Error("a CR without materials is never fully routed")
	}
}

func TestCRStatusPredicates(t *testing.T) {
	for _, s := range []CRStatus{CRStatusRejected, CRStatusPurchaseCompleted} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []CRStatus{CRStatusPending, CRStatusSentToVendor, CRStatusSplitToSubCRs} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}

	for _, s := range []CRStatus{CRStatusPending, CRStatusAssignedToPM, CRStatusPMApproved, CRStatusBuyerAssigned, CRStatusPendingTDApproval} {
		if !s.IsPreApproval() {
			t.Errorf("%s should still be rejectable", s)
		}
	}
	for _, s := range []CRStatus{CRStatusApproved, CRStatusSentToVendor, CRStatusRejected} {
		if s.IsPreApproval() {
			t.Errorf("%s should not be rejectable", s)
		}
	}
}

func TestReturnStatusIsTerminal(t *testing.T) {
	terminal := []ReturnStatus{ReturnTDRejected, ReturnRefundReceived, ReturnReplacementDelivered, ReturnNewPOIssued}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	open := []ReturnStatus{ReturnPendingTDApproval, ReturnTDApproved, ReturnInProgress, ReturnReturnedToVendor, ReturnRefundPending, ReturnReplacementPending}
	for _, s := range open {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
