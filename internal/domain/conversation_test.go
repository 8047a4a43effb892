package domain

import "testing"

func TestHistory_Tail(t *testing.T) {
	h := History{}.
		Append(RoleUser, "q1").
		Append(RoleAssistant, "a1").
		Append(RoleUser, "q2").
		Append(RoleAssistant, "a2")

	tests := []struct {
		n         int
		wantLen   int
		wantFirst string
	}{
		{0, 0, ""},
		{-1, 0, ""},
		{2, 2, "q2"},
		{4, 4, "q1"},
		{10, 4, "q1"},
	}
	for _, tc := range tests {
		got := h.Tail(tc.n)
		if len(got) != tc.wantLen {
			t.Errorf("Tail(%d): len = %d, want %d", tc.n, len(got), tc.wantLen)
			continue
		}
		if tc.wantLen > 0 && got[0].Content != tc.wantFirst {
			t.Errorf("Tail(%d): first = %q, want %q", tc.n, got[0].Content, tc.wantFirst)
		}
	}
}

func TestNewChunk_DeterministicID(t *testing.T) {
	a := NewChunk("doc-1", 3, "text")
	b := NewChunk("doc-1", 3, "text")
	if a.ID != b.ID {
		t.Fatalf("chunk IDs differ: %q vs %q", a.ID, b.ID)
	}
	if a.ID != "doc-1:3" {
		t.Fatalf("unexpected chunk ID: %q", a.ID)
	}
}

func TestSessionState_Transitions(t *testing.T) {
	if !StateNoDocument.CanIngest() {
		t.Error("NoDocument must accept ingest")
	}
	if !StateReady.CanIngest() {
		t.Error("Ready must accept re-ingest")
	}
	if StateIngesting.CanIngest() || StateQuerying.CanIngest() || StateClosed.CanIngest() {
		t.Error("in-flight or closed states must not accept ingest")
	}
	if StateNoDocument.CanAsk() {
		t.Error("ask before ingest must be rejected")
	}
	if !StateReady.CanAsk() {
		t.Error("Ready must accept ask")
	}
}
